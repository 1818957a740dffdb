package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/invisibility-inc/echo-backend/internal/tokens"
	"github.com/invisibility-inc/echo-backend/pkg/middleware"
)

type fakeObjectStore struct {
	keys []string
	err  error
}

func (f *fakeObjectStore) PresignedPutURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://store.example.com/" + key + "?sig=x", nil
}

func newRecordingsRouter(t *testing.T, store ObjectStore) *gin.Engine {
	t.Helper()
	cfg := testConfig()
	r := gin.New()
	NewRecordingsHandler(store).Register(r, middleware.Auth(tokens.NewVerifier(cfg)))
	return r
}

func TestFetchSaveURL(t *testing.T) {
	store := &fakeObjectStore{}
	r := newRecordingsRouter(t, store)

	body := `{"recording_id":"rec1","session_id":"sess1","start_timestamp_nanos":1700000000000000000,"duration_ms":1500}`
	req := httptest.NewRequest("POST", "/recordings/fetch_save_url", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, testConfig(), "user_01"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, []string{"sess1/1700000000000000000.mp4"}, store.keys)

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Contains(t, got["url"], "sess1/1700000000000000000.mp4")
}

func TestFetchSaveURLValidatesBody(t *testing.T) {
	r := newRecordingsRouter(t, &fakeObjectStore{})

	req := httptest.NewRequest("POST", "/recordings/fetch_save_url", strings.NewReader(`{"session_id":"s"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, testConfig(), "user_01"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchSaveURLRequiresAuth(t *testing.T) {
	r := newRecordingsRouter(t, &fakeObjectStore{})

	req := httptest.NewRequest("POST", "/recordings/fetch_save_url", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
