package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLinkUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/user/update/user_1", r.URL.Path)
		require.Equal(t, "Bearer kw_key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Ada Lovelace", body["name"])
		require.Equal(t, "ada@example.com", body["email"])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewKeywordsClient(srv.URL, "kw_key", time.Second)
	require.NoError(t, c.LinkUser(context.Background(), "user_1", "Ada Lovelace", "ada@example.com"))
}

func TestLinkUser_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewKeywordsClient(srv.URL, "kw_key", time.Second)
	err := c.LinkUser(context.Background(), "user_1", "A", "a@b.c")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.Status)
}

func TestLinkUser_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewKeywordsClient(srv.URL, "kw_key", time.Second)
	err := c.LinkUser(context.Background(), "user_1", "A", "a@b.c")
	require.ErrorIs(t, err, ErrUnavailable)
}
