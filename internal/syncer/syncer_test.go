package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/invisibility-inc/echo-backend/internal/models"
	"github.com/invisibility-inc/echo-backend/internal/users"
	"github.com/invisibility-inc/echo-backend/internal/workos"
)

type fakeProvider struct {
	profiles []workos.Profile
	err      error
	calls    int
}

func (f *fakeProvider) ListAllUsers(ctx context.Context) ([]workos.Profile, error) {
	f.calls++
	return f.profiles, f.err
}

// countingCRM records the maximum number of concurrent in-flight calls and
// fails the configured ids.
type countingCRM struct {
	inflight int32
	max      int32
	fail     map[string]bool
	calls    int32
}

func (c *countingCRM) LinkUser(ctx context.Context, id, name, email string) error {
	cur := atomic.AddInt32(&c.inflight, 1)
	for {
		max := atomic.LoadInt32(&c.max)
		if cur <= max || atomic.CompareAndSwapInt32(&c.max, max, cur) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&c.calls, 1)
	atomic.AddInt32(&c.inflight, -1)
	if c.fail[id] {
		return errors.New("simulated non-2xx")
	}
	return nil
}

// recordingRepo wraps the in-memory repository and records batched link writes.
type recordingRepo struct {
	*users.MemoryRepository
	batchedIDs [][]string
	batchErr   error
	listErr    error
}

func (r *recordingRepo) List(ctx context.Context) ([]models.User, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.MemoryRepository.List(ctx)
}

func (r *recordingRepo) BatchSetLinked(ctx context.Context, ids []string) error {
	r.batchedIDs = append(r.batchedIDs, ids)
	if r.batchErr != nil {
		return r.batchErr
	}
	return r.MemoryRepository.BatchSetLinked(ctx, ids)
}

func seedRepo(t *testing.T, repo users.Repository, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("user_%03d", i)
		_, err := repo.Upsert(context.Background(), &models.User{ID: id, Email: id + "@x.y", FullName: "User " + id})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestSyncDirectory_UpsertsAllProfiles(t *testing.T) {
	provider := &fakeProvider{profiles: []workos.Profile{
		{ID: "u1", Email: "a@b.c", FirstName: "Ada", LastName: "Lovelace"},
		{ID: "u2", Email: "b@b.c"},
	}}
	repo := users.NewMemoryRepository()
	e := NewEngine(repo, provider, &countingCRM{})

	got, err := e.SyncDirectory(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	u, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", u.FullName)
	require.False(t, u.LinkedToKeywords)
}

func TestSyncDirectory_Idempotent(t *testing.T) {
	provider := &fakeProvider{profiles: []workos.Profile{{ID: "u1", Email: "a@b.c", FirstName: "Ada"}}}
	repo := users.NewMemoryRepository()
	e := NewEngine(repo, provider, &countingCRM{})

	first, err := e.SyncDirectory(context.Background())
	require.NoError(t, err)
	second, err := e.SyncDirectory(context.Background())
	require.NoError(t, err)

	require.Equal(t, first, second, "second run with unchanged upstream must be a no-op")
	require.Equal(t, 2, provider.calls, "the listing is recomputed on every call")
}

func TestSyncDirectory_ListingFailureFailsJob(t *testing.T) {
	provider := &fakeProvider{err: workos.ErrProviderUnavailable}
	e := NewEngine(users.NewMemoryRepository(), provider, &countingCRM{})

	_, err := e.SyncDirectory(context.Background())
	require.ErrorIs(t, err, workos.ErrProviderUnavailable)
}

func TestSyncCRM_ConcurrencyNeverExceedsCap(t *testing.T) {
	repo := &recordingRepo{MemoryRepository: users.NewMemoryRepository()}
	seedRepo(t, repo, 200)
	crm := &countingCRM{}
	e := NewEngine(repo, &fakeProvider{}, crm)

	_, err := e.SyncCRM(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 200, crm.calls)
	require.LessOrEqual(t, crm.max, int32(maxConcurrentLinks))
}

func TestSyncCRM_PartialFailure(t *testing.T) {
	repo := &recordingRepo{MemoryRepository: users.NewMemoryRepository()}
	ids := seedRepo(t, repo, 10)
	crm := &countingCRM{fail: map[string]bool{ids[1]: true, ids[4]: true, ids[7]: true}}
	e := NewEngine(repo, &fakeProvider{}, crm)

	got, err := e.SyncCRM(context.Background())
	require.NoError(t, err, "per-user failures are non-fatal to the job")

	require.Len(t, repo.batchedIDs, 1, "exactly one aggregate write")
	require.Len(t, repo.batchedIDs[0], 7)
	for _, id := range repo.batchedIDs[0] {
		require.NotContains(t, []string{ids[1], ids[4], ids[7]}, id)
	}

	// returned records reflect the post-update flags
	linked := map[string]bool{}
	for _, u := range got {
		linked[u.ID] = u.LinkedToKeywords
	}
	require.False(t, linked[ids[1]])
	require.False(t, linked[ids[4]])
	require.False(t, linked[ids[7]])
	require.True(t, linked[ids[0]])
	require.True(t, linked[ids[9]])
}

func TestSyncCRM_SkipsAlreadyLinked(t *testing.T) {
	repo := &recordingRepo{MemoryRepository: users.NewMemoryRepository()}
	ids := seedRepo(t, repo, 3)
	require.NoError(t, repo.BatchSetLinked(context.Background(), []string{ids[0]}))
	repo.batchedIDs = nil
	crm := &countingCRM{}
	e := NewEngine(repo, &fakeProvider{}, crm)

	_, err := e.SyncCRM(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, crm.calls, "already linked users are not re-sent")
}

func TestSyncCRM_ListFailureFailsJob(t *testing.T) {
	repo := &recordingRepo{MemoryRepository: users.NewMemoryRepository(), listErr: errors.New("store down")}
	e := NewEngine(repo, &fakeProvider{}, &countingCRM{})

	_, err := e.SyncCRM(context.Background())
	require.Error(t, err)
}

func TestSyncCRM_AggregateWriteFailureFailsJob(t *testing.T) {
	repo := &recordingRepo{MemoryRepository: users.NewMemoryRepository(), batchErr: errors.New("write failed")}
	seedRepo(t, repo, 2)
	e := NewEngine(repo, &fakeProvider{}, &countingCRM{})

	_, err := e.SyncCRM(context.Background())
	require.Error(t, err)
}
