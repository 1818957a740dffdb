package syncer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/invisibility-inc/echo-backend/internal/models"
	"github.com/invisibility-inc/echo-backend/internal/users"
	"github.com/invisibility-inc/echo-backend/internal/workos"
	"github.com/invisibility-inc/echo-backend/pkg/logger"
	"github.com/invisibility-inc/echo-backend/pkg/metrics"
)

// maxConcurrentLinks caps in-flight CRM requests during fan-out.
const maxConcurrentLinks = 50

// DirectoryLister pages the identity provider's full user directory.
type DirectoryLister interface {
	ListAllUsers(ctx context.Context) ([]workos.Profile, error)
}

// CRMLinker propagates a single user to the downstream CRM.
type CRMLinker interface {
	LinkUser(ctx context.Context, id, name, email string) error
}

// Engine orchestrates the two bulk synchronization jobs: provider directory
// into the local store, and unlinked local users into the CRM.
type Engine struct {
	repo     users.Repository
	provider DirectoryLister
	crm      CRMLinker
	limit    int
}

func NewEngine(repo users.Repository, provider DirectoryLister, crm CRMLinker) *Engine {
	return &Engine{repo: repo, provider: provider, crm: crm, limit: maxConcurrentLinks}
}

// SyncDirectory drains the provider's user directory and upserts each profile
// into the local store, keyed by provider id. Fully sequential: pagination
// order is preserved for writes and correctness matters more than latency.
func (e *Engine) SyncDirectory(ctx context.Context) ([]models.User, error) {
	profiles, err := e.provider.ListAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list provider directory: %w", err)
	}

	out := make([]models.User, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		u, err := e.repo.Upsert(ctx, &models.User{ID: p.ID, Email: p.Email, FullName: p.FullName()})
		if err != nil {
			return nil, fmt.Errorf("upsert user %s: %w", p.ID, err)
		}
		out = append(out, *u)
	}
	metrics.DirectoryUsersSynced.Add(float64(len(out)))
	logger.Infof("directory sync upserted %d users", len(out))
	return out, nil
}

// SyncCRM propagates every unlinked local user to the CRM under a bounded
// fan-out, then flips linkedToKeywords for exactly the ids that succeeded in
// one batched write. Per-user failures are logged and never abort sibling
// units; the job itself fails only when the initial listing or the final
// aggregate write fails. Returns the post-update records.
func (e *Engine) SyncCRM(ctx context.Context) ([]models.User, error) {
	all, err := e.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list local users: %w", err)
	}

	var pending []models.User
	for _, u := range all {
		if !u.LinkedToKeywords {
			pending = append(pending, u)
		}
	}
	logger.Infof("attempting to sync %d users to KeywordsAI", len(pending))

	// One pre-sized slot per unit: each goroutine writes only its own index,
	// so no lock is needed around the outcome accounting.
	succeeded := make([]bool, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := range pending {
		u := pending[i]
		g.Go(func() error {
			if err := e.crm.LinkUser(gctx, u.ID, u.FullName, u.Email); err != nil {
				logger.Warnf("keywords link failed for user %s: %v", u.ID, err)
				metrics.CRMLinkOutcomes.WithLabelValues("failed").Inc()
				return nil // non-fatal to sibling units
			}
			succeeded[i] = true
			metrics.CRMLinkOutcomes.WithLabelValues("linked").Inc()
			return nil
		})
	}
	_ = g.Wait()

	ids := make([]string, 0, len(pending))
	for i, ok := range succeeded {
		if ok {
			ids = append(ids, pending[i].ID)
		}
	}
	logger.Infof("linking %d of %d users", len(ids), len(pending))

	if err := e.repo.BatchSetLinked(ctx, ids); err != nil {
		return nil, fmt.Errorf("batch set linked: %w", err)
	}

	updated, err := e.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list local users after link: %w", err)
	}
	return updated, nil
}
