// internal/query/service.go
package query

import (
	"context"
	"time"

	apperrors "github-repo-tracker/internal/errors"
	"github-repo-tracker/internal/model"
	"github-repo-tracker/internal/store"
)

// Store is the read surface the service queries.
type Store interface {
	TopRepositories(ctx context.Context, sortBy model.SortField, order model.SortOrder, limit int) ([]model.Repository, error)
	Activity(ctx context.Context, owner, name string, since, until time.Time) ([]model.Commit, error)
}

// Service is the stateless read layer. It validates caller input before
// any store access and otherwise delegates; the store is the source of
// truth, so nothing is cached.
type Service struct {
	store Store
}

// NewService creates a Service over the given store.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// TopRepositories returns up to 100 repositories ranked by the requested
// field and order. Empty values default to stars/DESC; unknown values are
// rejected with ErrInvalidSortField or ErrInvalidOrder.
func (s *Service) TopRepositories(ctx context.Context, sortBy, order string) ([]model.Repository, error) {
	field, ok := model.ParseSortField(sortBy)
	if !ok {
		return nil, apperrors.ErrInvalidSortField
	}
	direction, ok := model.ParseSortOrder(order)
	if !ok {
		return nil, apperrors.ErrInvalidOrder
	}
	return s.store.TopRepositories(ctx, field, direction, store.DefaultLimit)
}

// Activity returns the commit activity of a repository inside the
// inclusive [since, until] window, oldest first. A window with
// since > until is rejected with ErrInvalidRange; an unknown repository
// yields an empty result.
func (s *Service) Activity(ctx context.Context, owner, name string, since, until time.Time) ([]model.Commit, error) {
	if since.After(until) {
		return nil, apperrors.ErrInvalidRange
	}
	return s.store.Activity(ctx, owner, name, since, until)
}
