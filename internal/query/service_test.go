// internal/query/service_test.go
package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github-repo-tracker/internal/errors"
	"github-repo-tracker/internal/model"
)

// MockStore is a mock of the Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) TopRepositories(ctx context.Context, sortBy model.SortField, order model.SortOrder, limit int) ([]model.Repository, error) {
	args := m.Called(ctx, sortBy, order, limit)
	return args.Get(0).([]model.Repository), args.Error(1)
}

func (m *MockStore) Activity(ctx context.Context, owner, name string, since, until time.Time) ([]model.Commit, error) {
	args := m.Called(ctx, owner, name, since, until)
	return args.Get(0).([]model.Commit), args.Error(1)
}

func TestService_TopRepositories(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to stars descending with limit 100", func(t *testing.T) {
		mockStore := new(MockStore)
		mockStore.On("TopRepositories", ctx, model.SortByStars, model.OrderDesc, 100).
			Return([]model.Repository{{Owner: "a", Name: "b"}}, nil).Once()

		repos, err := NewService(mockStore).TopRepositories(ctx, "", "")

		require.NoError(t, err)
		assert.Len(t, repos, 1)
		mockStore.AssertExpectations(t)
	})

	t.Run("passes through an explicit field and order", func(t *testing.T) {
		mockStore := new(MockStore)
		mockStore.On("TopRepositories", ctx, model.SortByForks, model.OrderAsc, 100).
			Return([]model.Repository{}, nil).Once()

		_, err := NewService(mockStore).TopRepositories(ctx, "forks", "ASC")

		require.NoError(t, err)
		mockStore.AssertExpectations(t)
	})

	t.Run("rejects an unknown sort field before touching the store", func(t *testing.T) {
		mockStore := new(MockStore)

		_, err := NewService(mockStore).TopRepositories(ctx, "invalid_field", "DESC")

		assert.ErrorIs(t, err, apperrors.ErrInvalidSortField)
		mockStore.AssertNotCalled(t, "TopRepositories", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects an unknown order before touching the store", func(t *testing.T) {
		mockStore := new(MockStore)

		_, err := NewService(mockStore).TopRepositories(ctx, "stars", "sideways")

		assert.ErrorIs(t, err, apperrors.ErrInvalidOrder)
		mockStore.AssertNotCalled(t, "TopRepositories", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_Activity(t *testing.T) {
	ctx := context.Background()
	since := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2023, 1, 31, 23, 59, 59, 0, time.UTC)

	t.Run("delegates a valid window to the store", func(t *testing.T) {
		mockStore := new(MockStore)
		mockStore.On("Activity", ctx, "golang", "go", since, until).
			Return([]model.Commit{{SHA: "abc"}}, nil).Once()

		commits, err := NewService(mockStore).Activity(ctx, "golang", "go", since, until)

		require.NoError(t, err)
		assert.Len(t, commits, 1)
		mockStore.AssertExpectations(t)
	})

	t.Run("rejects since after until before touching the store", func(t *testing.T) {
		mockStore := new(MockStore)

		_, err := NewService(mockStore).Activity(ctx, "golang", "go", until, since)

		assert.ErrorIs(t, err, apperrors.ErrInvalidRange)
		mockStore.AssertNotCalled(t, "Activity", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("treats since equal to until as valid", func(t *testing.T) {
		mockStore := new(MockStore)
		mockStore.On("Activity", ctx, "golang", "go", since, since).
			Return([]model.Commit{}, nil).Once()

		_, err := NewService(mockStore).Activity(ctx, "golang", "go", since, since)

		require.NoError(t, err)
		mockStore.AssertExpectations(t)
	})
}
