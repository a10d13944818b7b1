// internal/store/store.go
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github-repo-tracker/internal/errors"
	"github-repo-tracker/internal/model"
)

// DefaultLimit caps the top-repositories result size.
const DefaultLimit = 100

// sortColumns whitelists the rankable columns. Query text is assembled
// from this map only, never from caller input.
var sortColumns = map[model.SortField]string{
	model.SortByStars:      "stars_count",
	model.SortByWatchers:   "watchers_count",
	model.SortByForks:      "forks_count",
	model.SortByOpenIssues: "open_issues_count",
}

// Store is the persistence boundary over the repositories and commits
// tables. All failures come back as *errors.StorageError.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store backed by the given connection pool.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{
		pool:   pool,
		logger: logger,
	}
}

// UpsertRepository inserts or updates a repository keyed on (owner, name).
// Only the count, language and last_synced_at columns are touched on
// update; the row identity never changes. The stored ID and sync timestamp
// are written back into repo.
func (s *Store) UpsertRepository(ctx context.Context, repo *model.Repository) error {
	const q = `
		INSERT INTO repositories
			(owner, name, stars_count, forks_count, watchers_count, open_issues_count, language, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (owner, name) DO UPDATE SET
			stars_count       = EXCLUDED.stars_count,
			forks_count       = EXCLUDED.forks_count,
			watchers_count    = EXCLUDED.watchers_count,
			open_issues_count = EXCLUDED.open_issues_count,
			language          = EXCLUDED.language,
			last_synced_at    = now()
		RETURNING id, last_synced_at`

	err := s.pool.QueryRow(ctx, q,
		repo.Owner, repo.Name,
		repo.StarsCount, repo.ForksCount, repo.WatchersCount, repo.OpenIssuesCount,
		repo.Language,
	).Scan(&repo.ID, &repo.LastSyncedAt)
	if err != nil {
		return &apperrors.StorageError{Op: "upsert repository", Cause: err}
	}
	return nil
}

// InsertCommits inserts the commits not already present for the repository
// and reports how many rows were actually written. Duplicates (same sha
// for the same repository) are silently skipped, which is what makes
// repeated sync passes idempotent.
func (s *Store) InsertCommits(ctx context.Context, repoID int64, commits []model.Commit) (int64, error) {
	if len(commits) == 0 {
		return 0, nil
	}

	const q = `
		INSERT INTO commits (repository_id, sha, author, committed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (repository_id, sha) DO NOTHING`

	batch := &pgx.Batch{}
	for _, c := range commits {
		batch.Queue(q, repoID, c.SHA, c.Author, c.CommittedAt)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for range commits {
		tag, err := br.Exec()
		if err != nil {
			return inserted, &apperrors.StorageError{Op: "insert commits", Cause: err}
		}
		inserted += tag.RowsAffected()
	}
	if skipped := int64(len(commits)) - inserted; skipped > 0 {
		s.logger.Debug("skipped duplicate commits", "repository_id", repoID, "skipped", skipped)
	}
	return inserted, nil
}

// LatestCommitDate returns the newest committed_at stored for the
// repository, or the zero time when no commits are stored yet.
func (s *Store) LatestCommitDate(ctx context.Context, repoID int64) (time.Time, error) {
	const q = `SELECT max(committed_at) FROM commits WHERE repository_id = $1`

	var latest *time.Time
	if err := s.pool.QueryRow(ctx, q, repoID).Scan(&latest); err != nil {
		return time.Time{}, &apperrors.StorageError{Op: "latest commit date", Cause: err}
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}

// TopRepositories returns up to limit repositories ranked by the given
// field and order. Ties are always broken by (owner, name) ascending so
// identical queries return identical sequences.
func (s *Store) TopRepositories(ctx context.Context, sortBy model.SortField, order model.SortOrder, limit int) ([]model.Repository, error) {
	column, ok := sortColumns[sortBy]
	if !ok {
		return nil, apperrors.ErrInvalidSortField
	}
	direction := "DESC"
	if order == model.OrderAsc {
		direction = "ASC"
	}
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}

	q := fmt.Sprintf(`
		SELECT id, owner, name, stars_count, forks_count, watchers_count, open_issues_count, language, last_synced_at
		FROM repositories
		ORDER BY %s %s, owner ASC, name ASC
		LIMIT $1`, column, direction)

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "top repositories", Cause: err}
	}
	defer rows.Close()

	repos := make([]model.Repository, 0, limit)
	for rows.Next() {
		var r model.Repository
		err := rows.Scan(&r.ID, &r.Owner, &r.Name,
			&r.StarsCount, &r.ForksCount, &r.WatchersCount, &r.OpenIssuesCount,
			&r.Language, &r.LastSyncedAt)
		if err != nil {
			return nil, &apperrors.StorageError{Op: "top repositories", Cause: err}
		}
		repos = append(repos, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperrors.StorageError{Op: "top repositories", Cause: err}
	}
	return repos, nil
}

// Activity returns the commits of a repository with since <= committed_at
// <= until, oldest first. An unknown repository yields an empty slice, not
// an error.
func (s *Store) Activity(ctx context.Context, owner, name string, since, until time.Time) ([]model.Commit, error) {
	const q = `
		SELECT c.sha, c.repository_id, c.author, c.committed_at
		FROM commits c
		JOIN repositories r ON r.id = c.repository_id
		WHERE r.owner = $1 AND r.name = $2
		  AND c.committed_at BETWEEN $3 AND $4
		ORDER BY c.committed_at ASC, c.sha ASC`

	rows, err := s.pool.Query(ctx, q, owner, name, since, until)
	if err != nil {
		return nil, &apperrors.StorageError{Op: "activity", Cause: err}
	}
	defer rows.Close()

	commits := []model.Commit{}
	for rows.Next() {
		var c model.Commit
		if err := rows.Scan(&c.SHA, &c.RepositoryID, &c.Author, &c.CommittedAt); err != nil {
			return nil, &apperrors.StorageError{Op: "activity", Cause: err}
		}
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperrors.StorageError{Op: "activity", Cause: err}
	}
	return commits, nil
}
