// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	custom_errors "github-repo-tracker/internal/errors"
	"github-repo-tracker/internal/model"
)

// GithubAPI is the upstream read surface the pipeline depends on.
type GithubAPI interface {
	FetchRepository(ctx context.Context, owner, name string) (*model.Repository, error)
	FetchCommits(ctx context.Context, owner, name string, since, until time.Time) ([]model.Commit, error)
}

// Store is the persistence surface the pipeline writes through. Every
// operation is an idempotent upsert, which is what keeps overlapping
// passes safe without any pipeline-level locking.
type Store interface {
	UpsertRepository(ctx context.Context, repo *model.Repository) error
	InsertCommits(ctx context.Context, repoID int64, commits []model.Commit) (int64, error)
	LatestCommitDate(ctx context.Context, repoID int64) (time.Time, error)
}

// RepoIdentifier holds the owner and name of a repository.
type RepoIdentifier struct {
	Owner string
	Name  string
}

func (r RepoIdentifier) String() string {
	return r.Owner + "/" + r.Name
}

// Status is the outcome of one target within a sync pass.
type Status string

const (
	StatusSynced  Status = "synced"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// TargetResult reports what happened to a single target. A pass never
// collapses to a single boolean; callers get the full breakdown.
type TargetResult struct {
	Target          RepoIdentifier
	Status          Status
	Reason          string // populated for StatusSkipped
	Err             error  // populated for StatusFailed
	CommitsInserted int64
}

// Syncer orchestrates the fetching and storing of data for a fixed set of
// targets.
type Syncer struct {
	store        Store
	ghClient     GithubAPI
	logger       *slog.Logger
	targets      []RepoIdentifier
	concurrency  int
	commitWindow time.Duration
}

// NewSyncer creates a new Syncer instance. repos are "owner/name" strings;
// commitWindowDays is the trailing window of commit history fetched per
// pass.
func NewSyncer(store Store, ghClient GithubAPI, logger *slog.Logger, repos []string, concurrency, commitWindowDays int) (*Syncer, error) {
	targets, err := parseRepoIdentifiers(repos)
	if err != nil {
		return nil, err
	}

	return &Syncer{
		store:        store,
		ghClient:     ghClient,
		logger:       logger,
		targets:      targets,
		concurrency:  concurrency,
		commitWindow: time.Duration(commitWindowDays) * 24 * time.Hour,
	}, nil
}

// RunSync performs one synchronization pass over all configured targets
// with bounded parallelism. Targets fail independently: one bad repository
// never aborts the pass. On cancellation, in-flight targets finish their
// current step and the rest are reported skipped.
func (s *Syncer) RunSync(ctx context.Context) []TargetResult {
	s.logger.Info("starting sync pass", "targets", len(s.targets), "concurrency", s.concurrency)
	started := time.Now()

	results := make([]TargetResult, len(s.targets))
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for i, target := range s.targets {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = TargetResult{Target: target, Status: StatusSkipped, Reason: "cancelled"}
				return nil
			}
			results[i] = s.syncTarget(ctx, target)
			return nil
		})
	}
	g.Wait()

	var synced, skipped, failed int
	for _, r := range results {
		switch r.Status {
		case StatusSynced:
			synced++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	s.logger.Info("sync pass finished",
		"synced", synced, "skipped", skipped, "failed", failed,
		"duration", time.Since(started).String())

	return results
}

// syncTarget handles the full synchronization of a single repository:
// metadata first, then the commit window. Commits are only fetched once
// the metadata upsert succeeded, so a nonexistent repository never gets a
// commit fetch.
func (s *Syncer) syncTarget(ctx context.Context, id RepoIdentifier) TargetResult {
	logger := s.logger.With("owner", id.Owner, "repo", id.Name)
	logger.Info("syncing repository")

	repo, err := s.ghClient.FetchRepository(ctx, id.Owner, id.Name)
	if err != nil {
		return s.targetFailure(logger, id, "fetch repository metadata", err)
	}

	if err := s.store.UpsertRepository(ctx, repo); err != nil {
		return s.targetFailure(logger, id, "upsert repository", err)
	}

	since, err := s.sinceTimestamp(ctx, repo.ID)
	if err != nil {
		return s.targetFailure(logger, id, "read commit high-water mark", err)
	}
	until := time.Now().UTC()

	commits, err := s.ghClient.FetchCommits(ctx, id.Owner, id.Name, since, until)
	if err != nil {
		return s.targetFailure(logger, id, "fetch commits", err)
	}

	inserted, err := s.store.InsertCommits(ctx, repo.ID, commits)
	if err != nil {
		return s.targetFailure(logger, id, "insert commits", err)
	}

	logger.Info("repository synced", "commits_fetched", len(commits), "commits_inserted", inserted)
	return TargetResult{Target: id, Status: StatusSynced, CommitsInserted: inserted}
}

// targetFailure records a classified per-target error, turning pass
// cancellation into a skip rather than a failure.
func (s *Syncer) targetFailure(logger *slog.Logger, id RepoIdentifier, step string, err error) TargetResult {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Info("target skipped", "reason", "cancelled", "step", step)
		return TargetResult{Target: id, Status: StatusSkipped, Reason: "cancelled"}
	}
	logger.Error("target failed", "step", step, "error", err)
	return TargetResult{Target: id, Status: StatusFailed, Err: err}
}

// sinceTimestamp picks where the commit fetch starts: the trailing window,
// advanced past the newest commit already stored so a pass only requests
// what it is missing.
func (s *Syncer) sinceTimestamp(ctx context.Context, repoID int64) (time.Time, error) {
	since := time.Now().UTC().Add(-s.commitWindow)

	latest, err := s.store.LatestCommitDate(ctx, repoID)
	if err != nil {
		return time.Time{}, err
	}
	if latest.After(since) {
		since = latest.Add(1 * time.Second)
	}
	return since, nil
}

func parseRepoIdentifiers(repos []string) ([]RepoIdentifier, error) {
	var identifiers []RepoIdentifier
	for _, r := range repos {
		parts := strings.Split(r, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, &custom_errors.ErrInvalidRepoFormat{Repo: r}
		}
		identifiers = append(identifiers, RepoIdentifier{Owner: parts[0], Name: parts[1]})
	}
	return identifiers, nil
}
