// internal/github/client.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	apperrors "github-repo-tracker/internal/errors"
	"github-repo-tracker/internal/model"
)

const (
	// Transient failures are retried this many times in total, each
	// attempt with its own timeout.
	maxRetries     = 3
	baseBackoff    = 500 * time.Millisecond
	attemptTimeout = 30 * time.Second

	perPage = 100 // GitHub's maximum page size
)

// Client is a wrapper around the go-github client. It classifies upstream
// failures, retries transient ones, and shares one rate-limit budget
// across all concurrent callers.
type Client struct {
	gh       *github.Client
	logger   *slog.Logger
	budget   *budget
	maxWait  time.Duration
	maxPages int
}

// NewClient creates and configures a new Client instance. The provided
// token is used to create an authenticated http.Client. maxWait bounds how
// long a call may suspend on an exhausted rate limit; maxPages caps commit
// pagination so one sync pass stays bounded.
func NewClient(token string, logger *slog.Logger, maxWait time.Duration, maxPages int) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		gh:       github.NewClient(tc),
		logger:   logger,
		budget:   newBudget(),
		maxWait:  maxWait,
		maxPages: maxPages,
	}
}

// FetchRepository fetches repository details and translates them to our
// internal model. NotFound and Forbidden come back as their classified
// sentinels and are never retried.
func (c *Client) FetchRepository(ctx context.Context, owner, name string) (*model.Repository, error) {
	var repo *github.Repository
	err := c.withRetry(ctx, func(actx context.Context) (*github.Response, error) {
		r, resp, err := c.gh.Repositories.Get(actx, owner, name)
		if err == nil {
			repo = r
		}
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return toRepository(repo), nil
}

// FetchCommits fetches the commits of a repository inside [since, until],
// following pagination until the upstream reports no further pages or the
// configured page cap is reached.
func (c *Client) FetchCommits(ctx context.Context, owner, name string, since, until time.Time) ([]model.Commit, error) {
	var all []model.Commit

	opts := &github.CommitsListOptions{
		Since: since,
		Until: until,
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	for page := 0; ; page++ {
		if page >= c.maxPages {
			c.logger.Warn("commit pagination capped",
				"owner", owner, "repo", name, "max_pages", c.maxPages)
			break
		}

		var (
			commits  []*github.RepositoryCommit
			nextPage int
		)
		err := c.withRetry(ctx, func(actx context.Context) (*github.Response, error) {
			cs, resp, err := c.gh.Repositories.ListCommits(actx, owner, name, opts)
			if err == nil {
				commits = cs
				nextPage = resp.NextPage
			}
			return resp, err
		})
		if err != nil {
			return nil, err
		}

		for _, commit := range commits {
			all = append(all, toCommit(commit))
		}

		if nextPage == 0 {
			break
		}
		opts.Page = nextPage
	}

	return all, nil
}

// OverrideBaseURL points the client at a different API root. Test hook
// for targeting a local stub server.
func (c *Client) OverrideBaseURL(url string) error {
	ghc, err := c.gh.WithEnterpriseURLs(url, url)
	if err != nil {
		return err
	}
	c.gh = ghc
	return nil
}

// withRetry runs one API call with the shared budget, bounded retries for
// transient failures, and immediate classification of terminal ones.
func (c *Client) withRetry(ctx context.Context, call func(context.Context) (*github.Response, error)) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := c.budget.wait(ctx, c.maxWait); err != nil {
			return err
		}

		actx, cancel := context.WithTimeout(ctx, attemptTimeout)
		resp, err := call(actx)
		cancel()
		c.budget.observe(gitHubResponse(resp))
		if err == nil {
			return nil
		}
		lastErr = err

		// A rate-limit rejection with a future reset is not one of the
		// bounded attempts: record the exhaustion and let the budget decide
		// whether to suspend or fail fast. A reset at or before now gives
		// the budget nothing to wait on, so that case falls through to the
		// bounded backoff below instead of an immediate zero-delay probe.
		var rle *github.RateLimitError
		if errors.As(err, &rle) && time.Until(rle.Rate.Reset.Time) > 0 {
			c.budget.exhaust(rle.Rate.Reset.Time)
			attempt--
			continue
		}
		var arle *github.AbuseRateLimitError
		if errors.As(err, &arle) && arle.RetryAfter != nil && *arle.RetryAfter > 0 {
			c.budget.exhaust(time.Now().Add(*arle.RetryAfter))
			attempt--
			continue
		}

		if terminal := classify(err); terminal != nil {
			return terminal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt < maxRetries-1 {
			backoff := baseBackoff << attempt
			c.logger.Debug("retrying github call", "attempt", attempt+1, "backoff", backoff, "error", err)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}

// classify maps terminal upstream rejections to their sentinels. A nil
// return means the error is transient and may be retried.
func classify(err error) error {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return nil
	}
	switch ghErr.Response.StatusCode {
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return apperrors.ErrForbidden
	}
	return nil
}

// gitHubResponse guards against the typed-nil *github.Response that
// go-github returns alongside some errors.
func gitHubResponse(resp *github.Response) *github.Response {
	if resp == nil || resp.Response == nil {
		return nil
	}
	return resp
}

// toRepository translates a github.Repository object to our internal model.
func toRepository(r *github.Repository) *model.Repository {
	return &model.Repository{
		Owner:           r.GetOwner().GetLogin(),
		Name:            r.GetName(),
		StarsCount:      r.GetStargazersCount(),
		ForksCount:      r.GetForksCount(),
		WatchersCount:   r.GetWatchersCount(),
		OpenIssuesCount: r.GetOpenIssuesCount(),
		Language:        r.Language,
	}
}

// toCommit translates a github.RepositoryCommit object to our internal model.
func toCommit(c *github.RepositoryCommit) model.Commit {
	author := c.GetCommit().GetAuthor().GetName()
	if author == "" {
		author = c.GetAuthor().GetLogin()
	}
	if author == "" {
		author = "Unknown"
	}
	return model.Commit{
		SHA:         c.GetSHA(),
		Author:      author,
		CommittedAt: c.GetCommit().GetAuthor().GetDate().Time,
	}
}
