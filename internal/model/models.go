package model

import "time"

// Repository holds the tracked metadata of a single GitHub repository.
// A row exists only after at least one successful sync; the counts always
// reflect the most recent successful fetch.
type Repository struct {
	ID              int64     `json:"-"`
	Owner           string    `json:"owner"`
	Name            string    `json:"name"`
	StarsCount      int       `json:"stars"`
	ForksCount      int       `json:"forks"`
	WatchersCount   int       `json:"watchers"`
	OpenIssuesCount int       `json:"open_issues"`
	Language        *string   `json:"language,omitempty"`
	LastSyncedAt    time.Time `json:"last_synced_at"`
}

// Commit is one observed commit of a repository. Rows are append-only:
// once stored, a commit is never modified or re-inserted.
type Commit struct {
	SHA          string    `json:"sha"`
	RepositoryID int64     `json:"-"`
	Author       string    `json:"author"`
	CommittedAt  time.Time `json:"committed_at"`
}

// SortField enumerates the columns top-repository queries may rank by.
type SortField string

const (
	SortByStars      SortField = "stars"
	SortByWatchers   SortField = "watchers"
	SortByForks      SortField = "forks"
	SortByOpenIssues SortField = "open_issues"
)

// ParseSortField validates a raw sort_by value. An empty value defaults
// to stars.
func ParseSortField(s string) (SortField, bool) {
	switch SortField(s) {
	case "":
		return SortByStars, true
	case SortByStars, SortByWatchers, SortByForks, SortByOpenIssues:
		return SortField(s), true
	}
	return "", false
}

// SortOrder is the requested ranking direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

// ParseSortOrder validates a raw order value, accepting the lowercase
// spellings too. An empty value defaults to DESC.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch s {
	case "":
		return OrderDesc, true
	case "ASC", "asc":
		return OrderAsc, true
	case "DESC", "desc":
		return OrderDesc, true
	}
	return "", false
}
