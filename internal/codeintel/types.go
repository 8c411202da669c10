// Package codeintel models auto-indexing jobs of a code intelligence
// service and the client-side logic around them: fetching and deleting
// records, watching a job until it settles, and the delete confirmation flow.
package codeintel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when the service has no record for an ID.
var ErrNotFound = errors.New("index record not found")

// State is the lifecycle position of an index job.
type State int

const (
	StateQueued State = iota
	StateProcessing
	StateCompleted
	StateErrored
)

// States lists every state in lifecycle order.
var States = []State{StateQueued, StateProcessing, StateCompleted, StateErrored}

func (s State) String() string {
	switch s {
	case StateQueued:
		return "QUEUED"
	case StateProcessing:
		return "PROCESSING"
	case StateCompleted:
		return "COMPLETED"
	case StateErrored:
		return "ERRORED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether no further transition is expected.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateErrored
}

// ParseState accepts the API's state names in any case.
func ParseState(s string) (State, error) {
	for _, st := range States {
		if strings.EqualFold(s, st.String()) {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown index state %q", s)
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	st, err := ParseState(name)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Repository is the repository an index belongs to.
type Repository struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Commit is the resolved commit an index was built from.
type Commit struct {
	OID            string     `json:"oid"`
	AbbreviatedOID string     `json:"abbreviatedOID"`
	URL            string     `json:"url"`
	Repository     Repository `json:"repository"`
}

// ProjectRoot links an index to the tree it was built from. It is absent
// when the repository or commit can no longer be resolved.
type ProjectRoot struct {
	Path   string `json:"path"`
	Commit Commit `json:"commit"`
}

// Index is the service's record of one auto-indexing job. The service owns
// it; clients only hold read-only snapshots.
type Index struct {
	ID           string       `json:"id"`
	InputCommit  string       `json:"inputCommit"`
	State        State        `json:"state"`
	QueuedAt     time.Time    `json:"queuedAt"`
	StartedAt    *time.Time   `json:"startedAt"`
	FinishedAt   *time.Time   `json:"finishedAt"`
	PlaceInQueue *int         `json:"placeInQueue"`
	Failure      *string      `json:"failure"`
	ProjectRoot  *ProjectRoot `json:"projectRoot"`
}

// ShortCommit returns the first seven characters of commit.
func ShortCommit(commit string) string {
	if len(commit) <= 7 {
		return commit
	}
	return commit[:7]
}

// AbbreviatedCommit prefers the resolved commit's abbreviation and falls
// back to the input commit.
func (i *Index) AbbreviatedCommit() string {
	if i.ProjectRoot != nil && i.ProjectRoot.Commit.AbbreviatedOID != "" {
		return i.ProjectRoot.Commit.AbbreviatedOID
	}
	return ShortCommit(i.InputCommit)
}

// RootPath is the directory the index is rooted at, "/" when unknown.
func (i *Index) RootPath() string {
	if i.ProjectRoot != nil && i.ProjectRoot.Path != "" {
		return i.ProjectRoot.Path
	}
	return "/"
}

// RepositoryName resolves the repository name from the project root, then
// fallback, then "unknown".
func (i *Index) RepositoryName(fallback string) string {
	if i.ProjectRoot != nil {
		return i.ProjectRoot.Commit.Repository.Name
	}
	if fallback != "" {
		return fallback
	}
	return "unknown"
}

// FailureMessage returns the failure text, "" if none.
func (i *Index) FailureMessage() string {
	if i.Failure == nil {
		return ""
	}
	return *i.Failure
}

// QueuePosition returns the place in queue, 0 if the service did not report one.
func (i *Index) QueuePosition() int {
	if i.PlaceInQueue == nil {
		return 0
	}
	return *i.PlaceInQueue
}

// ListOptions filters an index listing.
type ListOptions struct {
	State *State
	Query string
	First int
}

// IndexList is one page of indexes plus per-state totals across all pages.
type IndexList struct {
	Indexes    []Index
	TotalCount int
	Counts     map[State]int
}

// Count returns the total for st.
func (l *IndexList) Count(st State) int {
	if l == nil {
		return 0
	}
	return l.Counts[st]
}

// Service is the remote collaborator that owns index records.
type Service interface {
	Index(ctx context.Context, id string) (*Index, error)
	DeleteIndex(ctx context.Context, id string) error
	Indexes(ctx context.Context, opts ListOptions) (*IndexList, error)
}
