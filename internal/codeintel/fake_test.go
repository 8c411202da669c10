package codeintel

import (
	"context"
	"errors"
	"sync"
)

type fakeService struct {
	mu        sync.Mutex
	seq       []*Index
	fetchErr  error
	errAt     int
	fetches   int
	deleted   []string
	deleteErr error
}

func (f *fakeService) Index(ctx context.Context, id string) (*Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.fetches
	f.fetches++
	if f.fetchErr != nil && n == f.errAt {
		return nil, f.fetchErr
	}
	if len(f.seq) == 0 {
		return nil, ErrNotFound
	}
	if n >= len(f.seq) {
		n = len(f.seq) - 1
	}
	return f.seq[n], nil
}

func (f *fakeService) DeleteIndex(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeService) Indexes(ctx context.Context, opts ListOptions) (*IndexList, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeService) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func queued(pos int) *Index {
	return &Index{ID: "idx1", InputCommit: "deadbeefcafe", State: StateQueued, PlaceInQueue: &pos}
}

func withState(st State) *Index {
	return &Index{ID: "idx1", InputCommit: "deadbeefcafe", State: st}
}

func failed(msg string) *Index {
	return &Index{ID: "idx1", InputCommit: "deadbeefcafe", State: StateErrored, Failure: &msg}
}
