package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/srcview/internal/codeintel"
	"github.com/pders01/srcview/internal/search"
	"github.com/pders01/srcview/internal/searchparams"
	"github.com/pders01/srcview/internal/storage"
	"github.com/pders01/srcview/internal/tui"
)

type fakeService struct {
	mu        sync.Mutex
	seq       []*codeintel.Index
	fetches   int
	deleted   []string
	deleteErr error
	list      *codeintel.IndexList
}

func (f *fakeService) Index(ctx context.Context, id string) (*codeintel.Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.fetches
	f.fetches++
	if len(f.seq) == 0 {
		return nil, codeintel.ErrNotFound
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

func (f *fakeService) Indexes(ctx context.Context, opts codeintel.ListOptions) (*codeintel.IndexList, error) {
	if f.list == nil {
		return &codeintel.IndexList{}, nil
	}
	return f.list, nil
}

type fakeOpener struct {
	opened []string
	err    error
}

func (o *fakeOpener) Open(target string) error {
	o.opened = append(o.opened, target)
	return o.err
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testIndex(st codeintel.State) *codeintel.Index {
	pos := 3
	return &codeintel.Index{
		ID:           "SW5kZXg6MQ==",
		InputCommit:  "deadbeefcafebabe",
		State:        st,
		QueuedAt:     time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC),
		PlaceInQueue: &pos,
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-outC
}

func TestVersionCommand(t *testing.T) {
	out := captureStdout(t, func() { versionCmd.Run(nil, nil) })

	// Version is "dev" by default in tests
	if !strings.Contains(out, "srcview dev") {
		t.Errorf("Expected version output to contain 'srcview dev', got: %s", out)
	}
	if !strings.Contains(out, "Code search & intelligence client") {
		t.Errorf("Expected version output to contain the tagline, got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/srcview") {
		t.Errorf("Expected version output to contain 'github.com/pders01/srcview', got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, ".config", "srcview", "config.toml")
	t.Setenv("HOME", tmpDir)

	out := captureStdout(t, func() { configGenCmd.Run(nil, nil) })

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("Config file was not created at %s", configFile)
	}
	if !strings.Contains(out, "Generated default configuration at:") {
		t.Errorf("Expected output to contain 'Generated default configuration at:', got: %s", out)
	}
}

func TestExpandTilde(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"expand tilde path", "~/test.db", filepath.Join(home, "test.db")},
		{"absolute path unchanged", "/tmp/test.db", "/tmp/test.db"},
		{"relative path unchanged", "test.db", "test.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandTilde(tt.input))
		})
	}
}

func TestRunSearch(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Prefs().Set(searchparams.KeyRepoScope, "all"))
	require.NoError(t, store.Prefs().Set(searchparams.KeyMatchCase, "true"))

	baseline := searchparams.FromStore(store.Prefs())
	baseline.Files = "*.go"

	var out bytes.Buffer
	err := runSearch(&out, searchRun{store: store, endpoint: "https://sg.example.com/"}, baseline, "foo bar", false)
	require.NoError(t, err)

	assert.Equal(t, "https://sg.example.com/search?q=foo%20bar&repos=all&files=*.go&matchCase=true\n", out.String())

	stored := searchparams.FromStore(store.Prefs())
	assert.Equal(t, "foo bar", stored.Query)
	assert.Equal(t, "*.go", stored.Files)

	recs, err := store.RecentSearches(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "foo bar", recs[0].Query)
}

func TestRunSearchOpen(t *testing.T) {
	store := newTestStore(t)
	opener := &fakeOpener{}

	var out bytes.Buffer
	err := runSearch(&out, searchRun{store: store, opener: opener}, searchparams.Defaults(), "needle", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"/search?q=needle&repos=active"}, opener.opened)
	assert.Contains(t, out.String(), tui.MsgOpened("/search?q=needle&repos=active"))

	recs, err := store.RecentSearches(0)
	require.NoError(t, err)
	assert.Empty(t, recs, "opening elsewhere does not record a visit")
}

func TestRunSearchOpenFailure(t *testing.T) {
	opener := &fakeOpener{err: errors.New("no display")}

	err := runSearch(io.Discard, searchRun{store: newTestStore(t), opener: opener}, searchparams.Defaults(), "needle", true)
	assert.EqualError(t, err, "no display")
}

func TestRunSearchEmptyQuery(t *testing.T) {
	err := runSearch(io.Discard, searchRun{store: newTestStore(t)}, searchparams.Defaults(), "  ", false)
	assert.Error(t, err)
}

func TestRunIndexShow(t *testing.T) {
	svc := &fakeService{seq: []*codeintel.Index{testIndex(codeintel.StateQueued)}}

	var out bytes.Buffer
	err := runIndexShow(context.Background(), &out, svc, "https://sg.example.com", "SW5kZXg6MQ==", "github.com/acme/api")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Auto-index record for commit deadbee rooted at /")
	assert.Contains(t, out.String(), tui.MsgIndexQueued(3))
	assert.Contains(t, out.String(), "Repository")
}

func TestRunIndexShowNotFound(t *testing.T) {
	err := runIndexShow(context.Background(), io.Discard, &fakeService{}, "", "SW5kZXg6MQ==", "")
	assert.ErrorIs(t, err, codeintel.ErrNotFound)
}

func TestRunIndexWatch(t *testing.T) {
	svc := &fakeService{seq: []*codeintel.Index{
		testIndex(codeintel.StateQueued),
		testIndex(codeintel.StateProcessing),
		testIndex(codeintel.StateProcessing),
		testIndex(codeintel.StateCompleted),
	}}

	var out bytes.Buffer
	err := runIndexWatch(context.Background(), &out, svc, time.Millisecond, "SW5kZXg6MQ==")
	require.NoError(t, err)

	assert.Equal(t, []string{
		tui.MsgIndexQueued(3),
		tui.MsgIndexProcessing,
		tui.MsgIndexCompleted,
	}, strings.Split(strings.TrimSpace(out.String()), "\n"))
}

func TestRunIndexDelete(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		yes     bool
		deleted bool
		want    string
	}{
		{name: "confirmed", input: "y\n", deleted: true, want: tui.MsgIndexDeleted},
		{name: "declined", input: "n\n", want: "Aborted"},
		{name: "empty answer", input: "\n", want: "Aborted"},
		{name: "skip prompt", yes: true, deleted: true, want: tui.MsgIndexDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{seq: []*codeintel.Index{testIndex(codeintel.StateCompleted)}}

			var out bytes.Buffer
			err := runIndexDelete(context.Background(), &out, strings.NewReader(tt.input), svc, "SW5kZXg6MQ==", tt.yes)
			require.NoError(t, err)

			assert.Contains(t, out.String(), tt.want)
			if tt.deleted {
				assert.Equal(t, []string{"SW5kZXg6MQ=="}, svc.deleted)
				assert.Contains(t, out.String(), tui.MsgDeleting)
			} else {
				assert.Empty(t, svc.deleted)
				assert.NotContains(t, out.String(), tui.MsgDeleting)
			}
			if !tt.yes {
				assert.Contains(t, out.String(), "Delete auto-index record for commit deadbee? [y/N]")
			}
		})
	}
}

func TestRunIndexDeleteFailure(t *testing.T) {
	svc := &fakeService{
		seq:       []*codeintel.Index{testIndex(codeintel.StateCompleted)},
		deleteErr: errors.New("permission denied"),
	}

	err := runIndexDelete(context.Background(), io.Discard, nil, svc, "SW5kZXg6MQ==", true)
	assert.EqualError(t, err, "permission denied")
}

func TestRunIndexes(t *testing.T) {
	idx := testIndex(codeintel.StateErrored)
	svc := &fakeService{list: &codeintel.IndexList{
		Indexes: []codeintel.Index{*idx},
		Counts: map[codeintel.State]int{
			codeintel.StateQueued:     2,
			codeintel.StateProcessing: 1,
			codeintel.StateErrored:    1,
		},
	}}

	var out bytes.Buffer
	require.NoError(t, runIndexes(context.Background(), &out, svc, codeintel.ListOptions{}))

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "◷ 2 queued indexes · ⟳ 1 processing index · ✓ 0 completed indexes · ✗ 1 failed index", lines[0])
	assert.Contains(t, out.String(), "SW5kZXg6MQ==")
	assert.Contains(t, out.String(), "errored")
	assert.Contains(t, out.String(), "unknown")
}

func TestRunIndexesWithoutFailures(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runIndexes(context.Background(), &out, &fakeService{}, codeintel.ListOptions{}))

	assert.Equal(t, "◷ 0 queued indexes · ⟳ 0 processing indexes · ✓ 0 completed indexes\n", out.String())
}

func TestRunHistory(t *testing.T) {
	store := newTestStore(t)

	var out bytes.Buffer
	require.NoError(t, runHistory(&out, store, nil, "", 10))
	assert.Equal(t, tui.MsgNoHistory+"\n", out.String())

	eng, err := search.NewBleveEngine(store, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	_, err = search.Record(store, eng, "/search?q=NewWatch&repos=active")
	require.NoError(t, err)
	_, err = search.Record(store, eng, "/search?q=DeleteIndex&repos=active")
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, runHistory(&out, store, eng, "", 10))
	assert.Contains(t, out.String(), "/search?q=NewWatch&repos=active")
	assert.Contains(t, out.String(), "/search?q=DeleteIndex&repos=active")

	out.Reset()
	require.NoError(t, runHistory(&out, store, eng, "NewWatch", 10))
	assert.Contains(t, out.String(), "/search?q=NewWatch&repos=active")
	assert.NotContains(t, out.String(), "DeleteIndex")
}
