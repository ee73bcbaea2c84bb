package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/chess-movetable/internal/movedata"
	"github.com/park285/chess-movetable/internal/redraw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{"formatVersion":"1","moves":[
 {"turn":1,"ply":1,"color":"white","notation":"1e4","advantageLabel":"+0.2","movetime":"3"},
 {"turn":1,"ply":2,"color":"black","notation":"e5","advantageLabel":"+0.1","movetime":4}
],"moveDurationsCentiseconds":[300,400]}`

type commit struct {
	seq   redraw.Seq
	moves int
}

// fakeSink applies the same sequencing rules as the controller.
type fakeSink struct {
	mu         sync.Mutex
	next       redraw.Seq
	committed  redraw.Seq
	imported   bool
	commits    []commit
	fails      []redraw.Seq
	notes      []string
	committedC chan struct{}
}

func newFakeSink() *fakeSink { return &fakeSink{committedC: make(chan struct{}, 16)} }

func (s *fakeSink) BeginLoad(context.Context) (redraw.Seq, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next, nil
}

func (s *fakeSink) Commit(_ context.Context, seq redraw.Seq, ds *movedata.ExperimentalDataset, from redraw.Origin) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.committed || (from == redraw.FromFetch && s.imported) {
		return false, nil
	}
	s.committed = seq
	s.imported = s.imported || from == redraw.FromImport
	s.commits = append(s.commits, commit{seq: seq, moves: len(ds.Moves)})
	s.committedC <- struct{}{}
	return true, nil
}

func (s *fakeSink) Fail(_ context.Context, seq redraw.Seq, _ error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails = append(s.fails, seq)
	return s.committed == 0, nil
}

func (s *fakeSink) Notify(_ context.Context, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, msg)
	return nil
}

func (s *fakeSink) snapshot() ([]commit, []redraw.Seq, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]commit(nil), s.commits...), append([]redraw.Seq(nil), s.fails...), append([]string(nil), s.notes...)
}

func TestFetcherDecodesDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games/data.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(validBody))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL+"/games/", "data.json", WithTimeout(2*time.Second))
	assert.Equal(t, srv.URL+"/games/data.json", f.URL())
	ds, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, ds.Moves, 2)
	assert.Equal(t, movedata.MoveTime("4"), ds.Moves[1].MoveTime)
}

func TestFetcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.json":
			http.NotFound(w, r)
		case "/bare.json":
			_, _ = w.Write([]byte(`[]`))
		default:
			_, _ = w.Write([]byte(`{"moves":`))
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	_, err := NewFetcher(srv.URL, "missing.json").Fetch(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")

	_, err = NewFetcher(srv.URL, "bare.json").Fetch(ctx)
	assert.ErrorIs(t, err, movedata.ErrBareArray)

	_, err = NewFetcher(srv.URL, "broken.json").Fetch(ctx)
	assert.ErrorIs(t, err, movedata.ErrMalformedJSON)
}

func TestFetcherCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, err := NewFetcher(srv.URL, "data.json").Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestImportEmptySelectionIsNoop(t *testing.T) {
	sink := newFakeSink()
	a := NewAdapter(nil, sink)
	require.NoError(t, a.Import(context.Background(), nil))
	commits, fails, notes := sink.snapshot()
	assert.Empty(t, commits)
	assert.Empty(t, fails)
	assert.Empty(t, notes)
	assert.Zero(t, sink.next)
}

func TestImportInvalidLeavesDataset(t *testing.T) {
	sink := newFakeSink()
	a := NewAdapter(nil, sink)
	ctx := context.Background()
	require.NoError(t, a.ImportBytes(ctx, "good.json", []byte(validBody)))

	err := a.ImportBytes(ctx, "bad.json", []byte(`[{"turn":1}]`))
	var ierr *ImportError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "bad.json", ierr.Name)
	assert.ErrorIs(t, err, movedata.ErrBareArray)

	commits, _, notes := sink.snapshot()
	assert.Len(t, commits, 1)
	assert.Empty(t, notes, "the caller reports import errors")
	msg := a.Message(ierr)
	assert.True(t, strings.HasPrefix(msg, "Could not import bad.json: "), msg)
}

func TestImportRejectsMultipleAndOversized(t *testing.T) {
	sink := newFakeSink()
	a := NewAdapter(nil, sink, WithMaxImportBytes(16))
	ctx := context.Background()

	err := a.Import(ctx, []File{{Name: "a.json", Data: strings.NewReader("{}")}, {Name: "b.json", Data: strings.NewReader("{}")}})
	assert.ErrorIs(t, err, ErrTooManyFiles)

	err = a.ImportBytes(ctx, "big.json", []byte(validBody))
	assert.ErrorIs(t, err, ErrTooLarge)

	commits, _, notes := sink.snapshot()
	assert.Empty(t, commits)
	assert.Empty(t, notes)
}

func TestStartCommitsAndFails(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validBody))
	}))
	defer ok.Close()

	sink := newFakeSink()
	require.NoError(t, NewAdapter(NewFetcher(ok.URL, "data.json"), sink).Start(context.Background()))
	commits, _, _ := sink.snapshot()
	assert.Equal(t, []commit{{seq: 1, moves: 2}}, commits)

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	sink = newFakeSink()
	err := NewAdapter(NewFetcher(down.URL, "data.json"), sink).Start(context.Background())
	require.Error(t, err)
	_, fails, _ := sink.snapshot()
	assert.Equal(t, []redraw.Seq{1}, fails)
}

func TestImportCancelsInitialFetch(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(validBody))
	}))
	defer srv.Close()
	defer close(release)

	sink := newFakeSink()
	a := NewAdapter(NewFetcher(srv.URL, "data.json"), sink)
	started := make(chan error, 1)
	go func() { started <- a.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.next == 1
	}, 2*time.Second, 10*time.Millisecond)

	one := `{"moves":[{"turn":1,"ply":1,"color":"white","notation":"e4","advantageLabel":"0","movetime":"1"}]}`
	require.NoError(t, a.ImportBytes(context.Background(), "mine.json", []byte(one)))

	select {
	case err := <-started:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("initial fetch not cancelled")
	}
	commits, fails, _ := sink.snapshot()
	assert.Equal(t, []commit{{seq: 2, moves: 1}}, commits)
	assert.Empty(t, fails)
}

func TestStartAfterImportKeepsImport(t *testing.T) {
	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		_, _ = w.Write([]byte(validBody))
	}))
	defer srv.Close()

	sink := newFakeSink()
	a := NewAdapter(NewFetcher(srv.URL, "data.json"), sink)
	ctx := context.Background()
	one := `{"moves":[{"turn":1,"ply":1,"color":"white","notation":"e4","advantageLabel":"0","movetime":"1"}]}`
	require.NoError(t, a.ImportBytes(ctx, "mine.json", []byte(one)))
	require.NoError(t, a.Start(ctx))

	commits, fails, _ := sink.snapshot()
	assert.Equal(t, []commit{{seq: 1, moves: 1}}, commits)
	assert.Empty(t, fails)
	mu.Lock()
	assert.Zero(t, hits, "fetch started after an import")
	mu.Unlock()
}

func TestFetchFinishingAfterImportIsDiscarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validBody))
	}))
	defer srv.Close()

	// The import is stamped first but commits while the fetch is in flight.
	sink := newFakeSink()
	ctx := context.Background()
	imp, err := sink.BeginLoad(ctx)
	require.NoError(t, err)
	a := NewAdapter(NewFetcher(srv.URL, "data.json"), sink)
	ok, err := sink.Commit(ctx, imp, &movedata.ExperimentalDataset{Moves: make([]movedata.MoveRecord, 1)}, redraw.FromImport)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, a.Start(ctx))

	commits, _, _ := sink.snapshot()
	assert.Equal(t, []commit{{seq: 1, moves: 1}}, commits)
}

func TestWatchNotifiesRejectedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	sink := newFakeSink()
	a := NewAdapter(nil, sink)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, path) }()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()
	for {
		_, _, notes := sink.snapshot()
		if len(notes) > 0 {
			assert.True(t, strings.HasPrefix(notes[0], "Could not import data.json: "), notes[0])
			break
		}
		select {
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))
		case <-deadline:
			t.Fatalf("rejected file not reported")
		}
	}
	cancel()
	assert.NoError(t, <-done)
	commits, _, _ := sink.snapshot()
	assert.Empty(t, commits)
}

func TestWatchReimports(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(validBody), 0o644))

	sink := newFakeSink()
	a := NewAdapter(nil, sink)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, path) }()

	// Rewrite until the watcher is registered and picks a write up.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()
loop:
	for {
		select {
		case <-sink.committedC:
			break loop
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, []byte(validBody), 0o644))
		case <-deadline:
			t.Fatalf("no re-import after write")
		}
	}
	cancel()
	assert.NoError(t, <-done)
}

func TestImportErrorUnwrap(t *testing.T) {
	err := &ImportError{Name: "x.json", Err: ErrTooLarge}
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.Equal(t, "import x.json: file exceeds the import size limit", err.Error())
}
