package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/park285/chess-movetable/internal/movedata"
	"github.com/park285/chess-movetable/internal/msgcat"
	"github.com/park285/chess-movetable/internal/obslog"
	"github.com/park285/chess-movetable/internal/redraw"
	"go.uber.org/zap"
)

// DefaultMaxImportBytes bounds a single imported file.
const DefaultMaxImportBytes = 1 << 20

var (
	ErrTooManyFiles = errors.New("exactly one file can be imported at a time")
	ErrTooLarge     = errors.New("file exceeds the import size limit")
)

// ImportError reports a file that could not be imported. The dataset is
// left untouched.
type ImportError struct {
	Name string
	Err  error
}

func (e *ImportError) Error() string { return fmt.Sprintf("import %s: %v", e.Name, e.Err) }

func (e *ImportError) Unwrap() error { return e.Err }

// File is one user-selected file.
type File struct {
	Name string
	Data io.Reader
}

// DatasetFetcher performs the initial network load.
type DatasetFetcher interface {
	Fetch(ctx context.Context) (*movedata.ExperimentalDataset, error)
}

// Sink is the redraw side of a load. redraw.Service implements it.
type Sink interface {
	BeginLoad(ctx context.Context) (redraw.Seq, error)
	Commit(ctx context.Context, seq redraw.Seq, ds *movedata.ExperimentalDataset, from redraw.Origin) (bool, error)
	Fail(ctx context.Context, seq redraw.Seq, cause error) (bool, error)
	Notify(ctx context.Context, msg string) error
}

// Adapter turns fetches and imports into sequenced loads.
type Adapter struct {
	fetcher  DatasetFetcher
	sink     Sink
	msgs     *msgcat.Catalog
	maxBytes int64

	mu            sync.Mutex
	cancelInitial context.CancelFunc
	imported      bool
}

type AdapterOption func(*Adapter)

func WithMessages(c *msgcat.Catalog) AdapterOption {
	return func(a *Adapter) { a.msgs = c }
}

func WithMaxImportBytes(n int64) AdapterOption {
	return func(a *Adapter) {
		if n > 0 {
			a.maxBytes = n
		}
	}
}

func NewAdapter(fetcher DatasetFetcher, sink Sink, opts ...AdapterOption) *Adapter {
	a := &Adapter{fetcher: fetcher, sink: sink, maxBytes: DefaultMaxImportBytes}
	for _, opt := range opts {
		opt(a)
	}
	if a.msgs == nil {
		a.msgs = msgcat.Default()
	}
	return a
}

// Start performs the initial fetch and blocks until it commits, fails or is
// cancelled by a successful import. It does nothing once an import has
// committed.
func (a *Adapter) Start(ctx context.Context) error {
	if a.hasImported() {
		obslog.L().Info("initial_fetch_skipped")
		return nil
	}
	seq, err := a.sink.BeginLoad(ctx)
	if err != nil {
		return err
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancelInitial = cancel
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.cancelInitial = nil
		a.mu.Unlock()
		cancel()
	}()

	obslog.L().Info("initial_fetch_start", zap.Uint64("seq", uint64(seq)))
	ds, err := a.fetcher.Fetch(fetchCtx)
	if err != nil {
		if fetchCtx.Err() != nil && ctx.Err() == nil {
			obslog.L().Info("initial_fetch_superseded", zap.Uint64("seq", uint64(seq)))
			return nil
		}
		if _, ferr := a.sink.Fail(ctx, seq, err); ferr != nil {
			return errors.Join(err, ferr)
		}
		return fmt.Errorf("initial fetch: %w", err)
	}
	ok, err := a.sink.Commit(ctx, seq, ds, redraw.FromFetch)
	if err != nil {
		return fmt.Errorf("commit initial dataset: %w", err)
	}
	if !ok {
		obslog.L().Info("initial_fetch_superseded", zap.Uint64("seq", uint64(seq)))
	}
	return nil
}

// Import replaces the dataset with the contents of one file. Zero files is
// a no-op. A file that cannot be imported yields an *ImportError and leaves
// the dataset untouched; Message renders it for the user.
func (a *Adapter) Import(ctx context.Context, files []File) error {
	switch len(files) {
	case 0:
		obslog.L().Debug("import_empty_selection")
		return nil
	case 1:
	default:
		return a.reject(files[0].Name, ErrTooManyFiles)
	}
	f := files[0]

	seq, err := a.sink.BeginLoad(ctx)
	if err != nil {
		return err
	}
	raw, err := io.ReadAll(io.LimitReader(f.Data, a.maxBytes+1))
	if err != nil {
		return a.reject(f.Name, fmt.Errorf("read: %w", err))
	}
	if int64(len(raw)) > a.maxBytes {
		return a.reject(f.Name, ErrTooLarge)
	}
	ds, err := movedata.Decode(raw)
	if err != nil {
		return a.reject(f.Name, err)
	}

	ok, err := a.sink.Commit(ctx, seq, ds, redraw.FromImport)
	if err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	if ok {
		a.markImported()
		obslog.L().Info("import_committed", zap.String("file", f.Name), zap.Int("moves", len(ds.Moves)))
	}
	return nil
}

// ImportBytes is Import for a single in-memory file.
func (a *Adapter) ImportBytes(ctx context.Context, name string, data []byte) error {
	return a.Import(ctx, []File{{Name: name, Data: bytes.NewReader(data)}})
}

// Message is the alert text for a rejected import.
func (a *Adapter) Message(err *ImportError) string {
	return a.msgs.Text("import.invalid", struct{ Name, Error string }{err.Name, err.Err.Error()})
}

// markImported stops any running initial fetch and keeps later ones from
// starting.
func (a *Adapter) markImported() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.imported = true
	if a.cancelInitial != nil {
		a.cancelInitial()
	}
}

func (a *Adapter) hasImported() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.imported
}

func (a *Adapter) reject(name string, cause error) error {
	obslog.L().Warn("import_rejected", zap.String("file", name), zap.Error(cause))
	return &ImportError{Name: name, Err: cause}
}
