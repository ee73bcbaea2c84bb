// Package server exposes the live document over HTTP and WebSocket.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/park285/chess-movetable/internal/hub"
	"github.com/park285/chess-movetable/internal/obslog"
	"github.com/park285/chess-movetable/internal/redraw"
	"github.com/park285/chess-movetable/internal/source"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ClientScript is the path the page loads its script from.
const ClientScript = "/static/client.js"

//go:embed static/client.js
var staticFS embed.FS

// Deps are the collaborators a server needs.
type Deps struct {
	Service *redraw.Service
	Adapter *source.Adapter
	Hub     hub.Broadcaster
	// DatasetFile, when set, is served at DatasetPath so the initial fetch
	// can target this process.
	DatasetFile    string
	DatasetPath    string
	MaxUploadBytes int64
}

type Server struct {
	deps Deps
}

func New(deps Deps) *Server {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = source.DefaultMaxImportBytes
	}
	return &Server{deps: deps}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)

	r.Get("/", s.handlePage)
	r.Get(ClientScript, s.handleScript)
	r.Post("/import", s.handleImport)
	r.Get("/ws", s.handleWS)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.deps.DatasetFile != "" {
		path := "/" + strings.TrimLeft(s.deps.DatasetPath, "/")
		r.Get(path, func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, req, s.deps.DatasetFile)
		})
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		obslog.L().Info("http_listen", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.deps.Service.Page(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleScript(w http.ResponseWriter, _ *http.Request) {
	b, err := staticFS.ReadFile("static/client.js")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = w.Write(b)
}

// uploadName stands in for the file name when the form cannot be read.
const uploadName = "upload"

// handleImport answers only the uploader. A rejected file gets a JSON body
// whose error is the alert text.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	limit := s.deps.MaxUploadBytes + 64<<10
	if r.ContentLength > limit {
		s.rejectImport(w, &source.ImportError{Name: uploadName, Err: source.ErrTooLarge})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(s.deps.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			err = source.ErrTooLarge
		}
		s.rejectImport(w, &source.ImportError{Name: uploadName, Err: err})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["file"]
	files := make([]source.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.rejectImport(w, &source.ImportError{Name: fh.Filename, Err: err})
			return
		}
		defer f.Close()
		files = append(files, source.File{Name: fh.Filename, Data: f})
	}

	err := s.deps.Adapter.Import(r.Context(), files)
	var ierr *source.ImportError
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.As(err, &ierr):
		s.rejectImport(w, ierr)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) rejectImport(w http.ResponseWriter, ierr *source.ImportError) {
	status := http.StatusUnprocessableEntity
	if errors.Is(ierr, source.ErrTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	obslog.L().Info("import_response", zap.String("file", ierr.Name), zap.Int("status", status), zap.Error(ierr.Err))
	writeError(w, status, errors.New(s.deps.Adapter.Message(ierr)))
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		obslog.L().Debug("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
