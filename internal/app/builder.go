// Package app wires configuration into a runnable live view.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/chess-movetable/internal/announce"
	"github.com/park285/chess-movetable/internal/config"
	"github.com/park285/chess-movetable/internal/hub"
	"github.com/park285/chess-movetable/internal/movedata"
	"github.com/park285/chess-movetable/internal/msgcat"
	"github.com/park285/chess-movetable/internal/obslog"
	"github.com/park285/chess-movetable/internal/redraw"
	"github.com/park285/chess-movetable/internal/server"
	"github.com/park285/chess-movetable/internal/source"
	"github.com/park285/chess-movetable/internal/vdom"
	"github.com/park285/chess-movetable/internal/views"
	"go.uber.org/zap"
)

type Deps struct {
	Config     *config.AppConfig
	Msgs       *msgcat.Catalog
	Loop       *redraw.Loop
	Controller *redraw.Controller
	Service    *redraw.Service
	Hub        hub.Broadcaster
	Adapter    *source.Adapter
	Server     *server.Server
}

// New builds every component. Redis is dialled only when configured, and
// frames reach it off the event loop.
func New(ctx context.Context, cfg *config.AppConfig) (*Deps, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	var h hub.Broadcaster
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rh, err := hub.DialRedis(ctx, cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			return nil, fmt.Errorf("init hub: %w", err)
		}
		h = hub.NewAsync(rh, hub.DefaultQueue)
	} else {
		h = hub.NewMemory(hub.DefaultBuffer)
	}
	msgs, ctrl, err := newController(cfg, h)
	if err != nil {
		_ = h.Close()
		return nil, err
	}

	loop := redraw.NewLoop()
	svc := redraw.NewService(loop, ctrl)
	maxBytes := int64(cfg.MaxImportKB) << 10
	fetcher := source.NewFetcher(cfg.ResolvedBaseURL(), cfg.DatasetPath, source.WithTimeout(cfg.FetchTimeout))
	adapter := source.NewAdapter(fetcher, svc, source.WithMessages(msgs), source.WithMaxImportBytes(maxBytes))
	srv := server.New(server.Deps{
		Service:        svc,
		Adapter:        adapter,
		Hub:            h,
		DatasetFile:    cfg.DatasetFile,
		DatasetPath:    cfg.DatasetPath,
		MaxUploadBytes: maxBytes,
	})

	return &Deps{
		Config:     cfg,
		Msgs:       msgs,
		Loop:       loop,
		Controller: ctrl,
		Service:    svc,
		Hub:        h,
		Adapter:    adapter,
		Server:     srv,
	}, nil
}

func newController(cfg *config.AppConfig, h hub.Broadcaster) (*msgcat.Catalog, *redraw.Controller, error) {
	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load messages: %w", err)
	}
	kinds, err := views.Resolve(cfg.Views)
	if err != nil {
		return nil, nil, err
	}
	mode, err := announce.ParseMode(cfg.AnnounceMode)
	if err != nil {
		return nil, nil, err
	}
	doc, err := vdom.NewDocument(vdom.Options{
		Title:   msgs.Text("page.title", nil),
		Scripts: []string{server.ClientScript},
	})
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := redraw.New(redraw.Options{Doc: doc, Views: kinds, Msgs: msgs, AnnounceMode: mode, Hub: h})
	if err != nil {
		return nil, nil, err
	}
	return msgs, ctrl, nil
}

// Run starts the loop, the initial fetch, the optional file watch and the
// HTTP server, and returns when ctx is cancelled or the server fails.
func (d *Deps) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() { _ = d.Hub.Close() }()

	go d.Loop.Run(ctx)
	if err := d.Service.Redraw(ctx); err != nil {
		return err
	}

	go func() {
		if err := d.Adapter.Start(ctx); err != nil && ctx.Err() == nil {
			obslog.L().Warn("initial_fetch_failed", zap.Error(err))
		}
	}()
	if path := strings.TrimSpace(d.Config.WatchFile); path != "" {
		go func() {
			if err := d.Adapter.Watch(ctx, path); err != nil {
				obslog.L().Error("watch_failed", zap.String("path", path), zap.Error(err))
			}
		}()
	}
	return d.Server.Run(ctx, d.Config.ListenAddr)
}

// RenderStatic renders a dataset into a complete page without starting
// anything.
func RenderStatic(cfg *config.AppConfig, ds *movedata.ExperimentalDataset) (string, error) {
	_, ctrl, err := newController(cfg, nil)
	if err != nil {
		return "", err
	}
	if _, err := ctrl.Commit(ctrl.BeginLoad(), ds, redraw.FromFetch); err != nil {
		return "", err
	}
	return ctrl.Document().String(), nil
}
