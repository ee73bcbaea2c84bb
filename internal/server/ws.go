package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/park285/chess-movetable/internal/hub"
	"github.com/park285/chess-movetable/internal/obslog"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// ClientMessage is sent by the browser.
type ClientMessage struct {
	Type string `json:"type"`
	Path []int  `json:"path,omitempty"`
}

// handleWS attaches one browser session: a reset frame first, then every
// later frame in order. Focus messages go to the document.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_failed", zap.Error(err))
		return
	}
	id := uuid.NewString()
	log := obslog.L().With(zap.String("session", id))
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before the snapshot so nothing between them is lost.
	sub, err := s.deps.Hub.Subscribe(ctx)
	if err != nil {
		log.Warn("ws_subscribe_failed", zap.Error(err))
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer sub.Close()

	snap, err := s.deps.Service.Snapshot(ctx)
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "snapshot failed")
		return
	}
	if err := write(ctx, conn, snap); err != nil {
		return
	}
	log.Info("ws_session_open", zap.String("replica", snap.Replica), zap.Uint64("seq", snap.Seq))

	go s.readLoop(ctx, cancel, conn, log)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			log.Info("ws_session_closed")
			return
		case f, ok := <-sub.C:
			if !ok {
				log.Warn("ws_session_lagging")
				_ = conn.Close(websocket.StatusTryAgainLater, "resync")
				return
			}
			if !f.Follows(snap) {
				continue
			}
			if err := write(ctx, conn, f); err != nil {
				log.Debug("ws_write_failed", zap.Error(err))
				return
			}
		}
	}
}

func (s *Server) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, log *zap.Logger) {
	defer cancel()
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug("ws_read_failed", zap.Error(err))
			}
			return
		}
		switch msg.Type {
		case "focus":
			if err := s.deps.Service.Focus(ctx, msg.Path); err != nil {
				log.Debug("focus_rejected", zap.Ints("path", msg.Path), zap.Error(err))
			}
		case "blur":
			_ = s.deps.Service.Blur(ctx)
		default:
			log.Debug("ws_unknown_message", zap.String("type", msg.Type))
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, f hub.Frame) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, f)
}
