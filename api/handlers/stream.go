package handlers

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/BaSui01/genflow/orchestrate"
)

// StreamHandler forwards orchestrator progress events to a WebSocket
// client. One stream consumes the event channel, matching the single
// editor panel the engine serves.
type StreamHandler struct {
	orc    *orchestrate.Orchestrator
	logger *zap.Logger

	// AcceptOptions lets tests and embedded deployments relax origin
	// checking. Nil uses the websocket defaults.
	AcceptOptions *websocket.AcceptOptions
}

// NewStreamHandler creates the progress stream handler.
func NewStreamHandler(orc *orchestrate.Orchestrator, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{
		orc:    orc,
		logger: logger.With(zap.String("handler", "stream")),
	}
}

// HandleStream upgrades GET /v1/generations/stream and writes progress
// events as JSON text frames until the client goes away.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, h.AcceptOptions)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	h.logger.Info("progress stream opened", zap.String("remote", r.RemoteAddr))

	// reads only surface client disconnects; the stream is one-way
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return
		case <-readDone:
			h.logger.Info("progress stream closed by client")
			return
		case ev := <-h.orc.Events():
			if err := h.writeEvent(ctx, conn, ev); err != nil {
				h.logger.Debug("progress stream write failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *StreamHandler) writeEvent(ctx context.Context, conn *websocket.Conn, ev orchestrate.ProgressEvent) error {
	return wsjson.Write(ctx, conn, ev)
}
