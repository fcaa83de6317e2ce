package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/okravchenko/tidechat-server/internal/auth"
	"github.com/okravchenko/tidechat-server/internal/config"
	"github.com/okravchenko/tidechat-server/internal/core"
	"github.com/okravchenko/tidechat-server/internal/proto"
	"github.com/rs/zerolog"
)

// WSHandler upgrades HTTP connections, authenticates them, and bridges them
// to a core.Client.
type WSHandler struct {
	hub  *core.Hub
	gate *auth.Gate
	cfg  *config.Config
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, gate *auth.Gate, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, gate: gate, cfg: cfg, log: logger}
}

// credential pulls the raw token from the places clients put it: the query
// string or the Authorization header. The gate strips any scheme prefix.
func credential(r *stdhttp.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return r.Header.Get("Authorization")
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	identity, err := h.gate.Authenticate(r.Context(), credential(r))
	if err != nil {
		h.log.Warn().Err(err).Msg("connection rejected")
		status := stdhttp.StatusUnauthorized
		if errors.Is(err, auth.ErrSubjectInactive) {
			status = stdhttp.StatusForbidden
		}
		stdhttp.Error(w, err.Error(), status)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := core.NewClient(identity)
	h.hub.RegisterClient(ctx, client)
	// Cleanup runs with its own context: the request context is already
	// canceled when the transport goes away.
	defer h.hub.UnregisterClient(context.Background(), client)

	limiter := newRateLimiter(h.cfg.EventsPerMinute)
	stop := make(chan struct{})
	defer close(stop)
	limiter.startReset(stop)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			client.SendError(&core.CoreError{Code: "rate_limited", Message: "too many events"})
			continue
		}

		cmd, protoErr, err := inboundToCommand(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("failed to decode inbound")
			client.SendError(&core.CoreError{Code: core.ErrCodeBadRequest, Message: "malformed payload"})
			continue
		}
		if protoErr != nil {
			client.SendError(&core.CoreError{Code: protoErr.Code, Message: protoErr.Msg})
			continue
		}

		// Commands run synchronously on this connection's read loop, so a
		// storage suspension blocks only this connection.
		if coreErr := h.hub.Handle(ctx, client, cmd); coreErr != nil {
			client.SendError(coreErr)
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
