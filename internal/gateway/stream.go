package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/flemzord/gemgate/internal/provider"
)

// handleStream returns an http.HandlerFunc for POST /v1/stream. Each stream
// event is written as one server-sent event whose data is the tagged JSON
// form of the event.
func (g *Gateway) handleStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.lm == nil {
			writeJSONError(w, http.StatusServiceUnavailable, errNoLanguageModel.Error())
			return
		}
		req, err := decodeCallRequest(w, r, g.config.MaxBodyBytes)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		opts, err := req.callOptions()
		if err != nil {
			g.writeError(w, r, err)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		res, err := g.lm.Stream(ctx, opts)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		g.streamOpened()
		defer g.streamClosed()

		// Streams outlive the server write timeout.
		rc := http.NewResponseController(w)
		_ = rc.SetWriteDeadline(time.Time{})

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		_ = rc.Flush()

		for ev := range res.Events {
			data, err := provider.MarshalEvent(ev)
			if err != nil {
				g.logger.Warn("gateway: encode stream event", "type", ev.EventType(), "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				cancel()
				continue
			}
			if err := rc.Flush(); err != nil {
				cancel()
			}
		}
	}
}

// wsError is the message sent when a websocket stream cannot start.
type wsError struct {
	Type   string `json:"type"`
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// handleWSStream returns an http.HandlerFunc for GET /v1/ws/stream. The
// client sends one call request; the server answers with one JSON message
// per stream event and closes the connection normally.
func (g *Gateway) handleWSStream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		_ = rc.SetReadDeadline(time.Time{})
		_ = rc.SetWriteDeadline(time.Time{})

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Debug("gateway: websocket accept failed", "error", err)
			return
		}
		defer func() { _ = conn.Close(websocket.StatusInternalError, "internal error") }()
		conn.SetReadLimit(g.config.MaxBodyBytes)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		fail := func(err error) {
			msg := wsError{Type: "error", Status: statusFor(err), Error: err.Error()}
			_ = wsjson.Write(ctx, conn, msg)
			_ = conn.Close(websocket.StatusNormalClosure, "")
		}

		if g.lm == nil {
			msg := wsError{Type: "error", Status: http.StatusServiceUnavailable, Error: errNoLanguageModel.Error()}
			_ = wsjson.Write(ctx, conn, msg)
			_ = conn.Close(websocket.StatusTryAgainLater, "no model")
			return
		}

		var req callRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			g.logger.Debug("gateway: websocket read failed", "error", err)
			return
		}
		opts, err := req.callOptions()
		if err != nil {
			fail(err)
			return
		}

		res, err := g.lm.Stream(ctx, opts)
		if err != nil {
			fail(err)
			return
		}
		g.streamOpened()
		defer g.streamClosed()

		for ev := range res.Events {
			data, err := provider.MarshalEvent(ev)
			if err != nil {
				g.logger.Warn("gateway: encode stream event", "type", ev.EventType(), "error", err)
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				cancel()
			}
		}
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}

func (g *Gateway) streamOpened() {
	if g.metrics != nil {
		g.metrics.StreamOpened()
	}
}

func (g *Gateway) streamClosed() {
	if g.metrics != nil {
		g.metrics.StreamClosed()
	}
}
