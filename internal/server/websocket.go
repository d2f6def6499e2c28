package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/textsift/textsift/internal/export"
	"github.com/textsift/textsift/internal/runner"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients are expected to be first-party; cross-origin use
	// goes through the plain HTTP endpoints.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSRequest is one document submission over the websocket. Document bytes
// travel base64-encoded inside the JSON frame.
type WSRequest struct {
	Filename string `json:"filename"`
	Document []byte `json:"document"`
}

// WSResponse is one frame back to the client: progress events while pages
// complete, then a completed or error frame.
type WSResponse struct {
	Type       string       `json:"type"` // "progress", "completed", "error"
	Page       int          `json:"page,omitempty"`
	Total      int          `json:"total,omitempty"`
	Detections int          `json:"detections,omitempty"`
	Session    string       `json:"session,omitempty"`
	Result     *export.Dump `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// wsConn serializes frame writes; the progress observer and the request
// loop both write.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(resp WSResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("marshal websocket frame", "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Warn("websocket write failed", "error", err)
	}
}

// processWebSocketHandler accepts documents over a websocket and streams
// per-page progress back while each one runs.
func (s *Server) processWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	wc := &wsConn{conn: conn}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("websocket read failed", "error", err)
			}
			return
		}

		var req WSRequest
		if err := json.Unmarshal(data, &req); err != nil {
			wc.send(WSResponse{Type: "error", Error: "invalid request: " + err.Error()})
			continue
		}
		if len(req.Document) == 0 {
			wc.send(WSResponse{Type: "error", Error: "empty document"})
			continue
		}
		s.processOverWebSocket(r, wc, req)
	}
}

// processOverWebSocket spools the document and runs it, forwarding page
// events as progress frames.
func (s *Server) processOverWebSocket(r *http.Request, wc *wsConn, req WSRequest) {
	limit := int64(s.cfg.Server.MaxUploadMB) * 1024 * 1024
	if int64(len(req.Document)) > limit {
		wc.send(WSResponse{Type: "error", Error: "document too large"})
		return
	}
	uploadSizeBytes.Observe(float64(len(req.Document)))

	ext := filepath.Ext(req.Filename)
	tmp, err := os.CreateTemp("", "textsift-ws-*"+ext)
	if err != nil {
		wc.send(WSResponse{Type: "error", Error: err.Error()})
		return
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(req.Document); err != nil {
		_ = tmp.Close()
		wc.send(WSResponse{Type: "error", Error: err.Error()})
		return
	}
	if err := tmp.Close(); err != nil {
		wc.send(WSResponse{Type: "error", Error: err.Error()})
		return
	}

	run, err := s.newRunner(func(ev runner.PageEvent) {
		wc.send(WSResponse{
			Type:       "progress",
			Page:       ev.Page,
			Total:      ev.Total,
			Detections: ev.Detections,
		})
	})
	if err != nil {
		wc.send(WSResponse{Type: "error", Error: err.Error()})
		return
	}

	start := time.Now()
	report, err := run.ProcessDocument(r.Context(), tmp.Name())
	if err != nil {
		documentsProcessed.WithLabelValues("ws", "error").Inc()
		wc.send(WSResponse{Type: "error", Error: err.Error()})
		return
	}
	observeReport("ws", report)
	slog.Info("websocket run complete",
		"session", report.Session.Name,
		"duration_ms", time.Since(start).Milliseconds())

	dump := export.BuildDump(report.Run)
	wc.send(WSResponse{
		Type:    "completed",
		Session: report.Session.Name,
		Result:  &dump,
	})
}
