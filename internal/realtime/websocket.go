package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"foodcourt/internal/common/logger"
)

// WebSocketTransport reads JSON frames of the form {"event": name, "data": payload}.
type WebSocketTransport struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer
	lg     *logger.Logger
}

func NewWebSocketTransport(url string, lg *logger.Logger) *WebSocketTransport {
	if lg == nil {
		lg = logger.Nop()
	}
	return &WebSocketTransport{
		URL:    url,
		Dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		lg:     lg,
	}
}

func (t *WebSocketTransport) Dial(ctx context.Context) (Stream, error) {
	conn, resp, err := t.Dialer.DialContext(ctx, t.URL, t.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.URL, err)
	}
	return &wsStream{conn: conn, lg: t.lg}, nil
}

type wsStream struct {
	conn *websocket.Conn
	lg   *logger.Logger
}

// Next skips frames that are not JSON objects; the connection stays usable after them.
func (s *wsStream) Next(ctx context.Context) (Frame, error) {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return Frame{}, ctx.Err()
			}
			return Frame{}, err
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			s.lg.Warn("frame_malformed", map[string]any{"error": err.Error(), "bytes": len(raw)})
			continue
		}
		return f, nil
	}
}

func (s *wsStream) Close() error {
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return s.conn.Close()
}
