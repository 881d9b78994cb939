// Package wsstream streams race messages to WebSocket clients.
package wsstream

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/utils/broadcast"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// Hub is an http.Handler upgrading every request to a WebSocket connection
// which receives all messages of the broadcast server.
type Hub struct {
	source   broadcast.Server[[]byte]
	upgrader websocket.Upgrader
	l        *log.Logger
}

type Option func(*Hub)

func WithLogger(l *log.Logger) Option {
	return func(h *Hub) {
		h.l = l
	}
}

// WithCheckOrigin restricts the accepted origins, all origins are accepted by default
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = check
	}
}

func New(source broadcast.Server[[]byte], opts ...Option) *Hub {
	ret := &Hub{
		source: source,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		l: log.Default().Named("ws"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Warn("upgrade failed", log.ErrorField(err))
		return
	}
	l := h.l.With(log.String("client", r.RemoteAddr))
	l.Debug("client connected")
	msgs := h.source.Subscribe()
	closed := make(chan struct{})

	// reader: we don't expect client messages, but need to detect disconnects
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				l.Debug("client gone", log.ErrorField(err))
				return
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer func() {
			ticker.Stop()
			h.source.Unsubscribe(msgs)
			conn.Close()
		}()
		for {
			select {
			case <-closed:
				return
			case msg, ok := <-msgs:
				if !ok {
					//nolint:errcheck // best effort
					conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "race over"),
						time.Now().Add(writeTimeout))
					return
				}
				//nolint:errcheck // by design
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					l.Debug("write failed", log.ErrorField(err))
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil,
					time.Now().Add(writeTimeout)); err != nil {
					return
				}
			}
		}
	}()
}

// Serve runs an http server on addr with the hub mounted at /ws until ctx is done
func Serve(ctx context.Context, addr string, hub *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		//nolint:errcheck // by design
		srv.Shutdown(shutdownCtx)
	}()
	hub.l.Info("websocket stream listening", log.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
