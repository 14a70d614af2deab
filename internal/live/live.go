// live.go
//
// A data service for the Al-Areiqi engineering site and its admin console
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of sitedb.
// sitedb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// sitedb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with sitedb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package live streams collection snapshots to websocket clients.
package live

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/models"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Subscriber delivers snapshots of a collection, starting with the current one
type Subscriber interface {
	Subscribe(ctx context.Context, c models.Collection, fn func(snapshot any)) (func(), error)
}

// Authenticator resolves a session token
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*models.Identity, error)
}

// Frame is one message sent to a client
type Frame struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// Public collections are streamed without a session
var Public = map[models.Collection]bool{
	models.Projects:     true,
	models.Gallery:      true,
	models.Partners:     true,
	models.SettingsKind: true,
}

// Server upgrades GET /live/{channel} and relays that channel's snapshots
type Server struct {
	subs     Subscriber
	auth     Authenticator
	cookie   string
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a Server. auth may be nil, in which case only public channels are served.
func NewServer(subs Subscriber, authn Authenticator, cookie string, log zerolog.Logger) *Server {
	return &Server{
		subs:   subs,
		auth:   authn,
		cookie: cookie,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the feed's routes
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/live/{channel}", s.serveChannel).Methods(http.MethodGet)
	return r
}

// ListenAndServe serves the feed on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info().Str("addr", addr).Msg("live feed listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) serveChannel(w http.ResponseWriter, r *http.Request) {
	c, err := models.ParseCollection(mux.Vars(r)["channel"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if !Public[c] && !auth.HasPermission(s.identity(r), c.String(), auth.ActionView) {
		http.Error(w, "permission denied", http.StatusForbidden)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	conn := newConn(ws)
	unsubscribe, err := s.subs.Subscribe(ctx, c, func(snapshot any) {
		conn.offer(Frame{Channel: c.String(), Data: snapshot})
	})
	if err != nil {
		cancel()
		s.log.Warn().Err(err).Str("channel", c.String()).Msg("live subscribe failed")
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		ws.Close()
		return
	}

	go conn.readUntilClosed(cancel)
	conn.writeLoop(ctx)
	unsubscribe()
	ws.Close()
}

func (s *Server) identity(r *http.Request) *models.Identity {
	if s.auth == nil {
		return nil
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		if ck, err := r.Cookie(s.cookie); err == nil {
			token = ck.Value
		}
	}
	if token == "" {
		return nil
	}
	id, err := s.auth.CurrentUser(r.Context(), token)
	if err != nil {
		return nil
	}
	return id
}

// conn holds at most one unsent frame; a newer snapshot replaces it
type conn struct {
	ws      *websocket.Conn
	mu      sync.Mutex
	pending *Frame
	wake    chan struct{}
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws, wake: make(chan struct{}, 1)}
}

func (c *conn) offer(f Frame) {
	c.mu.Lock()
	c.pending = &f
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *conn) take() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.pending
	c.pending = nil
	return f
}

func (c *conn) writeLoop(ctx context.Context) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
			f := c.take()
			if f == nil {
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(f); err != nil {
				return
			}
		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readUntilClosed discards client messages and cancels when the client goes away
func (c *conn) readUntilClosed(cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
