package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/robalobadob/memorama/internal/feed"
	"github.com/robalobadob/memorama/internal/store"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsBuffer     = 64
	wsMaxMessage = 512
)

// wsMessage is an inbound client command.
type wsMessage struct {
	Type  string `json:"type"` // flip | start | restart
	Index *int   `json:"index"`
}

// handleWS streams a session's feed. The first message is a full "state"
// event; after that every engine change arrives as its own event.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	up := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("ws upgrade")
		return
	}
	lg := s.log.With().Str("game", sess.ID).Logger()

	sub := sess.Feed.Subscribe(wsBuffer)
	first, err := feed.Encode(feed.Event{Type: feed.EventState, Data: viewOf(sess)})
	if err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		err = conn.WriteMessage(websocket.TextMessage, first)
	}
	if err != nil {
		sess.Feed.Unsubscribe(sub)
		_ = conn.Close()
		return
	}
	lg.Debug().Int("subscribers", sess.Feed.Subscribers()).Msg("ws connected")

	go s.writePump(conn, sub)
	s.readPump(conn, sess)

	sess.Feed.Unsubscribe(sub)
	lg.Debug().Msg("ws disconnected")
}

// readPump applies client commands until the connection drops.
func (s *Server) readPump(conn *websocket.Conn, sess *store.Session) {
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debug().Err(err).Str("game", sess.ID).Msg("bad ws message")
			continue
		}
		sess.Touch(s.now())
		switch msg.Type {
		case "flip":
			if msg.Index == nil {
				s.log.Debug().Str("game", sess.ID).Msg("ws flip without index")
				continue
			}
			sess.Engine.Flip(*msg.Index)
		case "start":
			sess.Engine.Start()
		case "restart":
			sess.Engine.Restart()
		default:
			s.log.Debug().Str("type", msg.Type).Str("game", sess.ID).Msg("unknown ws command")
		}
	}
}

// writePump forwards feed events and keeps the connection alive. It owns
// every write after the initial state.
func (s *Server) writePump(conn *websocket.Conn, sub *feed.Subscription) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				// Session closed or we fell behind.
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// checkOrigin accepts same-host requests and the configured client origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
