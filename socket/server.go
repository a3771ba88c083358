package socket

import (
	"context"
	"log"
	"sync"

	"squadup_server/bus"
	"squadup_server/models"
	"squadup_server/services"

	socketio "github.com/googollee/go-socket.io"
)

// WatchRequest is the payload a client sends to start or stop receiving
// derived position states for a match view.
type WatchRequest struct {
	MatchID  string `json:"matchId"`
	ViewerID string `json:"viewerId"`
}

// connSink emits a sync session's output to one connection.
type connSink struct {
	conn    socketio.Conn
	matchID string
}

func (s *connSink) PublishStates(states map[string]models.ViewerPositionState) {
	s.conn.Emit("positionStates", map[string]interface{}{
		"matchId": s.matchID,
		"states":  states,
	})
}

func (s *connSink) PublishOutcome(evt bus.Event) {
	s.conn.Emit("requestOutcome", evt)
}

// NewSocketServer initializes the Socket.IO server. Each watched match view
// gets its own sync session; sessions are closed on unwatch and all of a
// connection's sessions are closed together on disconnect, so no handler
// outlives the view it feeds.
func NewSocketServer(syncManager *services.SyncChannelManager) *socketio.Server {
	server := socketio.NewServer(nil)

	var mu sync.Mutex
	sessions := make(map[string]map[string]*services.SyncSession)

	closeAll := func(connID string) {
		mu.Lock()
		open := sessions[connID]
		delete(sessions, connID)
		mu.Unlock()
		for _, session := range open {
			session.Close()
		}
	}

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("Socket connected:", c.ID())
		return nil
	})

	server.OnEvent("/", "watchMatch", func(c socketio.Conn, req WatchRequest) {
		if req.MatchID == "" || req.ViewerID == "" {
			log.Println("Invalid watchMatch request from", c.ID())
			return
		}
		session := syncManager.Open(context.Background(), req.MatchID, req.ViewerID, &connSink{conn: c, matchID: req.MatchID})

		mu.Lock()
		if sessions[c.ID()] == nil {
			sessions[c.ID()] = make(map[string]*services.SyncSession)
		}
		previous := sessions[c.ID()][req.MatchID]
		sessions[c.ID()][req.MatchID] = session
		mu.Unlock()

		if previous != nil {
			previous.Close()
		}
		log.Printf("Viewer %s watching match %s on %s", req.ViewerID, req.MatchID, c.ID())
	})

	server.OnEvent("/", "unwatchMatch", func(c socketio.Conn, req WatchRequest) {
		mu.Lock()
		session := sessions[c.ID()][req.MatchID]
		delete(sessions[c.ID()], req.MatchID)
		mu.Unlock()
		if session != nil {
			session.Close()
		}
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		log.Println("Socket error:", err)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		closeAll(c.ID())
		log.Println("Socket disconnected:", c.ID(), reason)
	})

	return server
}
