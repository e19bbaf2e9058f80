package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/status-im/wallet-token-lists/tokenlist"
)

const wsWriteTimeout = 10 * time.Second

// updateMessage is pushed to websocket clients for every adopted list
type updateMessage struct {
	Timestamp *time.Time        `json:"timestamp"`
	Version   string            `json:"version"`
	Tokens    []tokenlist.Token `json:"tokens"`
}

func newUpdateMessage(idx *tokenlist.Indices) updateMessage {
	return updateMessage{Timestamp: idx.Timestamp(), Version: idx.Version(), Tokens: idx.List}
}

// handleUpdates streams the current list followed by every adopted one
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("Could not open websocket connection", zap.Error(err))
		return
	}

	s.wsWaiter.Add(1)
	defer s.wsWaiter.Done()
	defer conn.Close()

	sub := s.tokenList.SubscribeOnUpdate()
	defer sub.Cancel()

	// reader detects the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if idx := s.tokenList.Snapshot(); idx != nil {
		if err := s.writeUpdate(conn, idx); err != nil {
			return
		}
	}

	for {
		select {
		case idx, ok := <-sub.Chan():
			if !ok {
				return
			}
			if err := s.writeUpdate(conn, idx); err != nil {
				s.logger.Debug("Websocket write failed", zap.Error(err))
				return
			}
		case <-closed:
			return
		case <-s.baseCtx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		}
	}
}

func (s *Server) writeUpdate(conn *websocket.Conn, idx *tokenlist.Indices) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(newUpdateMessage(idx))
}
