package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"skullking-game/internal/game"
	"skullking-game/internal/protocol"
	"skullking-game/internal/shared"
)

// connection is what a session needs from its transport.
type connection interface {
	Send(message []byte) error
	Close()
}

// Session binds one connection to a player identity and orchestrates the
// message exchange: it forwards commands to the game, folds the event stream
// into the player's projection, and pushes notifications caused by other
// players, blocking on acknowledgement for each before letting the
// originating command return.
type Session struct {
	game    *game.Game
	conn    connection
	tracker *AnswerTracker

	keepAliveEvery time.Duration
	commands       chan protocol.Message
	closeOnce      sync.Once
	done           chan struct{}

	// Owned by the session worker and game subscriber, which never run
	// concurrently for state mutations: the subscriber only fires inside
	// Perform calls made by the worker or by other sessions' workers, and the
	// game serializes those.
	playerId shared.PlayerId
	state    game.PlayerState
}

// NewSession creates a session for a not-yet-identified connection.
func NewSession(g *game.Game, conn connection, ackTimeout, keepAliveEvery time.Duration) *Session {
	return &Session{
		game:           g,
		conn:           conn,
		tracker:        NewAnswerTracker(ackTimeout),
		keepAliveEvery: keepAliveEvery,
		commands:       make(chan protocol.Message, 16),
		done:           make(chan struct{}),
		playerId:       shared.UnidentifiedPlayer,
	}
}

// HandleMessage dispatches one message from the read pump. Answers are
// processed inline so a blocked notification send can be woken even while a
// command from this client is queued or in flight.
func (s *Session) HandleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.AcceptanceFromClient:
		if err := s.tracker.MarkAccepted(msg.Id); err != nil {
			s.fatal(err)
		}

	case protocol.Rejection:
		var payload protocol.RejectionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			s.fatal(fmt.Errorf("invalid rejection payload: %w", err))
			return
		}
		if err := s.tracker.MarkRejected(msg.Id, payload.Reason); err != nil {
			s.fatal(err)
		}

	case protocol.ToServer:
		select {
		case s.commands <- msg:
		case <-s.done:
		}

	case protocol.KeepAlive:
		// Nothing to do.

	default:
		log.Printf("Session %s: invalid message type %q from client", s.playerId, msg.Type)
	}
}

// Run processes the session's commands serially until it is closed.
func (s *Session) Run() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.commands:
			s.handleCommand(msg)
		}
	}
}

// KeepAlive sends heartbeats on an interval independent of game activity, to
// detect dead connections. Heartbeats require no acknowledgement.
func (s *Session) KeepAlive() {
	ticker := time.NewTicker(s.keepAliveEvery)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			message, err := protocol.NewKeepAlive()
			if err != nil {
				log.Printf("Session %s: building keep-alive: %v", s.playerId, err)
				return
			}
			if err := s.conn.Send(message); err != nil {
				return
			}
		}
	}
}

// Close releases the session's goroutines. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Session) handleCommand(msg protocol.Message) {
	var payload protocol.CommandPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.reject(msg.Id, fmt.Sprintf("invalid command payload: %v", err))
		return
	}

	command, err := payload.ToPlayerCommand()
	if err != nil {
		s.reject(msg.Id, err.Error())
		return
	}

	// The subscription must exist before the join is forwarded, so the events
	// of this very command are not missed.
	if join, ok := command.(game.JoinGame); ok && s.playerId == shared.UnidentifiedPlayer {
		s.playerId = join.Player
		pastEvents := s.game.Subscribe(s.onGameEvents)
		s.state = game.ProjectPlayerState(s.playerId, pastEvents)
	}

	if err := s.game.Perform(command); err != nil {
		var code game.GameErrorCode
		if errors.As(err, &code) {
			log.Printf("Session %s: command refused - %s", s.playerId, code)
			s.reject(msg.Id, code.Error())
			return
		}
		log.Printf("Session %s: processing command failed - %v", s.playerId, err)
		s.reject(msg.Id, err.Error())
		return
	}

	// Events caused by this command were folded into s.state by the
	// subscriber without separate acknowledgement; they ride on the response.
	response, err := protocol.NewAcceptanceFromServer(msg.Id, s.state)
	if err != nil {
		log.Printf("Session %s: building acceptance: %v", s.playerId, err)
		return
	}
	if err := s.conn.Send(response); err != nil {
		log.Printf("Session %s: sending acceptance: %v", s.playerId, err)
	}
}

// onGameEvents runs synchronously inside the triggering command's critical
// section. For events triggered by another player it sends a notification
// and blocks until this session's client acknowledges it; failures propagate
// and fail the command for everyone.
func (s *Session) onGameEvents(events []game.GameEvent, triggeredBy shared.PlayerId) error {
	s.state = s.state.HandleAll(events)

	if triggeredBy == s.playerId {
		return nil
	}

	id, notification, err := protocol.NewToClient(s.state)
	if err != nil {
		return err
	}

	nackReason, err := s.tracker.WaitForAnswer(id, func() error {
		return s.conn.Send(notification)
	})
	if err != nil {
		return err
	}
	if nackReason != "" {
		// Clients are expected to always accept server notifications.
		return fmt.Errorf("client rejected a server notification: %s", nackReason)
	}
	return nil
}

func (s *Session) reject(id protocol.MessageId, reason string) {
	message, err := protocol.NewRejection(id, reason)
	if err != nil {
		log.Printf("Session %s: building rejection: %v", s.playerId, err)
		return
	}
	if err := s.conn.Send(message); err != nil {
		log.Printf("Session %s: sending rejection: %v", s.playerId, err)
	}
}

// fatal handles a protocol violation: the offending connection's session is
// aborted rather than the violation being absorbed.
func (s *Session) fatal(err error) {
	log.Printf("Session %s: protocol violation - %v", s.playerId, err)
	s.conn.Close()
	s.Close()
}
