package server

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"skullking-game/internal/game"
	"skullking-game/internal/protocol"
)

// fakeConn stands in for a websocket client: messages the session sends are
// read back from a channel.
type fakeConn struct {
	messages chan []byte

	mu     sync.Mutex
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{messages: make(chan []byte, 64)}
}

func (f *fakeConn) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("connection closed")
	}
	f.messages <- message
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) next(t *testing.T) protocol.Message {
	t.Helper()
	select {
	case raw := <-f.messages:
		var msg protocol.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshalling message: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return protocol.Message{}
	}
}

func command(t *testing.T, payload protocol.CommandPayload) protocol.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshalling command payload: %v", err)
	}
	return protocol.Message{Type: protocol.ToServer, Id: protocol.NextMessageId(), Payload: raw}
}

func stateOf(t *testing.T, msg protocol.Message) game.PlayerState {
	t.Helper()
	var payload protocol.StatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("unmarshalling state payload: %v", err)
	}
	return payload.State
}

func newTestSession(t *testing.T, g *game.Game, ackTimeout time.Duration) (*Session, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	session := NewSession(g, conn, ackTimeout, time.Hour)
	go session.Run()
	t.Cleanup(session.Close)
	return session, conn
}

func TestSessionAcceptsCommands(t *testing.T) {
	g := game.NewGame()
	session, conn := newTestSession(t, g, 2*time.Second)

	join := command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "alice"})
	session.HandleMessage(join)

	response := conn.next(t)
	if response.Type != protocol.AcceptanceFromServer {
		t.Fatalf("expected an acceptance, got %s", response.Type)
	}
	if response.Id != join.Id {
		t.Fatalf("expected the acceptance to carry the command id %s, got %s", join.Id, response.Id)
	}

	state := stateOf(t, response)
	if state.PlayerId != "alice" {
		t.Fatalf("expected alice's state, got %s", state.PlayerId)
	}
	if len(state.PlayersInRoom) != 1 || state.PlayersInRoom[0] != "alice" {
		t.Fatalf("expected alice in the room, got %v", state.PlayersInRoom)
	}
}

func TestSessionRejectsInvalidCommands(t *testing.T) {
	g := game.NewGame()
	session, conn := newTestSession(t, g, 2*time.Second)

	session.HandleMessage(command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "alice"}))
	conn.next(t)

	bid := command(t, protocol.CommandPayload{Command: "PlaceBid", Actor: "alice", Bid: 1})
	session.HandleMessage(bid)

	response := conn.next(t)
	if response.Type != protocol.Rejection {
		t.Fatalf("expected a rejection, got %s", response.Type)
	}
	if response.Id != bid.Id {
		t.Fatalf("expected the rejection to carry the command id")
	}
	var payload protocol.RejectionPayload
	if err := json.Unmarshal(response.Payload, &payload); err != nil {
		t.Fatalf("unmarshalling rejection payload: %v", err)
	}
	if payload.Reason != game.GameNotInProgress.Error() {
		t.Fatalf("expected reason %q, got %q", game.GameNotInProgress.Error(), payload.Reason)
	}
}

func TestSessionNotifiesOtherPlayers(t *testing.T) {
	g := game.NewGame()
	aliceSession, aliceConn := newTestSession(t, g, 2*time.Second)
	bobSession, bobConn := newTestSession(t, g, 2*time.Second)

	aliceSession.HandleMessage(command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "alice"}))
	if got := aliceConn.next(t).Type; got != protocol.AcceptanceFromServer {
		t.Fatalf("expected an acceptance for alice, got %s", got)
	}

	// Bob joining blocks until alice acknowledges her notification.
	bobSession.HandleMessage(command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "bob"}))

	notification := aliceConn.next(t)
	if notification.Type != protocol.ToClient {
		t.Fatalf("expected a notification for alice, got %s", notification.Type)
	}
	state := stateOf(t, notification)
	if len(state.PlayersInRoom) != 2 {
		t.Fatalf("expected alice to see both players, got %v", state.PlayersInRoom)
	}

	aliceSession.HandleMessage(protocol.Message{Type: protocol.AcceptanceFromClient, Id: notification.Id})

	response := bobConn.next(t)
	if response.Type != protocol.AcceptanceFromServer {
		t.Fatalf("expected an acceptance for bob, got %s", response.Type)
	}
}

func TestSessionFailsCommandWhenAckTimesOut(t *testing.T) {
	g := game.NewGame()
	aliceSession, aliceConn := newTestSession(t, g, 100*time.Millisecond)
	bobSession, bobConn := newTestSession(t, g, 100*time.Millisecond)

	aliceSession.HandleMessage(command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "alice"}))
	aliceConn.next(t)

	// Alice never acknowledges bob's join notification.
	bobSession.HandleMessage(command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "bob"}))

	if got := aliceConn.next(t).Type; got != protocol.ToClient {
		t.Fatalf("expected a notification for alice, got %s", got)
	}

	response := bobConn.next(t)
	if response.Type != protocol.Rejection {
		t.Fatalf("expected bob's join to fail, got %s", response.Type)
	}
	var payload protocol.RejectionPayload
	if err := json.Unmarshal(response.Payload, &payload); err != nil {
		t.Fatalf("unmarshalling rejection payload: %v", err)
	}
	if !strings.Contains(payload.Reason, "not answered") {
		t.Fatalf("expected a timeout reason, got %q", payload.Reason)
	}
}

func TestSessionFailsCommandWhenNotificationIsNacked(t *testing.T) {
	g := game.NewGame()
	aliceSession, aliceConn := newTestSession(t, g, 2*time.Second)
	bobSession, bobConn := newTestSession(t, g, 2*time.Second)

	aliceSession.HandleMessage(command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "alice"}))
	aliceConn.next(t)

	bobSession.HandleMessage(command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "bob"}))

	notification := aliceConn.next(t)
	nack, err := protocol.NewRejection(notification.Id, "cannot render that")
	if err != nil {
		t.Fatalf("building rejection: %v", err)
	}
	var msg protocol.Message
	if err := json.Unmarshal(nack, &msg); err != nil {
		t.Fatalf("unmarshalling rejection: %v", err)
	}
	aliceSession.HandleMessage(msg)

	response := bobConn.next(t)
	if response.Type != protocol.Rejection {
		t.Fatalf("expected bob's join to fail, got %s", response.Type)
	}
	var payload protocol.RejectionPayload
	if err := json.Unmarshal(response.Payload, &payload); err != nil {
		t.Fatalf("unmarshalling rejection payload: %v", err)
	}
	if !strings.Contains(payload.Reason, "rejected") {
		t.Fatalf("expected a rejection reason, got %q", payload.Reason)
	}
}

func TestSessionCarriesOwnEventsOnTheAcceptance(t *testing.T) {
	g := game.NewGame()
	aliceSession, aliceConn := newTestSession(t, g, 2*time.Second)
	bobSession, bobConn := newTestSession(t, g, 2*time.Second)

	aliceSession.HandleMessage(command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "alice"}))
	aliceConn.next(t)

	ackAll := func(conn *fakeConn, session *Session) chan struct{} {
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case raw := <-conn.messages:
					var msg protocol.Message
					if err := json.Unmarshal(raw, &msg); err != nil {
						return
					}
					if msg.Type == protocol.ToClient {
						session.HandleMessage(protocol.Message{Type: protocol.AcceptanceFromClient, Id: msg.Id})
					}
				case <-time.After(time.Second):
					return
				}
			}
		}()
		return done
	}
	aliceAcks := ackAll(aliceConn, aliceSession)

	bobSession.HandleMessage(command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "bob"}))
	response := bobConn.next(t)
	if response.Type != protocol.AcceptanceFromServer {
		t.Fatalf("expected an acceptance for bob, got %s", response.Type)
	}
	state := stateOf(t, response)
	if state.PlayerId != "bob" {
		t.Fatalf("expected bob's state, got %s", state.PlayerId)
	}
	if state.GamePhase != game.WaitingToStart {
		t.Fatalf("expected bob's own join to be reflected without a notification, got %s", state.GamePhase)
	}

	select {
	case raw := <-bobConn.messages:
		t.Fatalf("bob should not be notified about his own command, got %s", raw)
	case <-time.After(100 * time.Millisecond):
	}

	<-aliceAcks
}

func TestSessionLateJoinerCatchesUp(t *testing.T) {
	g := game.NewGame()
	if err := g.Perform(game.JoinGame{Player: "alice"}); err != nil {
		t.Fatalf("joining alice directly: %v", err)
	}

	bobSession, bobConn := newTestSession(t, g, 2*time.Second)
	bobSession.HandleMessage(command(t, protocol.CommandPayload{Command: "JoinGame", Actor: "bob"}))

	state := stateOf(t, bobConn.next(t))
	if len(state.PlayersInRoom) != 2 {
		t.Fatalf("expected bob to catch up on alice's join, got %v", state.PlayersInRoom)
	}
}
