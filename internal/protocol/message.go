package protocol

import (
	"encoding/json"
	"fmt"

	"skullking-game/internal/game"
	"skullking-game/internal/shared"

	"github.com/google/uuid"
)

// MessageType tags the wire envelope.
type MessageType string

const (
	ToServer             MessageType = "to_server"              // client command
	ToClient             MessageType = "to_client"              // server notification, must be acknowledged
	AcceptanceFromServer MessageType = "acceptance_from_server" // server accepted a command
	AcceptanceFromClient MessageType = "acceptance_from_client" // client processed a notification
	Rejection            MessageType = "rejection"              // either side refused a message
	KeepAlive            MessageType = "keep_alive"             // liveness, never acknowledged
)

// MessageId uniquely identifies a message instance and correlates a request
// with its acceptance or rejection.
type MessageId string

// NextMessageId generates a fresh random message id.
func NextMessageId() MessageId {
	return MessageId(uuid.NewString())
}

// Message is the generic wire envelope. Every message except KeepAlive
// carries a unique id; the payload shape depends on the type.
type Message struct {
	Type    MessageType     `json:"type"`
	Id      MessageId       `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- Client -> Server payloads ---

// CommandPayload carries a player command inside a ToServer message.
type CommandPayload struct {
	Command  string          `json:"command"` // "JoinGame", "PlaceBid" or "PlayCard"
	Actor    string          `json:"actor"`
	Bid      int             `json:"bid,omitempty"`
	CardName shared.CardName `json:"cardName,omitempty"`
}

// ToPlayerCommand converts the payload into a domain command.
func (p CommandPayload) ToPlayerCommand() (game.PlayerCommand, error) {
	actor := shared.NewPlayerId(p.Actor)
	switch p.Command {
	case "JoinGame":
		return game.JoinGame{Player: actor}, nil
	case "PlaceBid":
		return game.PlaceBid{Player: actor, Bid: game.Bid(p.Bid)}, nil
	case "PlayCard":
		return game.PlayCard{Player: actor, CardName: p.CardName}, nil
	default:
		return nil, fmt.Errorf("unknown player command %q", p.Command)
	}
}

// --- Server -> Client payloads ---

// StatePayload carries the player's projected state, either as a notification
// (ToClient) or attached to the direct response (AcceptanceFromServer).
type StatePayload struct {
	State game.PlayerState `json:"state"`
}

// RejectionPayload carries the reason a message was refused.
type RejectionPayload struct {
	Reason string `json:"reason"`
}

// NewMessage builds and marshals an envelope with the given payload.
func NewMessage(msgType MessageType, id MessageId, payload interface{}) ([]byte, error) {
	msg := Message{Type: msgType, Id: id}
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = payloadBytes
	}
	return json.Marshal(msg)
}

// NewToClient builds a notification carrying the player's state, returning
// the fresh message id alongside the bytes.
func NewToClient(state game.PlayerState) (MessageId, []byte, error) {
	id := NextMessageId()
	msg, err := NewMessage(ToClient, id, StatePayload{State: state})
	return id, msg, err
}

// NewAcceptanceFromServer builds the direct response to an accepted command.
func NewAcceptanceFromServer(id MessageId, state game.PlayerState) ([]byte, error) {
	return NewMessage(AcceptanceFromServer, id, StatePayload{State: state})
}

// NewRejection builds the direct response to a refused command.
func NewRejection(id MessageId, reason string) ([]byte, error) {
	return NewMessage(Rejection, id, RejectionPayload{Reason: reason})
}

// NewKeepAlive builds a liveness heartbeat. It requires no acknowledgement.
func NewKeepAlive() ([]byte, error) {
	return NewMessage(KeepAlive, NextMessageId(), nil)
}

// --- Game master HTTP payloads ---

// GameMasterCommandPayload carries an out-of-band game-master command.
type GameMasterCommandPayload struct {
	Command  string            `json:"command"` // "StartGame", "StartNextRound", "StartNextTrick" or "RigDeck"
	PlayerId string            `json:"playerId,omitempty"`
	Cards    []shared.CardName `json:"cards,omitempty"`
}

// ToGameMasterCommand converts the payload into a domain command.
func (p GameMasterCommandPayload) ToGameMasterCommand() (game.GameMasterCommand, error) {
	switch p.Command {
	case "StartGame":
		return game.StartGame{}, nil
	case "StartNextRound":
		return game.StartNextRound{}, nil
	case "StartNextTrick":
		return game.StartNextTrick{}, nil
	case "RigDeck":
		cards := make([]shared.Card, len(p.Cards))
		for i, name := range p.Cards {
			card, err := shared.ParseCardName(name)
			if err != nil {
				return nil, err
			}
			cards[i] = card
		}
		return game.RigDeck{PlayerId: shared.NewPlayerId(p.PlayerId), Cards: cards}, nil
	default:
		return nil, fmt.Errorf("unknown game master command %q", p.Command)
	}
}
