package game

import "skullking-game/internal/shared"

// GameEvent is a closed union of the entries in the game's append-only event
// log. Each command produces zero or more events, delivered to subscribers as
// one ordered batch. Consumers dispatch with a type switch.
type GameEvent interface {
	isGameEvent()
}

type PlayerJoined struct {
	PlayerId shared.PlayerId
}

type GameStarted struct {
	Players []shared.PlayerId
}

type RoundStarted struct {
	RoundNumber int
}

type CardsDealt struct {
	Cards map[shared.PlayerId][]shared.Card
}

type BidPlaced struct {
	PlayerId shared.PlayerId
	Bid      Bid
}

type BiddingCompleted struct {
	Bids map[shared.PlayerId]Bid
}

type TrickStarted struct {
	TrickNumber int
	TurnOrder   []shared.PlayerId
}

type CardPlayed struct {
	PlayerId shared.PlayerId
	Card     shared.Card
}

type TrickCompleted struct {
	Winner shared.PlayerId
}

type GameCompleted struct{}

func (PlayerJoined) isGameEvent()     {}
func (GameStarted) isGameEvent()      {}
func (RoundStarted) isGameEvent()     {}
func (CardsDealt) isGameEvent()       {}
func (BidPlaced) isGameEvent()        {}
func (BiddingCompleted) isGameEvent() {}
func (TrickStarted) isGameEvent()     {}
func (CardPlayed) isGameEvent()       {}
func (TrickCompleted) isGameEvent()   {}
func (GameCompleted) isGameEvent()    {}
