package game

import "skullking-game/internal/shared"

// PlayerCommand is a closed union of the commands a player may issue.
type PlayerCommand interface {
	isPlayerCommand()
	Actor() shared.PlayerId
}

type JoinGame struct {
	Player shared.PlayerId
}

type PlaceBid struct {
	Player shared.PlayerId
	Bid    Bid
}

type PlayCard struct {
	Player   shared.PlayerId
	CardName shared.CardName
}

func (JoinGame) isPlayerCommand() {}
func (PlaceBid) isPlayerCommand() {}
func (PlayCard) isPlayerCommand() {}

func (c JoinGame) Actor() shared.PlayerId { return c.Player }
func (c PlaceBid) Actor() shared.PlayerId { return c.Player }
func (c PlayCard) Actor() shared.PlayerId { return c.Player }

// GameMasterCommand is a closed union of the commands the (human or
// automated) game master may issue. Their preconditions are programming-level
// requirements, not player-facing errors.
type GameMasterCommand interface {
	isGameMasterCommand()
}

type StartGame struct{}

type StartNextRound struct{}

type StartNextTrick struct{}

// RigDeck overrides the next deal for one player. Testing hook.
type RigDeck struct {
	PlayerId shared.PlayerId
	Cards    []shared.Card
}

func (StartGame) isGameMasterCommand()      {}
func (StartNextRound) isGameMasterCommand() {}
func (StartNextTrick) isGameMasterCommand() {}
func (RigDeck) isGameMasterCommand()        {}
