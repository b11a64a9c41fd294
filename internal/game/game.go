package game

import (
	"log"
	"sync"

	"skullking-game/internal/shared"
)

// GamePhase describes the lifecycle of the whole game.
type GamePhase string

const (
	WaitingForMorePlayers GamePhase = "WaitingForMorePlayers"
	WaitingToStart        GamePhase = "WaitingToStart"
	InProgress            GamePhase = "InProgress"
	Complete              GamePhase = "Complete"
)

// RoundPhase describes the lifecycle within a round.
type RoundPhase string

const (
	Bidding         RoundPhase = "Bidding"
	BiddingComplete RoundPhase = "BiddingCompleted"
	TrickTaking     RoundPhase = "TrickTaking"
	TrickComplete   RoundPhase = "TrickCompleted"
)

// Bid is a player's prediction of how many tricks they will win this round.
type Bid int

const (
	minPlayersToStart = 2
	lastRoundNumber   = 10
)

// EventListener receives each command's event batch synchronously, inside the
// command's critical section. triggeredBy is the player whose command caused
// the batch, or the empty PlayerId for game-master commands. A listener error
// fails the command for everyone. Listeners must not call back into the
// game's accessors.
type EventListener func(events []GameEvent, triggeredBy shared.PlayerId) error

// Game is the single authoritative aggregate. It validates commands against
// the current phase and turn, mutates internal state and emits an ordered
// batch of events per command. All of that happens under one mutex, including
// the synchronous fan-out to subscribers.
type Game struct {
	mu sync.RWMutex

	phase          GamePhase
	roundPhase     RoundPhase
	roundNumber    int
	trickNumber    int
	players        []shared.PlayerId
	hands          map[shared.PlayerId][]shared.Card
	riggedHands    map[shared.PlayerId][]shared.Card
	bids           map[shared.PlayerId]*Bid
	trick          *shared.Trick
	roundTurnOrder []shared.PlayerId
	winsOfTheRound map[shared.PlayerId]int
	trickWinner    shared.PlayerId

	listeners    []EventListener
	eventsBuffer []GameEvent
	allEvents    []GameEvent
}

// NewGame creates an empty game waiting for players.
func NewGame() *Game {
	return &Game{
		phase:          WaitingForMorePlayers,
		hands:          make(map[shared.PlayerId][]shared.Card),
		winsOfTheRound: make(map[shared.PlayerId]int),
	}
}

// Subscribe registers a listener and returns every event recorded so far, in
// one critical section, so the caller can catch up without missing a batch.
func (g *Game) Subscribe(listener EventListener) []GameEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, listener)
	events := make([]GameEvent, len(g.allEvents))
	copy(events, g.allEvents)
	return events
}

// Perform executes a player command. Domain rule violations come back as a
// GameErrorCode; any other error originates from a subscriber and is fatal to
// the command.
func (g *Game) Perform(command PlayerCommand) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var err error
	switch c := command.(type) {
	case JoinGame:
		err = g.addPlayer(c.Player)
	case PlaceBid:
		err = g.placeBid(c.Player, c.Bid)
	case PlayCard:
		err = g.playCard(c.Player, c.CardName)
	default:
		log.Panicf("unknown player command %T", command)
	}
	if err != nil {
		g.eventsBuffer = nil
		return err
	}
	return g.flushEvents(command.Actor())
}

// PerformGameMaster executes a game-master command. Precondition failures
// panic: they indicate a bug in whatever drives the game master, not a
// player-facing error.
func (g *Game) PerformGameMaster(command GameMasterCommand) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch c := command.(type) {
	case StartGame:
		g.start()
	case StartNextRound:
		g.startNextRound()
	case StartNextTrick:
		g.startNextTrick()
	case RigDeck:
		g.rigDeck(c.PlayerId, c.Cards)
	default:
		log.Panicf("unknown game master command %T", command)
	}
	return g.flushEvents("")
}

func (g *Game) addPlayer(playerId shared.PlayerId) error {
	for _, p := range g.players {
		if p == playerId {
			return PlayerAlreadyInGame
		}
	}

	g.players = append(g.players, playerId)
	if len(g.players) >= minPlayersToStart && g.phase == WaitingForMorePlayers {
		g.phase = WaitingToStart
	}
	g.recordEvent(PlayerJoined{PlayerId: playerId})
	return nil
}

func (g *Game) start() {
	if len(g.players) < minPlayersToStart {
		log.Panicf("not enough players to start the game - %d/%d", len(g.players), minPlayersToStart)
	}

	g.phase = InProgress
	for _, p := range g.players {
		g.hands[p] = []shared.Card{}
	}
	g.recordEvent(GameStarted{Players: g.playersCopy()})
}

func (g *Game) placeBid(playerId shared.PlayerId, bid Bid) error {
	switch {
	case g.phase != InProgress:
		return GameNotInProgress
	case g.roundPhase != Bidding:
		return BiddingNotInProgress
	case bid < 0 || int(bid) > g.roundNumber:
		return BidOutOfRange
	case g.hasAlreadyBid(playerId):
		return AlreadyBid
	}

	placed := bid
	g.bids[playerId] = &placed
	g.recordEvent(BidPlaced{PlayerId: playerId, Bid: bid})

	if g.bidsAreComplete() {
		g.roundPhase = BiddingComplete
		g.recordEvent(BiddingCompleted{Bids: g.completedBids()})
	}
	return nil
}

func (g *Game) playCard(playerId shared.PlayerId, cardName shared.CardName) error {
	switch {
	case g.roundPhase != TrickTaking:
		return TrickNotInProgress
	case g.currentPlayersTurn() != playerId:
		return NotYourTurn
	}

	hand := g.hands[playerId]
	cardIndex := -1
	for i, c := range hand {
		if c.Name() == cardName {
			cardIndex = i
			break
		}
	}
	if cardIndex == -1 {
		return CardNotInHand
	}

	card := hand[cardIndex]
	if !g.trick.IsCardPlayable(card, excluding(hand, card)) {
		return SuitRuleViolation
	}

	g.hands[playerId] = append(hand[:cardIndex:cardIndex], hand[cardIndex+1:]...)
	g.trick.Add(card.PlayedBy(playerId))
	g.roundTurnOrder = g.roundTurnOrder[1:]
	g.recordEvent(CardPlayed{PlayerId: playerId, Card: card})

	if g.trick.IsComplete() {
		g.roundPhase = TrickComplete
		g.trickWinner = g.trick.Winner()
		g.winsOfTheRound[g.trickWinner]++
		g.recordEvent(TrickCompleted{Winner: g.trickWinner})

		if g.trickNumber == g.roundNumber && g.roundNumber == lastRoundNumber {
			g.phase = Complete
			g.recordEvent(GameCompleted{})
		}
	}
	return nil
}

func (g *Game) rigDeck(playerId shared.PlayerId, cards []shared.Card) {
	if g.riggedHands == nil {
		g.riggedHands = make(map[shared.PlayerId][]shared.Card)
		for _, p := range g.players {
			g.riggedHands[p] = []shared.Card{}
		}
	}
	g.riggedHands[playerId] = cards
}

func (g *Game) startNextRound() {
	if g.phase != InProgress {
		log.Panicf("cannot start a round while the game is %s", g.phase)
	}
	if g.roundNumber > 0 && g.trickNumber != g.roundNumber {
		log.Panicf("cannot start round %d - round %d is on trick %d of %d",
			g.roundNumber+1, g.roundNumber, g.trickNumber, g.roundNumber)
	}

	g.roundNumber++
	g.trickNumber = 0

	g.bids = make(map[shared.PlayerId]*Bid)
	for _, p := range g.players {
		g.bids[p] = nil
	}
	g.roundPhase = Bidding

	// The whole round's turn order up front: one pass per trick. The head of
	// the remaining order is always whose turn is next.
	g.roundTurnOrder = make([]shared.PlayerId, 0, len(g.players)*g.roundNumber)
	for i := 0; i < g.roundNumber; i++ {
		g.roundTurnOrder = append(g.roundTurnOrder, g.players...)
	}
	for _, p := range g.players {
		g.winsOfTheRound[p] = 0
	}

	g.dealCards()
	g.recordEvent(RoundStarted{RoundNumber: g.roundNumber})
}

func (g *Game) startNextTrick() {
	if g.roundPhase != BiddingComplete && g.roundPhase != TrickComplete {
		log.Panicf("cannot start a trick during %s", g.roundPhase)
	}

	g.trickNumber++
	g.trick = shared.NewTrick(len(g.players))
	g.roundPhase = TrickTaking
	g.recordEvent(TrickStarted{
		TrickNumber: g.trickNumber,
		TurnOrder:   append([]shared.PlayerId{}, g.roundTurnOrder[:len(g.players)]...),
	})
}

func (g *Game) dealCards() {
	deck := shared.NewDeck()
	dealt := make(map[shared.PlayerId][]shared.Card, len(g.players))
	for _, p := range g.players {
		if rigged, ok := g.riggedHands[p]; ok {
			hand := append([]shared.Card{}, rigged...)
			g.hands[p] = hand
			dealt[p] = append([]shared.Card{}, hand...)
			continue
		}
		hand, err := deck.TakeCards(g.roundNumber)
		if err != nil {
			log.Panicf("dealing round %d: %v", g.roundNumber, err)
		}
		g.hands[p] = hand
		dealt[p] = append([]shared.Card{}, hand...)
	}
	g.recordEvent(CardsDealt{Cards: dealt})
}

func (g *Game) recordEvent(event GameEvent) {
	g.eventsBuffer = append(g.eventsBuffer, event)
}

func (g *Game) flushEvents(triggeredBy shared.PlayerId) error {
	events := g.eventsBuffer
	g.eventsBuffer = nil
	if len(events) == 0 {
		return nil
	}
	g.allEvents = append(g.allEvents, events...)

	for _, listener := range g.listeners {
		if err := listener(events, triggeredBy); err != nil {
			return err
		}
	}
	return nil
}

func (g *Game) currentPlayersTurn() shared.PlayerId {
	if g.roundPhase != TrickTaking || len(g.roundTurnOrder) == 0 {
		return ""
	}
	return g.roundTurnOrder[0]
}

func (g *Game) hasAlreadyBid(playerId shared.PlayerId) bool {
	bid, ok := g.bids[playerId]
	if !ok {
		// Not at the table this round; treated like a spent bid.
		return true
	}
	return bid != nil
}

func (g *Game) bidsAreComplete() bool {
	for _, bid := range g.bids {
		if bid == nil {
			return false
		}
	}
	return len(g.bids) > 0
}

func (g *Game) completedBids() map[shared.PlayerId]Bid {
	bids := make(map[shared.PlayerId]Bid, len(g.bids))
	for p, bid := range g.bids {
		if bid == nil {
			log.Panicf("player %s has not bid yet", p)
		}
		bids[p] = *bid
	}
	return bids
}

func (g *Game) playersCopy() []shared.PlayerId {
	return append([]shared.PlayerId{}, g.players...)
}

func excluding(hand []shared.Card, card shared.Card) []shared.Card {
	rest := make([]shared.Card, 0, len(hand))
	removed := false
	for _, c := range hand {
		if !removed && c == card {
			removed = true
			continue
		}
		rest = append(rest, c)
	}
	return rest
}

// --- Read accessors. Safe to call from any goroutine, but not from inside a
// subscriber callback, which already holds the game's lock. ---

// Players returns the joined players in join order.
func (g *Game) Players() []shared.PlayerId {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.playersCopy()
}

// Phase returns the game phase.
func (g *Game) Phase() GamePhase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

// RoundPhase returns the phase within the current round, or "" before the
// first round.
func (g *Game) RoundPhase() RoundPhase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.roundPhase
}

// RoundNumber returns the current round number, 0 before the first round.
func (g *Game) RoundNumber() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.roundNumber
}

// TrickNumber returns the current trick number within the round, 0 before the
// first trick.
func (g *Game) TrickNumber() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.trickNumber
}

// CurrentPlayersTurn returns whose turn is next, or "" when no trick is in
// progress.
func (g *Game) CurrentPlayersTurn() shared.PlayerId {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.currentPlayersTurn()
}

// TrickWinner returns the winner of the last completed trick.
func (g *Game) TrickWinner() shared.PlayerId {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.trickWinner
}

// CurrentTrick returns the plays of the trick in progress, in order.
func (g *Game) CurrentTrick() []shared.PlayedCard {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.trick == nil {
		return nil
	}
	return append([]shared.PlayedCard{}, g.trick.PlayedCards()...)
}

// WinsOfTheRound returns each player's trick wins this round.
func (g *Game) WinsOfTheRound() map[shared.PlayerId]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	wins := make(map[shared.PlayerId]int, len(g.winsOfTheRound))
	for p, w := range g.winsOfTheRound {
		wins[p] = w
	}
	return wins
}

// Bids returns each player's bid as it may currently be displayed: a placed
// bid stays Hidden until every player has bid.
func (g *Game) Bids() map[shared.PlayerId]DisplayBid {
	g.mu.RLock()
	defer g.mu.RUnlock()

	complete := g.bidsAreComplete()
	display := make(map[shared.PlayerId]DisplayBid, len(g.bids))
	for p, bid := range g.bids {
		switch {
		case bid == nil:
			display[p] = DisplayBid{State: BidNone}
		case complete:
			display[p] = DisplayBid{State: BidRevealed, Bid: *bid}
		default:
			display[p] = DisplayBid{State: BidHidden}
		}
	}
	return display
}

// CardsInHand returns the player's hand with per-card playability, or nil for
// an unknown player.
func (g *Game) CardsInHand(playerId shared.PlayerId) []shared.CardWithPlayability {
	g.mu.RLock()
	defer g.mu.RUnlock()

	hand, ok := g.hands[playerId]
	if !ok {
		return nil
	}
	cards := make([]shared.CardWithPlayability, len(hand))
	for i, card := range hand {
		playable := true
		if g.trick != nil {
			playable = g.trick.IsCardPlayable(card, excluding(hand, card))
		}
		cards[i] = shared.CardWithPlayability{Card: card, IsPlayable: playable}
	}
	return cards
}

// EventsSoFar returns a copy of the full event log.
func (g *Game) EventsSoFar() []GameEvent {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]GameEvent{}, g.allEvents...)
}
