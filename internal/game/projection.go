package game

import "skullking-game/internal/shared"

// DisplayBidState tags a DisplayBid.
type DisplayBidState string

const (
	BidNone     DisplayBidState = "None"
	BidHidden   DisplayBidState = "Hidden"
	BidRevealed DisplayBidState = "Placed"
)

// DisplayBid is the privacy projection of a bid: a placed bid is shown as
// Hidden to everyone, the bidder included, until all bids for the round are
// in.
type DisplayBid struct {
	State DisplayBidState `json:"state"`
	Bid   Bid             `json:"bid,omitempty"`
}

// PlayerState is a player-specific read model: a pure left-fold of the event
// log, recomputable from scratch from the full event history. Other players'
// hands are never observable through it.
type PlayerState struct {
	PlayerId       shared.PlayerId              `json:"playerId"`
	WinsOfTheRound map[shared.PlayerId]int      `json:"winsOfTheRound,omitempty"`
	TrickWinner    shared.PlayerId              `json:"trickWinner,omitempty"`
	CurrentPlayer  shared.PlayerId              `json:"currentPlayer,omitempty"`
	TrickNumber    int                          `json:"trickNumber"`
	RoundNumber    int                          `json:"roundNumber"`
	Trick          []shared.PlayedCard          `json:"trick,omitempty"`
	RoundPhase     RoundPhase                   `json:"roundPhase,omitempty"`
	GamePhase      GamePhase                    `json:"gamePhase,omitempty"`
	PlayersInRoom  []shared.PlayerId            `json:"playersInRoom,omitempty"`
	Hand           []shared.CardWithPlayability `json:"hand,omitempty"`
	Bids           map[shared.PlayerId]DisplayBid `json:"bids,omitempty"`
	TurnOrder      []shared.PlayerId            `json:"turnOrder,omitempty"`
	CurrentSuit    shared.Suit                  `json:"currentSuit,omitempty"`

	trickSize int
}

// NewPlayerState creates the empty state of a player who has seen no events.
func NewPlayerState(playerId shared.PlayerId) PlayerState {
	return PlayerState{PlayerId: playerId}
}

// ProjectPlayerState folds a full event history into one player's state.
func ProjectPlayerState(playerId shared.PlayerId, events []GameEvent) PlayerState {
	return NewPlayerState(playerId).HandleAll(events)
}

// HandleAll folds a batch of events, in order.
func (s PlayerState) HandleAll(events []GameEvent) PlayerState {
	for _, event := range events {
		s = s.Handle(event)
	}
	return s
}

// Handle folds a single event into a new state. The receiver is never
// mutated.
func (s PlayerState) Handle(event GameEvent) PlayerState {
	switch e := event.(type) {
	case PlayerJoined:
		s.PlayersInRoom = append(append([]shared.PlayerId{}, s.PlayersInRoom...), e.PlayerId)
		if len(s.PlayersInRoom) >= minPlayersToStart {
			s.GamePhase = WaitingToStart
		} else {
			s.GamePhase = WaitingForMorePlayers
		}

	case GameStarted:
		s.GamePhase = InProgress

	case RoundStarted:
		s.RoundNumber = e.RoundNumber
		s.TrickNumber = 0
		s.RoundPhase = Bidding
		s.Bids = make(map[shared.PlayerId]DisplayBid, len(s.PlayersInRoom))
		s.WinsOfTheRound = make(map[shared.PlayerId]int, len(s.PlayersInRoom))
		for _, p := range s.PlayersInRoom {
			s.Bids[p] = DisplayBid{State: BidNone}
			s.WinsOfTheRound[p] = 0
		}

	case CardsDealt:
		hand := e.Cards[s.PlayerId]
		s.Hand = make([]shared.CardWithPlayability, len(hand))
		for i, card := range hand {
			s.Hand[i] = shared.CardWithPlayability{Card: card}
		}

	case BidPlaced:
		s.Bids = copyBids(s.Bids)
		s.Bids[e.PlayerId] = DisplayBid{State: BidHidden}

	case BiddingCompleted:
		s.RoundPhase = BiddingComplete
		s.Bids = make(map[shared.PlayerId]DisplayBid, len(e.Bids))
		for p, bid := range e.Bids {
			s.Bids[p] = DisplayBid{State: BidRevealed, Bid: bid}
		}

	case TrickStarted:
		s.CurrentSuit = ""
		s.TrickNumber = e.TrickNumber
		s.Trick = nil
		s.trickSize = len(e.TurnOrder)
		s.RoundPhase = TrickTaking
		s.TurnOrder = append([]shared.PlayerId{}, e.TurnOrder...)
		s.CurrentPlayer = e.TurnOrder[0]
		if s.CurrentPlayer == s.PlayerId {
			s.Hand = s.handWithPlayability(true)
		}

	case CardPlayed:
		s.Trick = append(append([]shared.PlayedCard{}, s.Trick...), e.Card.PlayedBy(e.PlayerId))

		s.CurrentPlayer = ""
		if len(s.Trick) < len(s.TurnOrder) {
			s.CurrentPlayer = s.TurnOrder[len(s.Trick)]
		}

		if s.CurrentSuit == "" && !e.Card.IsSpecial() {
			s.CurrentSuit = e.Card.Suit
		}

		switch s.PlayerId {
		case e.PlayerId:
			s.Hand = s.handWithout(e.Card)
		case s.CurrentPlayer:
			s.Hand = s.handRecomputed()
		default:
			s.Hand = s.handWithPlayability(false)
		}

	case TrickCompleted:
		s.RoundPhase = TrickComplete
		s.TrickWinner = e.Winner
		wins := make(map[shared.PlayerId]int, len(s.WinsOfTheRound))
		for p, w := range s.WinsOfTheRound {
			wins[p] = w
		}
		wins[e.Winner]++
		s.WinsOfTheRound = wins

	case GameCompleted:
		s.GamePhase = Complete
	}

	return s
}

func (s PlayerState) handWithPlayability(playable bool) []shared.CardWithPlayability {
	hand := make([]shared.CardWithPlayability, len(s.Hand))
	for i, c := range s.Hand {
		hand[i] = shared.CardWithPlayability{Card: c.Card, IsPlayable: playable}
	}
	return hand
}

func (s PlayerState) handWithout(card shared.Card) []shared.CardWithPlayability {
	hand := make([]shared.CardWithPlayability, 0, len(s.Hand))
	removed := false
	for _, c := range s.Hand {
		if !removed && c.Card == card {
			removed = true
			continue
		}
		hand = append(hand, shared.CardWithPlayability{Card: c.Card})
	}
	return hand
}

// handRecomputed rebuilds playability against the trick so far; used when it
// has just become this player's turn.
func (s PlayerState) handRecomputed() []shared.CardWithPlayability {
	trick := shared.NewTrick(s.trickSize)
	for _, playedCard := range s.Trick {
		trick.Add(playedCard)
	}

	cards := make([]shared.Card, len(s.Hand))
	for i, c := range s.Hand {
		cards[i] = c.Card
	}

	hand := make([]shared.CardWithPlayability, len(s.Hand))
	for i, c := range s.Hand {
		rest := restExcludingIndex(cards, i)
		hand[i] = shared.CardWithPlayability{
			Card:       c.Card,
			IsPlayable: trick.IsCardPlayable(c.Card, rest),
		}
	}
	return hand
}

func restExcludingIndex(cards []shared.Card, index int) []shared.Card {
	rest := make([]shared.Card, 0, len(cards)-1)
	rest = append(rest, cards[:index]...)
	return append(rest, cards[index+1:]...)
}

func copyBids(bids map[shared.PlayerId]DisplayBid) map[shared.PlayerId]DisplayBid {
	copied := make(map[shared.PlayerId]DisplayBid, len(bids))
	for p, bid := range bids {
		copied[p] = bid
	}
	return copied
}
