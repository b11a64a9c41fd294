package shared

import "log"

// Trick represents an in-progress or completed set of plays. Size is the
// number of participating players; the trick is complete once every player
// has played exactly one card.
type Trick struct {
	size        int
	playedCards []PlayedCard
	suit        Suit // established suit: the suit of the first colored card, "" until then
	specials    map[SpecialSuit]bool
}

// NewTrick creates a trick for the given number of players.
func NewTrick(size int) *Trick {
	return &Trick{
		size:     size,
		specials: make(map[SpecialSuit]bool),
	}
}

// PlayedCards returns the plays so far, in order.
func (t *Trick) PlayedCards() []PlayedCard {
	return t.playedCards
}

// IsComplete reports whether every participating player has played.
func (t *Trick) IsComplete() bool {
	return len(t.playedCards) == t.size
}

// Suit returns the established suit, or "" if only special cards have been
// played so far.
func (t *Trick) Suit() Suit {
	return t.suit
}

// Add records a play, establishing the suit on the first colored card.
func (t *Trick) Add(playedCard PlayedCard) {
	t.playedCards = append(t.playedCards, playedCard)

	card := playedCard.Card
	if !card.IsSpecial() && t.suit == "" {
		t.suit = card.Suit
	}
	if card.IsSpecial() {
		t.specials[card.Special] = true
	}
}

// IsCardPlayable checks the suit-following rule. restOfHand is the player's
// hand excluding the card in question. Special cards are always playable; a
// numbered card off the established suit is playable only when the rest of
// the hand holds no card of that suit.
func (t *Trick) IsCardPlayable(card Card, restOfHand []Card) bool {
	if len(restOfHand) == 0 || t.suit == "" {
		return true
	}

	if card.IsSpecial() {
		return true
	}
	if card.Suit == t.suit {
		return true
	}
	for _, other := range restOfHand {
		if !other.IsSpecial() && other.Suit == t.suit {
			return false
		}
	}
	return true
}

// Winner determines who took the trick. It folds over the plays in order,
// keeping a running winner, and must only be called on a complete trick.
//
// When a beats comparison fails and the trick contains both a Mermaid and the
// Skull King, the running winner becomes the first Mermaid played and the
// fold stops.
func (t *Trick) Winner() PlayerId {
	if !t.IsComplete() {
		log.Panicf("cannot determine the winner of an incomplete trick (%d/%d plays)", len(t.playedCards), t.size)
	}

	winnerSoFar := t.playedCards[0]

	for _, playedCard := range t.playedCards[1:] {
		if t.beats(playedCard.Card, winnerSoFar.Card) {
			winnerSoFar = playedCard
			continue
		}

		if t.specials[Mermaid] && t.specials[SkullKing] {
			winnerSoFar = t.firstPlayOf(SpecialCard(Mermaid))
			break
		}
	}

	return winnerSoFar.PlayerId
}

func (t *Trick) firstPlayOf(card Card) PlayedCard {
	for _, playedCard := range t.playedCards {
		if playedCard.Card == card {
			return playedCard
		}
	}
	log.Panicf("card %s was not played in this trick", card.Name())
	return PlayedCard{}
}

// beats reports whether card wins over other, given the composition of the
// whole trick (established suit and which specials are present).
func (t *Trick) beats(card, other Card) bool {
	if card.IsSpecial() {
		return t.specialBeats(card, other)
	}
	return t.numberedBeats(card, other)
}

func (t *Trick) numberedBeats(card, other Card) bool {
	if other.IsSpecial() {
		// A numbered card only ever beats an Escape.
		return other.Special == Escape
	}

	eitherBlack := card.Suit == Black || other.Suit == Black
	if eitherBlack && t.suit != Black {
		if card.Suit == other.Suit {
			return card.Number > other.Number
		}
		return card.Suit == Black
	}

	if card.Suit == t.suit {
		return card.Number > other.Number
	}
	return false
}

func (t *Trick) specialBeats(card, other Card) bool {
	if !other.IsSpecial() {
		return card.Special != Escape
	}
	if card.Special == other.Special {
		return false
	}

	switch card.Special {
	case Escape:
		return false
	case Pirate:
		return !t.specials[SkullKing]
	case Mermaid:
		return t.specials[SkullKing] || !t.specials[Pirate]
	case SkullKing:
		return !t.specials[Mermaid]
	default:
		log.Panicf("unknown special card %q", card.Special)
		return false
	}
}
