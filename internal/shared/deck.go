package shared

import (
	"fmt"
	"math/rand/v2"
)

// Deck represents a shuffled collection of cards.
type Deck struct {
	Cards []Card
}

// NewDeck creates a full 65-card Skull King deck, shuffled uniformly:
// 13 numbered cards per colored suit, 5 Escapes, 5 Pirates, 2 Mermaids and
// a single Skull King.
func NewDeck() *Deck {
	suits := []Suit{Red, Yellow, Blue, Black}

	var cards []Card
	for _, suit := range suits {
		for number := 1; number <= 13; number++ {
			cards = append(cards, NumberedCard(suit, number))
		}
	}
	for i := 0; i < 5; i++ {
		cards = append(cards, SpecialCard(Escape))
	}
	for i := 0; i < 5; i++ {
		cards = append(cards, SpecialCard(Pirate))
	}
	for i := 0; i < 2; i++ {
		cards = append(cards, SpecialCard(Mermaid))
	}
	cards = append(cards, SpecialCard(SkullKing))

	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return &Deck{Cards: cards}
}

// TakeCards removes and returns count cards from the front of the deck.
// Underflow is not expected in normal 2-6 player, 10 round play but is a
// checked precondition.
func (d *Deck) TakeCards(count int) ([]Card, error) {
	if len(d.Cards) < count {
		return nil, fmt.Errorf("not enough cards in deck (%d) to take %d", len(d.Cards), count)
	}
	taken := make([]Card, count)
	copy(taken, d.Cards[:count])
	d.Cards = d.Cards[count:]
	return taken, nil
}
