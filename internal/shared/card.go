package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit represents one of the four colored suits.
type Suit string

const (
	Red    Suit = "Red"
	Yellow Suit = "Yellow"
	Blue   Suit = "Blue"
	Black  Suit = "Black"
)

// SpecialSuit represents the kind of a special (non-numbered) card.
type SpecialSuit string

const (
	Escape    SpecialSuit = "Escape"
	Pirate    SpecialSuit = "Pirate"
	Mermaid   SpecialSuit = "Mermaid"
	SkullKing SpecialSuit = "SkullKing"
)

// CardName uniquely identifies a card kind, e.g. "Red-7" or "SkullKing".
type CardName string

// Card is either a numbered card (Suit + Number set) or a special card (Special
// set). It is an immutable value compared structurally.
type Card struct {
	Suit    Suit        `json:"suit,omitempty"`
	Number  int         `json:"number,omitempty"`
	Special SpecialSuit `json:"special,omitempty"`
}

// NumberedCard creates a colored card. Numbers run 1..13.
func NumberedCard(suit Suit, number int) Card {
	if number < 1 || number > 13 {
		panic(fmt.Sprintf("card number must be between 1 and 13, got %d", number))
	}
	return Card{Suit: suit, Number: number}
}

// SpecialCard creates an Escape, Pirate, Mermaid or SkullKing card.
func SpecialCard(kind SpecialSuit) Card {
	return Card{Special: kind}
}

// IsSpecial reports whether the card is one of the four special kinds.
func (c Card) IsSpecial() bool {
	return c.Special != ""
}

// Name returns the card's stable identity.
func (c Card) Name() CardName {
	if c.IsSpecial() {
		return CardName(c.Special)
	}
	return CardName(fmt.Sprintf("%s-%d", c.Suit, c.Number))
}

// PlayedBy pairs the card with the player who played it.
func (c Card) PlayedBy(playerId PlayerId) PlayedCard {
	return PlayedCard{PlayerId: playerId, Card: c}
}

// ParseCardName turns a card name back into a card. It is the inverse of Name.
func ParseCardName(name CardName) (Card, error) {
	switch SpecialSuit(name) {
	case Escape, Pirate, Mermaid, SkullKing:
		return SpecialCard(SpecialSuit(name)), nil
	}

	suit, numberText, found := strings.Cut(string(name), "-")
	if !found {
		return Card{}, fmt.Errorf("invalid card name %q", name)
	}
	switch Suit(suit) {
	case Red, Yellow, Blue, Black:
	default:
		return Card{}, fmt.Errorf("unknown suit in card name %q", name)
	}
	number, err := strconv.Atoi(numberText)
	if err != nil || number < 1 || number > 13 {
		return Card{}, fmt.Errorf("invalid number in card name %q", name)
	}
	return NumberedCard(Suit(suit), number), nil
}

// PlayedCard stores a card along with the player who played it.
type PlayedCard struct {
	PlayerId PlayerId `json:"playerId"`
	Card     Card     `json:"card"`
}

// CardWithPlayability pairs a card in a hand with whether it may currently be played.
type CardWithPlayability struct {
	Card       Card `json:"card"`
	IsPlayable bool `json:"isPlayable"`
}
