package shared

import "strings"

// PlayerId is a player's stable identity within a game: their normalized
// display name. Two players with the same name cannot share a table.
type PlayerId string

// UnidentifiedPlayer is the identity of a connection before it has joined.
const UnidentifiedPlayer PlayerId = "unidentified"

// NewPlayerId normalizes a display name into a player identity.
func NewPlayerId(name string) PlayerId {
	return PlayerId(strings.TrimSpace(name))
}

func (p PlayerId) String() string {
	return string(p)
}
