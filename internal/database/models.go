package database

import "strings"

// GameResult is one row per finished game. Wins holds a JSON object mapping
// player names to the total number of tricks they took.
type GameResult struct {
	Id        string   `json:"id"`
	CreatedAt string   `json:"created_at"`
	Players   []string `json:"players"`
	Rounds    int      `json:"rounds"`
	Wins      string   `json:"wins"`
}

func (r GameResult) playersColumn() string {
	return strings.Join(r.Players, ",")
}

func playersFromColumn(column string) []string {
	if column == "" {
		return nil
	}
	return strings.Split(column, ",")
}
