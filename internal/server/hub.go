package server

import (
	"encoding/json"
	"log"
	"time"

	"skullking-game/internal/database"
	"skullking-game/internal/game"
	"skullking-game/internal/shared"

	"github.com/google/uuid"
)

// Hub manages the WebSocket connections of the single game this process
// hosts, and records the result once the game completes.
type Hub struct {
	game       *game.Game
	db         *database.Service
	register   chan *Client
	unregister chan *Client
	clients    map[*Client]bool

	ackTimeout     time.Duration
	keepAliveEvery time.Duration

	// Written only from the game's event fan-out, which is serialized.
	playersJoined []shared.PlayerId
	roundsPlayed  int
	totalWins     map[shared.PlayerId]int
}

// NewHub creates a Hub bound to one game instance and its results store.
func NewHub(g *game.Game, db *database.Service, ackTimeout, keepAliveEvery time.Duration) *Hub {
	h := &Hub{
		game:           g,
		db:             db,
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		clients:        make(map[*Client]bool),
		ackTimeout:     ackTimeout,
		keepAliveEvery: keepAliveEvery,
		totalWins:      make(map[shared.PlayerId]int),
	}
	h.game.Subscribe(h.onGameEvents)
	return h
}

// Run starts the Hub's connection bookkeeping loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			client.Id = uuid.NewString()
			h.clients[client] = true
			log.Printf("Client %s connected", client.Id)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				log.Printf("Client %s disconnected", client.Id)
			}
		}
	}
}

// onGameEvents accumulates the data the results row needs and persists it
// when the game completes. Persisting happens outside the game's critical
// section.
func (h *Hub) onGameEvents(events []game.GameEvent, _ shared.PlayerId) error {
	for _, event := range events {
		switch e := event.(type) {
		case game.PlayerJoined:
			h.playersJoined = append(h.playersJoined, e.PlayerId)
		case game.RoundStarted:
			h.roundsPlayed = e.RoundNumber
		case game.TrickCompleted:
			h.totalWins[e.Winner]++
		case game.GameCompleted:
			go h.recordResult(h.resultSnapshot())
		}
	}
	return nil
}

func (h *Hub) resultSnapshot() database.GameResult {
	players := make([]string, len(h.playersJoined))
	for i, p := range h.playersJoined {
		players[i] = p.String()
	}
	wins := make(map[string]int, len(h.totalWins))
	for p, w := range h.totalWins {
		wins[p.String()] = w
	}
	winsJSON, err := json.Marshal(wins)
	if err != nil {
		log.Printf("Error marshalling wins for game result: %v", err)
		winsJSON = []byte("{}")
	}

	return database.GameResult{
		Id:        uuid.NewString(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Players:   players,
		Rounds:    h.roundsPlayed,
		Wins:      string(winsJSON),
	}
}

func (h *Hub) recordResult(result database.GameResult) {
	if h.db == nil {
		return
	}
	if err := h.db.Insert(result); err != nil {
		log.Printf("Error recording game result %s: %v", result.Id, err)
		return
	}
	log.Printf("Recorded result of game %s (%d rounds)", result.Id, result.Rounds)
}
