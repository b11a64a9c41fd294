package server

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"skullking-game/internal/database"
	"skullking-game/internal/game"
	"skullking-game/internal/protocol"
)

// HandleRoutes registers the HTTP API: out-of-band game-master commands and
// the results endpoints.
func HandleRoutes(db *database.Service, g *game.Game, gameMasterAutomated bool) {
	http.HandleFunc("POST /api/game-master-command", func(w http.ResponseWriter, r *http.Request) {
		GameMasterCommandHandler(g, gameMasterAutomated, w, r)
	})

	log.Println("Registered route: POST /api/game-master-command")

	http.HandleFunc("/api/results/player/{name}", func(w http.ResponseWriter, r *http.Request) {
		GetResultsByPlayerHandler(db, w, r)
	})

	log.Println("Registered route: /api/results/player/{name}")

	http.HandleFunc("/api/results", func(w http.ResponseWriter, r *http.Request) {
		GetResultsHandler(db, w, r)
	})

	log.Println("Registered route: /api/results")
}

// GameMasterCommandHandler submits a game-master command. Forbidden while the
// automated game master is driving the game.
func GameMasterCommandHandler(g *game.Game, gameMasterAutomated bool, w http.ResponseWriter, r *http.Request) {
	if gameMasterAutomated {
		http.Error(w, "Game master commands are automated", http.StatusForbidden)
		return
	}

	var payload protocol.GameMasterCommandPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid game master command payload", http.StatusBadRequest)
		return
	}

	command, err := payload.ToGameMasterCommand()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Precondition failures panic; surface them to the out-of-band caller
	// instead of crashing the game process.
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Printf("Game master command %s failed: %v", payload.Command, recovered)
			http.Error(w, "Game master command precondition failed", http.StatusUnprocessableEntity)
		}
	}()

	if err := g.PerformGameMaster(command); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetResultsByPlayerHandler fetches the recorded results a player took part in.
func GetResultsByPlayerHandler(db *database.Service, w http.ResponseWriter, r *http.Request) {
	player := r.PathValue("name")
	if player == "" {
		http.Error(w, "Player name is required", http.StatusBadRequest)
		return
	}

	results, err := db.GetByPlayer(player)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "No results found for player", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// GetResultsHandler fetches all recorded game results.
func GetResultsHandler(db *database.Service, w http.ResponseWriter, r *http.Request) {
	results, err := db.GetAll()
	if err != nil {
		http.Error(w, "Failed to fetch results", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
