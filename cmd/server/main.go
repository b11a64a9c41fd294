package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"skullking-game/internal/database"
	"skullking-game/internal/game"
	"skullking-game/internal/server"
)

func main() {
	log.Println("Starting Skull King server...")

	port := envOr("PORT", "8080")
	dbPath := envOr("SKULLKING_DB", "./skullking.db")
	ackTimeout := envDurationMs("ACK_TIMEOUT_MS", 3000)
	keepAliveEvery := envDurationMs("KEEP_ALIVE_MS", 15000)
	gameMasterDelay := envDurationMs("GAME_MASTER_DELAY_MS", 3000)
	automateGameMaster := envOr("AUTO_GAME_MASTER", "true") == "true"

	db := database.New(dbPath)
	defer db.Close()

	g := game.NewGame()

	hub := server.NewHub(g, &db, ackTimeout, keepAliveEvery)
	go hub.Run()

	if automateGameMaster {
		server.NewScheduler(g, gameMasterDelay).Start()
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWs(hub, w, r)
	})

	fs := http.FileServer(http.Dir("web/static"))
	http.Handle("/", fs)

	server.HandleRoutes(&db, g, automateGameMaster)

	log.Printf("Listening on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDurationMs(key string, fallbackMs int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
		log.Printf("Invalid %s value %q, using default %dms", key, value, fallbackMs)
	}
	return time.Duration(fallbackMs) * time.Millisecond
}
