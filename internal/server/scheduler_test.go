package server

import (
	"sync"
	"testing"
	"time"

	"skullking-game/internal/game"
	"skullking-game/internal/shared"
)

func waitUntil(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 2s")
}

func playFirstPlayable(t *testing.T, g *game.Game, playerId shared.PlayerId) {
	t.Helper()
	for _, c := range g.CardsInHand(playerId) {
		if c.IsPlayable {
			if err := g.Perform(game.PlayCard{Player: playerId, CardName: c.Card.Name()}); err != nil {
				t.Fatalf("playing %s: %v", c.Card.Name(), err)
			}
			return
		}
	}
	t.Fatalf("%s has no playable card", playerId)
}

func TestSchedulerDrivesTheGame(t *testing.T) {
	g := game.NewGame()
	NewScheduler(g, 25*time.Millisecond).Start()

	if err := g.Perform(game.JoinGame{Player: "alice"}); err != nil {
		t.Fatalf("joining alice: %v", err)
	}
	if err := g.Perform(game.JoinGame{Player: "bob"}); err != nil {
		t.Fatalf("joining bob: %v", err)
	}

	// Two players in: the game starts and deals round one by itself.
	waitUntil(t, func() bool {
		return g.Phase() == game.InProgress && g.RoundPhase() == game.Bidding
	})
	if got := g.RoundNumber(); got != 1 {
		t.Fatalf("expected round 1, got %d", got)
	}

	if err := g.Perform(game.PlaceBid{Player: "alice", Bid: 0}); err != nil {
		t.Fatalf("alice bidding: %v", err)
	}
	if err := g.Perform(game.PlaceBid{Player: "bob", Bid: 0}); err != nil {
		t.Fatalf("bob bidding: %v", err)
	}

	// Bidding done: the first trick starts by itself.
	waitUntil(t, func() bool { return g.RoundPhase() == game.TrickTaking })

	playFirstPlayable(t, g, g.CurrentPlayersTurn())
	playFirstPlayable(t, g, g.CurrentPlayersTurn())

	// Round one is a single trick: the next round starts by itself.
	waitUntil(t, func() bool { return g.RoundNumber() == 2 && g.RoundPhase() == game.Bidding })
}

func TestSchedulerAdvancesTricksWithinARound(t *testing.T) {
	g := game.NewGame()
	NewScheduler(g, 10*time.Millisecond).Start()

	for _, p := range []shared.PlayerId{"alice", "bob"} {
		if err := g.Perform(game.JoinGame{Player: p}); err != nil {
			t.Fatalf("joining %s: %v", p, err)
		}
	}
	waitUntil(t, func() bool { return g.RoundPhase() == game.Bidding })

	for round := 1; round <= 3; round++ {
		if got := g.RoundNumber(); got != round {
			t.Fatalf("expected round %d, got %d", round, got)
		}
		for _, p := range g.Players() {
			if err := g.Perform(game.PlaceBid{Player: p, Bid: 0}); err != nil {
				t.Fatalf("%s bidding in round %d: %v", p, round, err)
			}
		}
		for trick := 1; trick <= round; trick++ {
			waitUntil(t, func() bool {
				return g.RoundPhase() == game.TrickTaking && g.TrickNumber() == trick
			})
			playFirstPlayable(t, g, g.CurrentPlayersTurn())
			playFirstPlayable(t, g, g.CurrentPlayersTurn())
		}
		waitUntil(t, func() bool { return g.RoundNumber() == round+1 && g.RoundPhase() == game.Bidding })
	}
}

func TestSchedulerSkipsStaleActions(t *testing.T) {
	g := game.NewGame()

	var mu sync.Mutex
	gameStarts := 0
	g.Subscribe(func(events []game.GameEvent, _ shared.PlayerId) error {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if _, ok := e.(game.GameStarted); ok {
				gameStarts++
			}
		}
		return nil
	})

	NewScheduler(g, 150*time.Millisecond).Start()

	for _, p := range []shared.PlayerId{"alice", "bob"} {
		if err := g.Perform(game.JoinGame{Player: p}); err != nil {
			t.Fatalf("joining %s: %v", p, err)
		}
	}

	// The game progresses before the scheduled start fires; the stale action
	// must not fire a second start.
	if err := g.PerformGameMaster(game.StartGame{}); err != nil {
		t.Fatalf("starting manually: %v", err)
	}
	if err := g.PerformGameMaster(game.StartNextRound{}); err != nil {
		t.Fatalf("starting round manually: %v", err)
	}

	time.Sleep(400 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if gameStarts != 1 {
		t.Fatalf("expected exactly one GameStarted, got %d", gameStarts)
	}
	if got := g.RoundNumber(); got != 1 {
		t.Fatalf("expected the game to still be in round 1, got %d", got)
	}
}
