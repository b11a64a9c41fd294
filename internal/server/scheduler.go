package server

import (
	"log"
	"sync"
	"time"

	"skullking-game/internal/game"
	"skullking-game/internal/shared"
)

// Scheduler is the automated game master. It listens to the event stream and,
// after a delay, issues the next game-master command - unless a newer event
// has been recorded since, in which case the scheduled action is silently
// skipped. The compare-and-act guard stands in for cancellation, since the
// delay may span further game progress.
type Scheduler struct {
	game  *game.Game
	delay time.Duration

	mu          sync.Mutex
	seq         int // events seen so far
	playerCount int
	started     bool
}

// NewScheduler creates a scheduler for the given game.
func NewScheduler(g *game.Game, delay time.Duration) *Scheduler {
	return &Scheduler{game: g, delay: delay}
}

// Start subscribes the scheduler to the game's event stream.
func (s *Scheduler) Start() {
	pastEvents := s.game.Subscribe(s.onGameEvents)
	if len(pastEvents) > 0 {
		s.onGameEvents(pastEvents, "")
	}
}

func (s *Scheduler) onGameEvents(events []game.GameEvent, _ shared.PlayerId) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range events {
		s.seq++

		switch event.(type) {
		case game.PlayerJoined:
			s.playerCount++
			if s.playerCount >= 2 && !s.started {
				s.schedule(s.seq, func() {
					log.Println("Starting the game")
					s.perform(game.StartGame{})
					s.perform(game.StartNextRound{})
				})
			}

		case game.GameStarted:
			s.started = true

		case game.BiddingCompleted:
			s.schedule(s.seq, func() {
				log.Println("Starting the next trick")
				s.perform(game.StartNextTrick{})
			})

		case game.TrickCompleted:
			s.schedule(s.seq, func() {
				// Round-vs-trick is decided at fire time: the completed trick
				// number equalling the round number means the round is done.
				if s.game.TrickNumber() == s.game.RoundNumber() {
					log.Println("Starting the next round")
					s.perform(game.StartNextRound{})
				} else {
					log.Println("Starting the next trick")
					s.perform(game.StartNextTrick{})
				}
			})
		}
	}
	return nil
}

// schedule runs action after the configured delay, unless the triggering
// event is no longer the most recently recorded one.
func (s *Scheduler) schedule(seq int, action func()) {
	time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		stale := s.seq != seq
		s.mu.Unlock()
		if stale {
			return
		}
		action()
	})
}

func (s *Scheduler) perform(command game.GameMasterCommand) {
	if err := s.game.PerformGameMaster(command); err != nil {
		log.Printf("Automated game master command failed: %v", err)
	}
}
