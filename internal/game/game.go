// Package game implements the game-session coordinator: the room
// registry, the round state machine, the scoring engine, the geospatial
// matchmaking queue, the stroke log, and the websocket session gateway
// that feeds them.
package game

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/sketchparty/sketchparty-backend/internal/store"
	"github.com/sketchparty/sketchparty-backend/internal/words"
)

// Game wires the coordinator components together. All room mutations
// funnel through the registry and are serialized per room; the
// matchmaking queue serializes independently.
type Game struct {
	cfg      Config
	log      zerolog.Logger
	bank     *words.Bank
	reg      *Registry
	queue    *MatchQueue
	recorder store.GameRecorder

	now func() time.Time
}

// New builds a coordinator. recorder may be nil to disable game-history
// persistence.
func New(cfg Config, bank *words.Bank, recorder store.GameRecorder, log zerolog.Logger) *Game {
	cfg = cfg.withDefaults()
	if bank == nil {
		bank = words.Default()
	}
	return &Game{
		cfg:      cfg,
		log:      log,
		bank:     bank,
		reg:      NewRegistry(cfg, log),
		queue:    NewMatchQueue(cfg, log),
		recorder: recorder,
		now:      time.Now,
	}
}

// Registry exposes the room directory for the HTTP surface.
func (g *Game) Registry() *Registry { return g.reg }

// Queue exposes the matchmaking queue, mainly for tests and metrics.
func (g *Game) Queue() *MatchQueue { return g.queue }
