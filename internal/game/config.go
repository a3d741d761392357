package game

import (
	"time"

	"github.com/sketchparty/sketchparty-backend/internal"
)

// Config holds the coordinator tunables. Zero values are replaced by the
// defaults from the internal package.
type Config struct {
	RoundDuration  time.Duration
	SettleDelay    time.Duration
	MaxRounds      int
	MaxPlayers     int
	MinPlayers     int
	NearbyRadiusKm float64
	QueueFreshness time.Duration
}

func DefaultConfig() Config {
	return Config{
		RoundDuration:  internal.RoundDuration,
		SettleDelay:    internal.SettleDelay,
		MaxRounds:      internal.MaxRounds,
		MaxPlayers:     internal.MaxPlayersPerRoom,
		MinPlayers:     internal.MinPlayersToStart,
		NearbyRadiusKm: internal.NearbyRadiusKm,
		QueueFreshness: internal.QueueFreshness,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RoundDuration <= 0 {
		c.RoundDuration = d.RoundDuration
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = d.SettleDelay
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = d.MaxRounds
	}
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = d.MaxPlayers
	}
	if c.MinPlayers < 2 {
		c.MinPlayers = d.MinPlayers
	}
	if c.NearbyRadiusKm <= 0 {
		c.NearbyRadiusKm = d.NearbyRadiusKm
	}
	if c.QueueFreshness <= 0 {
		c.QueueFreshness = d.QueueFreshness
	}
	return c
}
