// Package store persists finished game results. The coordinator itself
// is in-memory only; the store is a write-behind history sink.
package store

import (
	"context"
	"time"
)

// PlayerResult is one player's final standing in a finished game.
type PlayerResult struct {
	DisplayName    string
	Rank           int
	Score          int
	CorrectGuesses int
}

// GameRecord is the durable summary of one completed game.
type GameRecord struct {
	RoomCode     string
	RoundsPlayed int
	Players      []PlayerResult
	FinishedAt   time.Time
}

// GameRecorder receives a record once per finished game. Implementations
// must tolerate the same room code appearing many times; codes are
// reused after rooms are destroyed.
type GameRecorder interface {
	RecordGame(ctx context.Context, rec GameRecord) error
}
