package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// One statement per entry; pgx's extended protocol rejects batched DDL
// in a single Exec.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id           BIGSERIAL PRIMARY KEY,
		room_code    TEXT        NOT NULL,
		rounds       INT         NOT NULL,
		finished_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS game_players (
		game_id         BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		display_name    TEXT   NOT NULL,
		rank            INT    NOT NULL,
		score           INT    NOT NULL,
		correct_guesses INT    NOT NULL,
		PRIMARY KEY (game_id, rank)
	)`,
}

// Postgres records finished games in two tables, one row per game and
// one per final standing.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the history tables if they do not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// RecordGame inserts one finished game and its standings in a single
// transaction.
func (s *Postgres) RecordGame(ctx context.Context, rec GameRecord) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var gameID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO games(room_code, rounds, finished_at) VALUES($1, $2, $3) RETURNING id`,
		rec.RoomCode, rec.RoundsPlayed, rec.FinishedAt,
	).Scan(&gameID)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	for _, p := range rec.Players {
		_, err = tx.Exec(ctx,
			`INSERT INTO game_players(game_id, display_name, rank, score, correct_guesses)
			 VALUES($1, $2, $3, $4, $5)`,
			gameID, p.DisplayName, p.Rank, p.Score, p.CorrectGuesses,
		)
		if err != nil {
			return fmt.Errorf("insert standing: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Postgres) Close() {
	s.pool.Close()
}
