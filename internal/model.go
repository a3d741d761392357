package internal

import (
	"sync"
	"time"
)

const (
	RoundDuration     = 60 * time.Second
	SettleDelay       = 5 * time.Second
	MaxPlayersPerRoom = 8
	MinPlayersToStart = 2
	MaxRounds         = 3

	NearbyRadiusKm = 5.0
	QueueFreshness = 60 * time.Second
)

// RoundState is the per-room state machine position.
type RoundState string

const (
	StateLobby    RoundState = "lobby"
	StateActive   RoundState = "round_active"
	StateSettling RoundState = "round_settling"
	StateGameOver RoundState = "game_over"
)

// Conn is the outbound half of a client connection. The gateway backs it
// with a gorilla websocket; tests back it with an in-memory recorder.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type Player struct {
	ConnID      string `json:"connectionId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	IsHost      bool   `json:"isHost"`

	// Streak counts consecutive rounds with a correct guess. The bonus
	// for a guess uses the value before that guess is credited.
	Streak       int `json:"streak"`
	CorrectCount int `json:"correctGuessCount"`
	TotalGuesses int `json:"totalGuesses"`

	// JoinSeq preserves original join order for ranking tiebreaks.
	JoinSeq  int       `json:"-"`
	JoinedAt time.Time `json:"-"`

	Conn Conn `json:"-"`
}

// Room is the aggregate owned by the registry. All fields are guarded by
// Mu; no component may hold a Room across an asynchronous boundary —
// deferred work re-fetches the room by code.
type Room struct {
	Code       string
	Players    []*Player // order is turn rotation and host succession
	MaxPlayers int

	Started       bool
	RoundNumber   int
	MaxRounds     int
	DrawerIndex   int
	SecretWord    string
	State         RoundState
	RoundDeadline time.Time

	// RoundSeq increments at every settlement; a scheduled callback
	// carries the value it was created under and no-ops on mismatch.
	RoundSeq uint64

	// Guessed holds connection ids of correct guessers this round, in
	// insertion order (scoring priority). Never contains the drawer.
	Guessed []string

	Strokes StrokeLog

	// DrawerLeft marks that the active drawer was removed mid-round, so
	// settlement must not skip the player that slid into their slot.
	DrawerLeft bool

	nextJoinSeq int

	// cancelTimer stops the pending deadline or settle callback.
	cancelTimer func()

	// destroyed marks a room the registry has torn down. A mutator that
	// fetched the room pointer before teardown and won the lock after it
	// must treat the room as gone.
	destroyed bool

	Mu sync.Mutex
}

func (r *Room) Drawer() *Player {
	if !r.Started || r.DrawerIndex < 0 || r.DrawerIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.DrawerIndex]
}

func (r *Room) FindPlayer(connID string) *Player {
	for _, p := range r.Players {
		if p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) NextJoinSeq() int {
	r.nextJoinSeq++
	return r.nextJoinSeq
}

func (r *Room) HasGuessed(connID string) bool {
	for _, id := range r.Guessed {
		if id == connID {
			return true
		}
	}
	return false
}

// AllGuessed reports whether every non-drawer has guessed correctly.
func (r *Room) AllGuessed() bool {
	if len(r.Players) < 2 {
		return false
	}
	drawer := r.Drawer()
	for _, p := range r.Players {
		if p == drawer {
			continue
		}
		if !r.HasGuessed(p.ConnID) {
			return false
		}
	}
	return true
}

// MarkDestroyed flags the room as removed from the registry. Call with
// the room lock held.
func (r *Room) MarkDestroyed() { r.destroyed = true }

// IsDestroyed reports whether the room has been torn down. Call with
// the room lock held.
func (r *Room) IsDestroyed() bool { return r.destroyed }

// SetTimer swaps the room's pending callback canceller, cancelling any
// previous one. Call with the room lock held.
func (r *Room) SetTimer(cancel func()) {
	if r.cancelTimer != nil {
		r.cancelTimer()
	}
	r.cancelTimer = cancel
}

// MatchmakingEntry is one searcher waiting in the queue. It never
// coexists with room membership for the same connection.
type MatchmakingEntry struct {
	ConnID      string
	DisplayName string
	Lat         float64
	Lng         float64
	EnqueuedAt  time.Time
	Conn        Conn
}
