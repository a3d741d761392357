package game

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/sketchparty/sketchparty-backend/internal"
	"github.com/sketchparty/sketchparty-backend/internal/words"
)

// codeAlphabet excludes glyphs players confuse when reading codes aloud.
const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// Registry is the authoritative map from room code to Room. Rooms are
// looked up and mutated only through it; a room whose player list
// becomes empty is destroyed immediately and its code is reusable.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*internal.Room

	cfg Config
	log zerolog.Logger
}

func NewRegistry(cfg Config, log zerolog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*internal.Room),
		cfg:   cfg.withDefaults(),
		log:   log,
	}
}

// CreateRoom makes a new room with the creator as sole member and host.
// An empty code asks the registry to generate a fresh one.
func (rg *Registry) CreateRoom(code string, creator *internal.Player) (*internal.Room, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = rg.freshCodeLocked()
	} else if _, exists := rg.rooms[code]; exists {
		return nil, internal.ErrRoomExists
	}

	room := &internal.Room{
		Code:       code,
		MaxPlayers: rg.cfg.MaxPlayers,
		MaxRounds:  rg.cfg.MaxRounds,
		State:      internal.StateLobby,
	}
	creator.IsHost = true
	creator.JoinSeq = room.NextJoinSeq()
	creator.JoinedAt = time.Now()
	room.Players = append(room.Players, creator)
	rg.rooms[code] = room

	rg.log.Info().Str("room", code).Str("host", creator.DisplayName).Msg("room created")
	return room, nil
}

// Get returns the current room for a code.
func (rg *Registry) Get(code string) (*internal.Room, error) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	room, ok := rg.rooms[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, internal.ErrRoomNotFound
	}
	return room, nil
}

// JoinResult is the snapshot a join fanout needs, taken in the same
// critical section as the mutation so no member sees a partial state.
type JoinResult struct {
	Room       *internal.Room
	Player     *internal.Player
	Recipients []*internal.Player
	Infos      []internal.PlayerInfo
	Started    bool

	// Late-join replay: populated when the room already has an active
	// or settling round in progress.
	History []internal.Stroke
	Round   *internal.NewRoundData
}

// JoinRoom appends a player to an existing room. Display names are
// unique case-insensitively within the room.
func (rg *Registry) JoinRoom(code string, player *internal.Player) (JoinResult, error) {
	room, err := rg.Get(code)
	if err != nil {
		return JoinResult{}, err
	}
	return rg.join(room, player)
}

func (rg *Registry) join(room *internal.Room, player *internal.Player) (JoinResult, error) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.IsDestroyed() {
		// Lost the race against the last member leaving; the code now
		// refers to nothing, or to a brand-new room.
		return JoinResult{}, internal.ErrRoomNotFound
	}
	if len(room.Players) >= room.MaxPlayers {
		return JoinResult{}, internal.ErrRoomFull
	}
	for _, p := range room.Players {
		if strings.EqualFold(p.DisplayName, player.DisplayName) {
			return JoinResult{}, internal.ErrNameTaken
		}
	}

	player.IsHost = false
	player.JoinSeq = room.NextJoinSeq()
	player.JoinedAt = time.Now()
	room.Players = append(room.Players, player)

	res := JoinResult{
		Room:       room,
		Player:     player,
		Recipients: append([]*internal.Player(nil), room.Players...),
		Infos:      internal.PublicPlayers(room.Players),
		Started:    room.Started,
	}
	if room.Started && room.State != internal.StateLobby {
		res.History = room.Strokes.Snapshot()
		if drawer := room.Drawer(); drawer != nil {
			res.Round = &internal.NewRoundData{
				RoundNumber: room.RoundNumber,
				DrawerID:    drawer.ConnID,
				DrawerName:  drawer.DisplayName,
				Word:        words.Mask(room.SecretWord),
				WordLength:  utf8.RuneCountInString(room.SecretWord),
				Seconds:     int(time.Until(room.RoundDeadline).Seconds()),
			}
		}
	}

	rg.log.Info().Str("room", room.Code).Str("player", player.DisplayName).
		Int("players", len(room.Players)).Msg("player joined")
	return res, nil
}

// RemoveResult describes the outcome of removing one connection from one
// room, with snapshots for fanout and for the caller's follow-up
// round-advance decision.
type RemoveResult struct {
	Code       string
	Removed    internal.PlayerInfo
	NewHost    *internal.PlayerInfo
	Recipients []*internal.Player
	Remaining  int
	Started    bool

	// WasDrawer is set when the removed player was the active drawer of
	// a round still in ROUND_ACTIVE; Seq is the round sequence observed
	// under the removal lock, for an idempotent settle call.
	WasDrawer bool
	Seq       uint64

	// AllGuessed is set when removing a guesser left every remaining
	// guesser with a correct answer, so the round can settle early.
	AllGuessed bool
}

// RemoveConn removes a connection from every room containing it
// (normally exactly one). Empty rooms are destroyed before returning.
func (rg *Registry) RemoveConn(connID string) []RemoveResult {
	rg.mu.RLock()
	candidates := make([]*internal.Room, 0, 1)
	for _, room := range rg.rooms {
		candidates = append(candidates, room)
	}
	rg.mu.RUnlock()

	var results []RemoveResult
	for _, room := range candidates {
		if res, ok := rg.removeFromRoom(room, connID); ok {
			results = append(results, res)
		}
	}
	return results
}

func (rg *Registry) removeFromRoom(room *internal.Room, connID string) (RemoveResult, bool) {
	room.Mu.Lock()

	idx := -1
	for i, p := range room.Players {
		if p.ConnID == connID {
			idx = i
			break
		}
	}
	if idx < 0 {
		room.Mu.Unlock()
		return RemoveResult{}, false
	}

	removed := room.Players[idx]
	wasHost := removed.IsHost
	wasDrawer := room.Started && room.State == internal.StateActive && idx == room.DrawerIndex

	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)

	// Keep DrawerIndex pointing at the same player, or at the player who
	// slid into the departed drawer's slot.
	switch {
	case idx < room.DrawerIndex:
		room.DrawerIndex--
	case idx == room.DrawerIndex && room.Started:
		// DrawerIndex now points at the successor, or one past the end
		// when the departed drawer held the last slot. Settlement reads
		// the out-of-range case as a rotation wrap.
		room.DrawerLeft = true
	}

	res := RemoveResult{
		Code:       room.Code,
		Removed:    internal.PublicPlayer(removed),
		Remaining:  len(room.Players),
		Started:    room.Started,
		WasDrawer:  wasDrawer,
		Seq:        room.RoundSeq,
		AllGuessed: room.Started && room.State == internal.StateActive && !wasDrawer && room.AllGuessed(),
	}

	if len(room.Players) == 0 {
		room.SetTimer(nil)
		room.MarkDestroyed()
		room.Mu.Unlock()
		rg.destroy(room.Code)
		rg.log.Info().Str("room", res.Code).Str("player", res.Removed.DisplayName).
			Msg("last player left, room destroyed")
		return res, true
	}

	if wasHost {
		next := room.Players[0]
		next.IsHost = true
		info := internal.PublicPlayer(next)
		res.NewHost = &info
	}
	res.Recipients = append([]*internal.Player(nil), room.Players...)

	room.Mu.Unlock()
	rg.log.Info().Str("room", res.Code).Str("player", res.Removed.DisplayName).
		Bool("wasDrawer", wasDrawer).Int("remaining", res.Remaining).Msg("player removed")
	return res, true
}

func (rg *Registry) destroy(code string) {
	rg.mu.Lock()
	delete(rg.rooms, code)
	rg.mu.Unlock()
}

// RoomSummary is one row of the room directory.
type RoomSummary struct {
	Code       string `json:"roomCode"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Started    bool   `json:"started"`
}

// Directory lists currently active rooms.
func (rg *Registry) Directory() []RoomSummary {
	rg.mu.RLock()
	rooms := make([]*internal.Room, 0, len(rg.rooms))
	for _, room := range rg.rooms {
		rooms = append(rooms, room)
	}
	rg.mu.RUnlock()

	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.Mu.Lock()
		out = append(out, RoomSummary{
			Code:       room.Code,
			Players:    len(room.Players),
			MaxPlayers: room.MaxPlayers,
			Started:    room.Started,
		})
		room.Mu.Unlock()
	}
	return out
}

// Count returns the number of active rooms.
func (rg *Registry) Count() int {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	return len(rg.rooms)
}

// freshCodeLocked generates a code unused by any active room. Caller
// holds rg.mu.
func (rg *Registry) freshCodeLocked() string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
		}
		code := string(b)
		if _, exists := rg.rooms[code]; !exists {
			return code
		}
	}
}
