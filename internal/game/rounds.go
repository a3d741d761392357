package game

import (
	"context"
	"math/rand/v2"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/sketchparty/sketchparty-backend/internal"
	"github.com/sketchparty/sketchparty-backend/internal/store"
	"github.com/sketchparty/sketchparty-backend/internal/words"
)

// Round state machine. LOBBY -> ROUND_ACTIVE -> ROUND_SETTLING ->
// ROUND_ACTIVE ... -> GAME_OVER -> LOBBY. Deadline callbacks re-enter
// through the registry by room code; the RoundSeq guard makes settlement
// idempotent per round regardless of which trigger fires first.

// StartGame begins a game: host-only, needs the minimum player count.
// Player order is shuffled once here and defines the whole rotation.
func (g *Game) StartGame(code, connID string) error {
	room, err := g.reg.Get(code)
	if err != nil {
		return err
	}

	room.Mu.Lock()
	caller := room.FindPlayer(connID)
	if caller == nil {
		room.Mu.Unlock()
		return internal.ErrRoomNotFound
	}
	if !caller.IsHost {
		room.Mu.Unlock()
		return internal.ErrNotHost
	}
	if len(room.Players) < g.cfg.MinPlayers {
		room.Mu.Unlock()
		return internal.ErrNotEnoughPlayers
	}
	if room.Started {
		// Stale duplicate from a client that missed the transition.
		room.Mu.Unlock()
		return nil
	}

	rand.Shuffle(len(room.Players), func(i, j int) {
		room.Players[i], room.Players[j] = room.Players[j], room.Players[i]
	})
	for _, p := range room.Players {
		p.Score = 0
		p.Streak = 0
		p.CorrectCount = 0
		p.TotalGuesses = 0
	}
	room.Started = true
	room.RoundNumber = 1
	room.DrawerIndex = 0

	state := internal.RoomStateData{
		Code:    room.Code,
		Players: internal.PublicPlayers(room.Players),
		Started: true,
	}
	recipients := append([]*internal.Player(nil), room.Players...)
	room.Mu.Unlock()

	g.log.Info().Str("room", code).Int("players", len(recipients)).Msg("game started")
	g.broadcast(recipients, "game_started", state)
	g.beginRound(code)
	return nil
}

// beginRound picks a word, resets per-round state, and arms the round
// deadline. The drawer gets the plaintext word; everyone else gets a
// mask of equal length.
func (g *Game) beginRound(code string) {
	room, err := g.reg.Get(code)
	if err != nil {
		return
	}

	room.Mu.Lock()
	if room.IsDestroyed() || !room.Started || room.State == internal.StateActive {
		room.Mu.Unlock()
		return
	}
	if len(room.Players) < g.cfg.MinPlayers {
		gameEnd, rec := g.finishLocked(room, room.RoundNumber-1)
		recipients := append([]*internal.Player(nil), room.Players...)
		room.Mu.Unlock()
		g.broadcast(recipients, "game_end", gameEnd)
		g.record(rec)
		return
	}
	if room.DrawerIndex >= len(room.Players) {
		room.DrawerIndex = 0
	}

	word := g.bank.Pick()
	room.SecretWord = word
	room.Strokes.Clear()
	room.Guessed = nil
	room.DrawerLeft = false
	room.State = internal.StateActive
	room.RoundDeadline = g.now().Add(g.cfg.RoundDuration)

	seq := room.RoundSeq
	drawer := room.Drawer()
	roundNo := room.RoundNumber
	recipients := append([]*internal.Player(nil), room.Players...)

	t := time.AfterFunc(g.cfg.RoundDuration, func() {
		g.settleRound(code, seq, true)
	})
	room.SetTimer(func() { t.Stop() })
	room.Mu.Unlock()

	g.log.Info().Str("room", code).Int("round", roundNo).
		Str("drawer", drawer.DisplayName).Msg("round started")

	secs := int(g.cfg.RoundDuration.Seconds())
	wordLen := utf8.RuneCountInString(word)
	g.send(drawer.Conn, "new_round", internal.NewRoundData{
		RoundNumber: roundNo,
		DrawerID:    drawer.ConnID,
		DrawerName:  drawer.DisplayName,
		Word:        word,
		WordLength:  wordLen,
		Seconds:     secs,
	})
	g.broadcastExcept(recipients, drawer.ConnID, "new_round", internal.NewRoundData{
		RoundNumber: roundNo,
		DrawerID:    drawer.ConnID,
		DrawerName:  drawer.DisplayName,
		Word:        words.Mask(word),
		WordLength:  wordLen,
		Seconds:     secs,
	})
}

// settleRound ends a round: exactly once per round. The deadline timer,
// the all-guessed trigger, and drawer disconnect all funnel here; the
// first caller to observe (StateActive, seq) wins and the rest no-op
// before emitting any side effect.
func (g *Game) settleRound(code string, seq uint64, natural bool) {
	room, err := g.reg.Get(code)
	if err != nil {
		return
	}

	room.Mu.Lock()
	if room.IsDestroyed() || room.State != internal.StateActive || room.RoundSeq != seq {
		room.Mu.Unlock()
		return
	}
	room.State = internal.StateSettling
	room.RoundSeq++
	room.SetTimer(nil)

	word := room.SecretWord
	correct := len(room.Guessed)
	roundNo := room.RoundNumber

	var drawer *internal.Player
	if !room.DrawerLeft {
		drawer = room.Drawer()
	}
	if drawer != nil {
		drawer.Score += DrawerRoundBonus(correct)
	}
	for _, p := range room.Players {
		if p == drawer {
			continue
		}
		if !room.HasGuessed(p.ConnID) {
			p.Streak = 0
		}
	}

	roundEnd := internal.RoundEndData{
		Word:         word,
		Players:      internal.PublicPlayers(room.Players),
		CorrectCount: correct,
		RoundNumber:  roundNo,
	}
	recipients := append([]*internal.Player(nil), room.Players...)

	// Advance the rotation. A departed drawer's successor already sits
	// at DrawerIndex, so that case must not skip ahead.
	n := len(room.Players)
	next := room.DrawerIndex
	if !room.DrawerLeft {
		next++
	}
	wrapped := next >= n
	if wrapped {
		next = 0
	}
	room.DrawerIndex = next
	room.DrawerLeft = false
	if wrapped {
		room.RoundNumber++
	}

	if room.RoundNumber > room.MaxRounds || n < g.cfg.MinPlayers {
		gameEnd, rec := g.finishLocked(room, roundNo)
		room.Mu.Unlock()
		g.log.Info().Str("room", code).Int("round", roundNo).Bool("natural", natural).
			Msg("final round settled")
		g.broadcast(recipients, "round_end", roundEnd)
		g.broadcast(recipients, "game_end", gameEnd)
		g.record(rec)
		return
	}

	nextSeq := room.RoundSeq
	t := time.AfterFunc(g.cfg.SettleDelay, func() {
		g.beginRoundAfterSettle(code, nextSeq)
	})
	room.SetTimer(func() { t.Stop() })
	room.Mu.Unlock()

	g.log.Info().Str("room", code).Int("round", roundNo).Int("correct", correct).
		Bool("natural", natural).Msg("round settled")
	g.broadcast(recipients, "round_end", roundEnd)
}

func (g *Game) beginRoundAfterSettle(code string, seq uint64) {
	room, err := g.reg.Get(code)
	if err != nil {
		return
	}
	room.Mu.Lock()
	pending := room.Started && room.State == internal.StateSettling && room.RoundSeq == seq
	room.Mu.Unlock()
	if pending {
		g.beginRound(code)
	}
}

// finishLocked applies end-of-game bonuses, ranks players, and resets
// the room to LOBBY with scores cleared. Caller holds the room lock.
func (g *Game) finishLocked(room *internal.Room, roundsPlayed int) (internal.GameEndData, store.GameRecord) {
	room.State = internal.StateGameOver

	playerCount := len(room.Players)
	for _, p := range room.Players {
		p.Score += AccuracyBonus(p.CorrectCount, room.MaxRounds, playerCount)
		p.Score += FinalStreakBonus(p.Streak)
	}

	// Rank by final score descending; ties go to the earlier joiner.
	order := append([]*internal.Player(nil), room.Players...)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Score != order[j].Score {
			return order[i].Score > order[j].Score
		}
		return order[i].JoinSeq < order[j].JoinSeq
	})

	standings := make([]internal.Standing, 0, len(order))
	results := make([]store.PlayerResult, 0, len(order))
	for i, p := range order {
		standings = append(standings, internal.Standing{
			Rank:         i + 1,
			ConnID:       p.ConnID,
			DisplayName:  p.DisplayName,
			Score:        p.Score,
			CorrectCount: p.CorrectCount,
		})
		results = append(results, store.PlayerResult{
			DisplayName:    p.DisplayName,
			Rank:           i + 1,
			Score:          p.Score,
			CorrectGuesses: p.CorrectCount,
		})
	}

	rec := store.GameRecord{
		RoomCode:     room.Code,
		RoundsPlayed: roundsPlayed,
		Players:      results,
		FinishedAt:   g.now(),
	}

	room.Started = false
	room.State = internal.StateLobby
	room.RoundNumber = 0
	room.DrawerIndex = 0
	room.SecretWord = ""
	room.Guessed = nil
	room.DrawerLeft = false
	room.Strokes.Clear()
	room.SetTimer(nil)
	for _, p := range room.Players {
		p.Score = 0
		p.Streak = 0
		p.CorrectCount = 0
		p.TotalGuesses = 0
	}

	g.log.Info().Str("room", room.Code).Int("rounds", roundsPlayed).Msg("game over, room reset to lobby")
	return internal.GameEndData{RankedPlayers: standings}, rec
}

// abortGame ends a started game that can no longer continue, announcing
// the final ranking before the lobby reset.
func (g *Game) abortGame(code string) {
	room, err := g.reg.Get(code)
	if err != nil {
		return
	}
	room.Mu.Lock()
	if !room.Started {
		room.Mu.Unlock()
		return
	}
	gameEnd, rec := g.finishLocked(room, room.RoundNumber-1)
	recipients := append([]*internal.Player(nil), room.Players...)
	room.Mu.Unlock()

	g.broadcast(recipients, "game_end", gameEnd)
	g.record(rec)
}

func (g *Game) record(rec store.GameRecord) {
	if g.recorder == nil || len(rec.Players) == 0 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.recorder.RecordGame(ctx, rec); err != nil {
			g.log.Error().Err(err).Str("room", rec.RoomCode).Msg("record game history")
		}
	}()
}
