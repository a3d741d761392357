package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchparty/sketchparty-backend/internal"
)

func TestStartGameRequiresHost(t *testing.T) {
	g := newTestGame(t, Config{})
	_, conns := seedRoom(t, g, "alice", "bob")

	err := g.StartGame("TEST42", "bob")
	assert.ErrorIs(t, err, internal.ErrNotHost)
	assert.Equal(t, 0, conns["alice"].count("game_started"))
}

func TestStartGameNeedsQuorum(t *testing.T) {
	g := newTestGame(t, Config{})
	seedRoom(t, g, "alice")

	err := g.StartGame("TEST42", "alice")
	assert.ErrorIs(t, err, internal.ErrNotEnoughPlayers)
}

func TestStartGameUnknownRoom(t *testing.T) {
	g := newTestGame(t, Config{})
	err := g.StartGame("NOPE99", "alice")
	assert.ErrorIs(t, err, internal.ErrRoomNotFound)
}

func TestStartGameDuplicateIsNoop(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour})
	_, conns := seedRoom(t, g, "alice", "bob")

	require.NoError(t, g.StartGame("TEST42", "alice"))
	require.NoError(t, g.StartGame("TEST42", "alice"))

	assert.Equal(t, 1, conns["alice"].count("game_started"))
	assert.Equal(t, 1, conns["alice"].count("new_round"))
}

func TestStartGameAnnouncesMaskedWord(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour})
	room, conns := seedRoom(t, g, "alice", "bob", "carol")

	require.NoError(t, g.StartGame("TEST42", "alice"))

	drawer, guessers := drawerAndGuessers(room)

	data, ok := conns[drawer].last("new_round")
	require.True(t, ok)
	round := data.(internal.NewRoundData)
	assert.Equal(t, "pineapple", round.Word)
	assert.Equal(t, 1, round.RoundNumber)
	assert.Equal(t, drawer, round.DrawerID)

	for _, name := range guessers {
		data, ok := conns[name].last("new_round")
		require.True(t, ok)
		round := data.(internal.NewRoundData)
		assert.Equal(t, "_________", round.Word)
		assert.Equal(t, len("pineapple"), round.WordLength)
		assert.Equal(t, drawer, round.DrawerID)
	}

	room.Mu.Lock()
	assert.Equal(t, internal.StateActive, room.State)
	assert.Equal(t, "pineapple", room.SecretWord)
	room.Mu.Unlock()
}

func TestStartGameResetsScores(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour})
	room, _ := seedRoom(t, g, "alice", "bob")

	room.Mu.Lock()
	room.Players[0].Score = 999
	room.Players[1].Streak = 4
	room.Mu.Unlock()

	require.NoError(t, g.StartGame("TEST42", "alice"))

	room.Mu.Lock()
	for _, p := range room.Players {
		assert.Equal(t, 0, p.Score)
		assert.Equal(t, 0, p.Streak)
	}
	room.Mu.Unlock()
}

func TestAllGuessedSettlesImmediately(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour, SettleDelay: 20 * time.Millisecond})
	room, conns := seedRoom(t, g, "alice", "bob", "carol")

	require.NoError(t, g.StartGame("TEST42", "alice"))
	_, guessers := drawerAndGuessers(room)

	for _, name := range guessers {
		g.HandleGuess("TEST42", name, "pineapple")
	}

	// settlement is synchronous once the last guesser lands
	for name, conn := range conns {
		assert.Equal(t, 1, conn.count("round_end"), name)
	}
	data, ok := conns["alice"].last("round_end")
	require.True(t, ok)
	end := data.(internal.RoundEndData)
	assert.Equal(t, "pineapple", end.Word)
	assert.Equal(t, 2, end.CorrectCount)

	// the settle delay then rolls into the next round
	require.Eventually(t, func() bool {
		return conns["alice"].count("new_round") == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSettleRoundIdempotent(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour, SettleDelay: time.Hour})
	room, conns := seedRoom(t, g, "alice", "bob", "carol")

	require.NoError(t, g.StartGame("TEST42", "alice"))

	room.Mu.Lock()
	seq := room.RoundSeq
	room.Mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.settleRound("TEST42", seq, true)
		}()
	}
	wg.Wait()

	for name, conn := range conns {
		assert.Equal(t, 1, conn.count("round_end"), name)
	}
}

func TestStaleSettleSeqIsNoop(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour, SettleDelay: time.Hour})
	room, conns := seedRoom(t, g, "alice", "bob")

	require.NoError(t, g.StartGame("TEST42", "alice"))

	room.Mu.Lock()
	seq := room.RoundSeq
	room.Mu.Unlock()

	g.settleRound("TEST42", seq+1, true)
	assert.Equal(t, 0, conns["alice"].count("round_end"))
}

func TestFullGameLifecycleByTimer(t *testing.T) {
	g := newTestGame(t, Config{
		RoundDuration: 30 * time.Millisecond,
		SettleDelay:   10 * time.Millisecond,
		MaxRounds:     3,
	})
	room, conns := seedRoom(t, g, "alice", "bob")

	require.NoError(t, g.StartGame("TEST42", "alice"))

	require.Eventually(t, func() bool {
		return conns["alice"].count("game_end") == 1 && conns["bob"].count("game_end") == 1
	}, 5*time.Second, 10*time.Millisecond)

	// two players, three rotations: everyone drew three times
	assert.Equal(t, 6, conns["alice"].count("round_end"))
	assert.Equal(t, 6, conns["alice"].count("new_round"))

	data, ok := conns["alice"].last("game_end")
	require.True(t, ok)
	assert.Len(t, data.(internal.GameEndData).RankedPlayers, 2)

	// the room is back in the lobby, ready for a rematch
	room.Mu.Lock()
	assert.False(t, room.Started)
	assert.Equal(t, internal.StateLobby, room.State)
	assert.Equal(t, 0, room.RoundNumber)
	for _, p := range room.Players {
		assert.Equal(t, 0, p.Score)
	}
	room.Mu.Unlock()
}

func TestDrawerDisconnectSettlesRound(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour, SettleDelay: 20 * time.Millisecond})
	room, conns := seedRoom(t, g, "alice", "bob", "carol")

	require.NoError(t, g.StartGame("TEST42", "alice"))
	drawer, guessers := drawerAndGuessers(room)

	room.Mu.Lock()
	di := room.DrawerIndex
	successor := room.Players[(di+1)%len(room.Players)].ConnID
	room.Mu.Unlock()

	g.Disconnect(drawer)

	for _, name := range guessers {
		assert.Equal(t, 1, conns[name].count("player_left"), name)
		assert.Equal(t, 1, conns[name].count("round_end"), name)
	}

	// the player who slid into the empty slot draws next, not skipped
	require.Eventually(t, func() bool {
		return conns[guessers[0]].count("new_round") == 2
	}, 2*time.Second, 5*time.Millisecond)

	data, ok := conns[guessers[0]].last("new_round")
	require.True(t, ok)
	assert.Equal(t, successor, data.(internal.NewRoundData).DrawerID)
}

func TestLastSlotDrawerDisconnectAdvancesRound(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour, SettleDelay: 20 * time.Millisecond})
	room, conns := seedRoom(t, g, "alice", "bob", "carol")

	require.NoError(t, g.StartGame("TEST42", "alice"))

	// walk the rotation to its final slot
	for i := 0; i < 2; i++ {
		room.Mu.Lock()
		seq := room.RoundSeq
		room.Mu.Unlock()
		g.settleRound("TEST42", seq, true)
		want := i + 2
		require.Eventually(t, func() bool {
			return conns["alice"].count("new_round") == want
		}, 2*time.Second, 5*time.Millisecond)
	}

	room.Mu.Lock()
	require.Equal(t, len(room.Players)-1, room.DrawerIndex)
	require.Equal(t, 1, room.RoundNumber)
	lastDrawer := room.Players[room.DrawerIndex].ConnID
	first := room.Players[0].ConnID
	room.Mu.Unlock()

	// losing the tail drawer still closes the rotation and advances
	// the round counter
	g.Disconnect(lastDrawer)

	require.Eventually(t, func() bool {
		return conns[first].count("new_round") == 4
	}, 2*time.Second, 5*time.Millisecond)

	data, ok := conns[first].last("new_round")
	require.True(t, ok)
	round := data.(internal.NewRoundData)
	assert.Equal(t, 2, round.RoundNumber)
	assert.Equal(t, first, round.DrawerID)
}

func TestNonGuesserDisconnectSettlesCompletedRound(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour, SettleDelay: time.Hour})
	room, conns := seedRoom(t, g, "alice", "bob", "carol", "dave")

	require.NoError(t, g.StartGame("TEST42", "alice"))
	drawer, guessers := drawerAndGuessers(room)
	require.Len(t, guessers, 3)

	g.HandleGuess("TEST42", guessers[0], "pineapple")
	g.HandleGuess("TEST42", guessers[1], "pineapple")
	assert.Equal(t, 0, conns[drawer].count("round_end"))

	// the holdout leaving makes the remaining answers unanimous
	g.Disconnect(guessers[2])

	assert.Equal(t, 1, conns[drawer].count("round_end"))
	assert.Equal(t, 1, conns[guessers[0]].count("round_end"))
}

func TestGuesserDisconnectBelowQuorumEndsGame(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour, SettleDelay: time.Hour})
	room, conns := seedRoom(t, g, "alice", "bob")

	require.NoError(t, g.StartGame("TEST42", "alice"))
	drawer, guessers := drawerAndGuessers(room)
	require.Len(t, guessers, 1)

	g.Disconnect(guessers[0])

	assert.Equal(t, 1, conns[drawer].count("player_left"))
	assert.Equal(t, 1, conns[drawer].count("game_end"))

	room.Mu.Lock()
	assert.False(t, room.Started)
	assert.Equal(t, internal.StateLobby, room.State)
	room.Mu.Unlock()
}

func TestGameEndRankingOrder(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Hour, SettleDelay: time.Hour, MaxRounds: 1})
	room, conns := seedRoom(t, g, "alice", "bob", "carol")

	require.NoError(t, g.StartGame("TEST42", "alice"))
	freezeClock(g)

	// rotation order is shuffled, so assign scores by join order: the
	// second joiner wins, the first and third tie at 100
	var top, first string
	room.Mu.Lock()
	for _, p := range room.Players {
		switch p.JoinSeq {
		case 1:
			p.Score = 100
			first = p.ConnID
		case 2:
			p.Score = 300
			top = p.ConnID
		default:
			p.Score = 100
		}
	}
	// skip straight to the last settle of the game
	room.RoundNumber = room.MaxRounds
	room.DrawerIndex = len(room.Players) - 1
	seq := room.RoundSeq
	room.Mu.Unlock()

	g.settleRound("TEST42", seq, true)

	data, ok := conns["alice"].last("game_end")
	require.True(t, ok)
	ranked := data.(internal.GameEndData).RankedPlayers
	require.Len(t, ranked, 3)
	assert.Equal(t, top, ranked[0].ConnID)
	assert.Equal(t, 1, ranked[0].Rank)
	// score ties break toward the earlier joiner
	assert.Equal(t, first, ranked[1].ConnID)
}
