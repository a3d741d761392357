package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchparty/sketchparty-backend/internal"
)

// startRound starts a game with a pinned clock; the round deadline sits
// exactly one RoundDuration ahead of the frozen instant.
func startRound(t *testing.T, g *Game, names ...string) (*internal.Room, map[string]*fakeConn) {
	t.Helper()
	room, conns := seedRoom(t, g, names...)
	freezeClock(g)
	require.NoError(t, g.StartGame("TEST42", names[0]))
	return room, conns
}

func findPlayer(room *internal.Room, connID string) *internal.Player {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	return room.FindPlayer(connID)
}

func TestCorrectGuessScoring(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Minute, SettleDelay: time.Hour})
	room, conns := startRound(t, g, "alice", "bob", "carol")
	drawer, guessers := drawerAndGuessers(room)

	// 20 seconds elapsed: 40 of 60 remain
	room.Mu.Lock()
	room.RoundDeadline = g.now().Add(40 * time.Second)
	room.Mu.Unlock()

	g.HandleGuess("TEST42", guessers[0], "pineapple")

	// tier 3 word: floor(150 * 40/60 * 1.5) = 150
	guesser := findPlayer(room, guessers[0])
	assert.Equal(t, 150, guesser.Score)
	assert.Equal(t, 1, guesser.Streak)
	assert.Equal(t, 1, guesser.CorrectCount)

	// the drawer banks 30% of that immediately
	assert.Equal(t, 45, findPlayer(room, drawer).Score)

	data, ok := conns[guessers[0]].last("guess_result")
	require.True(t, ok)
	res := data.(internal.GuessResultData)
	assert.True(t, res.Correct)
	assert.Equal(t, 150, res.Points)

	// everyone sees the announcement, without the word
	for _, name := range guessers {
		data, ok := conns[name].last("correct_guess")
		require.True(t, ok)
		cg := data.(internal.CorrectGuessData)
		assert.Equal(t, guessers[0], cg.ConnID)
		assert.Equal(t, 150, cg.Points)
		assert.Equal(t, 1, cg.GuessOrder)
	}
}

func TestSecondGuesserSmallerMultiplier(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Minute, SettleDelay: time.Hour})
	room, _ := startRound(t, g, "alice", "bob", "carol")
	_, guessers := drawerAndGuessers(room)

	room.Mu.Lock()
	room.RoundDeadline = g.now().Add(40 * time.Second)
	room.Mu.Unlock()

	g.HandleGuess("TEST42", guessers[0], "pineapple")
	g.HandleGuess("TEST42", guessers[1], "pineapple")

	// floor(150 * 40/60 * 1.25) = 125
	assert.Equal(t, 125, findPlayer(room, guessers[1]).Score)
}

func TestGuessMatchingIsCaseAndSpaceInsensitive(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Minute, SettleDelay: time.Hour})
	room, _ := startRound(t, g, "alice", "bob", "carol")
	_, guessers := drawerAndGuessers(room)

	g.HandleGuess("TEST42", guessers[0], "  PineApple  ")

	assert.Equal(t, 1, findPlayer(room, guessers[0]).CorrectCount)
}

func TestWrongGuessRelayedAsChat(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Minute, SettleDelay: time.Hour})
	room, conns := startRound(t, g, "alice", "bob", "carol")
	drawer, guessers := drawerAndGuessers(room)

	g.HandleGuess("TEST42", guessers[0], "banana")

	for name, conn := range conns {
		assert.Equal(t, 1, conn.count("chat_message"), name)
	}
	data, ok := conns[drawer].last("chat_message")
	require.True(t, ok)
	chat := data.(internal.ChatMessageData)
	assert.Equal(t, guessers[0], chat.DisplayName)
	assert.Equal(t, "banana", chat.Text)

	data, ok = conns[guessers[0]].last("guess_result")
	require.True(t, ok)
	assert.False(t, data.(internal.GuessResultData).Correct)

	guesser := findPlayer(room, guessers[0])
	assert.Equal(t, 0, guesser.Score)
	assert.Equal(t, 1, guesser.TotalGuesses)
}

func TestDrawerCannotGuess(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Minute, SettleDelay: time.Hour})
	room, conns := startRound(t, g, "alice", "bob", "carol")
	drawer, _ := drawerAndGuessers(room)

	g.HandleGuess("TEST42", drawer, "pineapple")

	assert.Equal(t, 0, conns[drawer].count("guess_result"))
	room.Mu.Lock()
	assert.Empty(t, room.Guessed)
	room.Mu.Unlock()
}

func TestDuplicateCorrectGuessRejected(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Minute, SettleDelay: time.Hour})
	room, conns := startRound(t, g, "alice", "bob", "carol")
	_, guessers := drawerAndGuessers(room)

	g.HandleGuess("TEST42", guessers[0], "pineapple")
	before := findPlayer(room, guessers[0]).Score

	g.HandleGuess("TEST42", guessers[0], "pineapple")

	assert.Equal(t, before, findPlayer(room, guessers[0]).Score)
	data, ok := conns[guessers[0]].last("error")
	require.True(t, ok)
	assert.Equal(t, "AlreadyGuessed", data.(internal.ErrorData).Kind)
}

func TestStreakBonusUsesPreGuessStreak(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Minute, SettleDelay: time.Hour})
	room, _ := startRound(t, g, "alice", "bob", "carol")
	_, guessers := drawerAndGuessers(room)

	room.Mu.Lock()
	room.RoundDeadline = g.now().Add(40 * time.Second)
	room.FindPlayer(guessers[0]).Streak = 3
	room.Mu.Unlock()

	g.HandleGuess("TEST42", guessers[0], "pineapple")

	// 150 + 3*10 streak bonus, streak now 4
	guesser := findPlayer(room, guessers[0])
	assert.Equal(t, 180, guesser.Score)
	assert.Equal(t, 4, guesser.Streak)
}

func TestGuessOutsideActiveRoundDropped(t *testing.T) {
	g := newTestGame(t, Config{})
	_, conns := seedRoom(t, g, "alice", "bob")

	g.HandleGuess("TEST42", "bob", "pineapple")

	assert.Equal(t, 0, conns["bob"].count("guess_result"))
	assert.Equal(t, 0, conns["alice"].count("chat_message"))
}

func TestGuessFromNonMemberDropped(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Minute, SettleDelay: time.Hour})
	room, conns := startRound(t, g, "alice", "bob", "carol")

	g.HandleGuess("TEST42", "mallory", "pineapple")

	room.Mu.Lock()
	assert.Empty(t, room.Guessed)
	room.Mu.Unlock()
	assert.Equal(t, 0, conns["alice"].count("correct_guess"))
}

func TestChatRelaysDuringActiveRound(t *testing.T) {
	g := newTestGame(t, Config{RoundDuration: time.Minute, SettleDelay: time.Hour})
	room, conns := startRound(t, g, "alice", "bob", "carol")
	_, guessers := drawerAndGuessers(room)

	g.HandleChat("TEST42", guessers[0], "nice drawing")

	for name, conn := range conns {
		assert.Equal(t, 1, conn.count("chat_message"), name)
	}
}

func TestChatOutsideActiveRoundDropped(t *testing.T) {
	g := newTestGame(t, Config{})
	_, conns := seedRoom(t, g, "alice", "bob")

	g.HandleChat("TEST42", "bob", "hello?")
	g.HandleChat("TEST42", "bob", "   ")

	assert.Equal(t, 0, conns["alice"].count("chat_message"))
}
