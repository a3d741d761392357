package game

import (
	"strings"

	"github.com/sketchparty/sketchparty-backend/internal"
)

// HandleGuess evaluates one guess. Wrong guesses are relayed to the room
// as chat; correct ones score the guesser and credit the drawer
// immediately. Guesses outside ROUND_ACTIVE are dropped without error —
// clients legitimately send stale messages across transitions.
func (g *Game) HandleGuess(code, connID, text string) {
	room, err := g.reg.Get(code)
	if err != nil {
		return
	}

	room.Mu.Lock()
	if !room.Started || room.State != internal.StateActive {
		room.Mu.Unlock()
		return
	}
	player := room.FindPlayer(connID)
	if player == nil {
		room.Mu.Unlock()
		return
	}
	drawer := room.Drawer()
	if drawer != nil && drawer.ConnID == connID {
		// The drawer knows the word; their guesses never score.
		room.Mu.Unlock()
		return
	}
	if room.HasGuessed(connID) {
		conn := player.Conn
		room.Mu.Unlock()
		g.sendError(conn, internal.ErrAlreadyGuessed)
		return
	}

	guess := strings.ToLower(strings.TrimSpace(text))
	player.TotalGuesses++

	if guess != strings.ToLower(room.SecretWord) {
		chat := internal.ChatMessageData{DisplayName: player.DisplayName, Text: text}
		recipients := append([]*internal.Player(nil), room.Players...)
		conn := player.Conn
		room.Mu.Unlock()

		g.broadcast(recipients, "chat_message", chat)
		g.send(conn, "guess_result", internal.GuessResultData{Correct: false})
		return
	}

	remaining := int(room.RoundDeadline.Sub(g.now()).Seconds())
	duration := int(g.cfg.RoundDuration.Seconds())
	position := len(room.Guessed) + 1
	base := BasePoints(g.bank.Tier(room.SecretWord))

	points := GuesserPoints(base, remaining, duration, position, player.Streak)
	player.Score += points
	player.Streak++
	player.CorrectCount++
	room.Guessed = append(room.Guessed, connID)

	drawerBonus := DrawerPerGuessBonus(points)
	if drawer != nil {
		drawer.Score += drawerBonus
	}

	announce := internal.CorrectGuessData{
		ConnID:      player.ConnID,
		DisplayName: player.DisplayName,
		Points:      points,
		GuessOrder:  position,
	}
	recipients := append([]*internal.Player(nil), room.Players...)
	conn := player.Conn
	allGuessed := room.AllGuessed()
	seq := room.RoundSeq
	room.Mu.Unlock()

	g.log.Info().Str("room", code).Str("player", player.DisplayName).
		Int("points", points).Int("order", position).Msg("correct guess")
	g.broadcast(recipients, "correct_guess", announce)
	g.send(conn, "guess_result", internal.GuessResultData{Correct: true, Points: points})

	if allGuessed {
		g.settleRound(code, seq, false)
	}
}

// HandleChat relays a chat line to the room. Accepted only during an
// active round, like every other round-scoped action; anything else is
// dropped as stale.
func (g *Game) HandleChat(code, connID, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	room, err := g.reg.Get(code)
	if err != nil {
		return
	}

	room.Mu.Lock()
	if !room.Started || room.State != internal.StateActive {
		room.Mu.Unlock()
		return
	}
	player := room.FindPlayer(connID)
	if player == nil {
		room.Mu.Unlock()
		return
	}
	chat := internal.ChatMessageData{DisplayName: player.DisplayName, Text: text}
	recipients := append([]*internal.Player(nil), room.Players...)
	room.Mu.Unlock()

	g.broadcast(recipients, "chat_message", chat)
}
