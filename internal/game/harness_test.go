package game

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sketchparty/sketchparty-backend/internal"
	"github.com/sketchparty/sketchparty-backend/internal/words"
)

// fakeConn records every envelope written to it.
type fakeConn struct {
	mu     sync.Mutex
	msgs   []internal.Message[any]
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg, ok := v.(internal.Message[any]); ok {
		c.msgs = append(c.msgs, msg)
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count(msgType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func (c *fakeConn) last(msgType string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if c.msgs[i].Type == msgType {
			return c.msgs[i].Data, true
		}
	}
	return nil, false
}

// testBank has a single word so round outcomes are deterministic.
// "pineapple" is tier 3, so the base award is 150.
func testBank() *words.Bank {
	return words.NewBank([]string{"pineapple"}, map[string]int{"pineapple": 3})
}

func newTestGame(t *testing.T, cfg Config) *Game {
	t.Helper()
	return New(cfg, testBank(), nil, zerolog.Nop())
}

// seedRoom creates a room whose members use their names as connection
// ids. The first name is the host.
func seedRoom(t *testing.T, g *Game, names ...string) (*internal.Room, map[string]*fakeConn) {
	t.Helper()
	require.NotEmpty(t, names)

	conns := make(map[string]*fakeConn, len(names))
	for _, name := range names {
		conns[name] = &fakeConn{}
	}

	err := g.HandleCreateRoom(names[0], conns[names[0]], internal.CreateRoomRequest{
		DisplayName: names[0],
		Code:        "TEST42",
	})
	require.NoError(t, err)

	for _, name := range names[1:] {
		err := g.HandleJoinRoom(name, conns[name], internal.JoinRoomRequest{
			Code:        "TEST42",
			DisplayName: name,
		})
		require.NoError(t, err)
	}

	room, err := g.reg.Get("TEST42")
	require.NoError(t, err)
	return room, conns
}

// drawerAndGuessers splits the room's members by current role.
func drawerAndGuessers(room *internal.Room) (drawer string, guessers []string) {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	d := room.Drawer()
	for _, p := range room.Players {
		if p == d {
			drawer = p.ConnID
			continue
		}
		guessers = append(guessers, p.ConnID)
	}
	return drawer, guessers
}

// freezeClock pins the coordinator clock to a fixed instant.
func freezeClock(g *Game) time.Time {
	fixed := time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)
	g.now = func() time.Time { return fixed }
	return fixed
}
