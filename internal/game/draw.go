package game

import (
	"github.com/sketchparty/sketchparty-backend/internal"
)

// Stroke log operations. Drawing actions are accepted only from the
// current drawer during an active round; non-drawers get a NotYourTurn
// error, while out-of-state messages are dropped silently.

const (
	defaultStrokeColor = "#000000"
	defaultStrokeWidth = 3
)

// drawerRoom validates a drawing action and returns the room with its
// lock HELD, or nil after replying to the caller.
func (g *Game) drawerRoom(code, connID string) *internal.Room {
	room, err := g.reg.Get(code)
	if err != nil {
		return nil
	}
	room.Mu.Lock()
	if !room.Started || room.State != internal.StateActive {
		room.Mu.Unlock()
		return nil
	}
	player := room.FindPlayer(connID)
	if player == nil {
		room.Mu.Unlock()
		return nil
	}
	drawer := room.Drawer()
	if drawer == nil || drawer.ConnID != connID {
		conn := player.Conn
		room.Mu.Unlock()
		g.sendError(conn, internal.ErrNotYourTurn)
		return nil
	}
	return room
}

// HandleStroke appends a drawer's stroke and fans it out to everyone
// else. A fresh stroke clears any pending redo history.
func (g *Game) HandleStroke(code, connID string, req internal.DrawStrokeRequest) {
	if len(req.Points) == 0 {
		return
	}
	room := g.drawerRoom(code, connID)
	if room == nil {
		return
	}

	stroke := internal.Stroke{
		Points: req.Points,
		Color:  req.Color,
		Width:  req.Width,
	}
	if stroke.Color == "" {
		stroke.Color = defaultStrokeColor
	}
	if stroke.Width <= 0 {
		stroke.Width = defaultStrokeWidth
	}

	room.Strokes.Append(stroke)
	recipients := append([]*internal.Player(nil), room.Players...)
	room.Mu.Unlock()

	g.broadcastExcept(recipients, connID, "stroke_drawn", stroke)
}

// HandleUndo pops the most recent stroke onto the undo stack and
// replays the authoritative log to the whole room.
func (g *Game) HandleUndo(code, connID string) {
	room := g.drawerRoom(code, connID)
	if room == nil {
		return
	}
	if _, ok := room.Strokes.Undo(); !ok {
		room.Mu.Unlock()
		return
	}
	history := internal.DrawHistoryData{Strokes: room.Strokes.Snapshot()}
	recipients := append([]*internal.Player(nil), room.Players...)
	room.Mu.Unlock()

	g.broadcast(recipients, "draw_history", history)
}

// HandleRedo reverses the most recent undo.
func (g *Game) HandleRedo(code, connID string) {
	room := g.drawerRoom(code, connID)
	if room == nil {
		return
	}
	if _, ok := room.Strokes.Redo(); !ok {
		room.Mu.Unlock()
		return
	}
	history := internal.DrawHistoryData{Strokes: room.Strokes.Snapshot()}
	recipients := append([]*internal.Player(nil), room.Players...)
	room.Mu.Unlock()

	g.broadcast(recipients, "draw_history", history)
}

// HandleClear empties the stroke log and the undo stack.
func (g *Game) HandleClear(code, connID string) {
	room := g.drawerRoom(code, connID)
	if room == nil {
		return
	}
	room.Strokes.Clear()
	roomCode := room.Code
	recipients := append([]*internal.Player(nil), room.Players...)
	room.Mu.Unlock()

	g.broadcast(recipients, "canvas_cleared", internal.RoomRef{Code: roomCode})
}
