package game

import (
	"github.com/sketchparty/sketchparty-backend/internal"
)

// Fanout helpers. Callers pass a player snapshot taken under the room
// lock and invoke these without holding it; per-connection writes are
// serialized by the Conn implementation.

func (g *Game) send(conn internal.Conn, msgType string, data any) {
	if conn == nil {
		return
	}
	if err := conn.WriteJSON(internal.Message[any]{Type: msgType, Data: data}); err != nil {
		g.log.Debug().Err(err).Str("event", msgType).Msg("write failed")
	}
}

// sendError reports a taxonomy error to the originating connection only.
// Errors without a wire kind are dropped, matching the silent handling
// of stale and malformed client messages.
func (g *Game) sendError(conn internal.Conn, err error) {
	kind := internal.ErrorKind(err)
	if kind == "" {
		return
	}
	g.send(conn, "error", internal.ErrorData{Kind: kind, Message: err.Error()})
}

func (g *Game) broadcast(players []*internal.Player, msgType string, data any) {
	for _, p := range players {
		g.send(p.Conn, msgType, data)
	}
}

func (g *Game) broadcastExcept(players []*internal.Player, exceptConnID, msgType string, data any) {
	for _, p := range players {
		if p.ConnID == exceptConnID {
			continue
		}
		g.send(p.Conn, msgType, data)
	}
}
