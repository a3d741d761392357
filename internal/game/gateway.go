package game

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sketchparty/sketchparty-backend/internal"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn serializes writes to one websocket; gorilla connections allow
// a single concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// HandleWebSocket upgrades the connection and runs its read loop. Each
// connection gets an ephemeral id that identifies the player everywhere
// in the coordinator.
func (g *Game) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	conn := &wsConn{conn: raw}
	g.log.Info().Str("conn", connID).Str("remote", r.RemoteAddr).Msg("client connected")

	defer func() {
		conn.Close()
		g.Disconnect(connID)
		g.log.Info().Str("conn", connID).Msg("client disconnected")
	}()

	for {
		_, payload, err := raw.ReadMessage()
		if err != nil {
			return
		}
		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(payload, &msg); err != nil {
			g.log.Debug().Err(err).Str("conn", connID).Msg("malformed message dropped")
			continue
		}
		g.dispatch(connID, conn, msg)
	}
}

// dispatch routes one inbound event. Payloads that fail to decode are
// dropped; taxonomy errors go back to the sender only.
func (g *Game) dispatch(connID string, conn internal.Conn, msg internal.Message[json.RawMessage]) {
	switch msg.Type {
	case internal.EvtCreateRoom:
		var req internal.CreateRoomRequest
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		if err := g.HandleCreateRoom(connID, conn, req); err != nil {
			g.sendError(conn, err)
		}

	case internal.EvtJoinRoom:
		var req internal.JoinRoomRequest
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		if err := g.HandleJoinRoom(connID, conn, req); err != nil {
			g.sendError(conn, err)
		}

	case internal.EvtStartGame:
		var req internal.RoomRef
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		if err := g.StartGame(req.Code, connID); err != nil {
			g.sendError(conn, err)
		}

	case internal.EvtFindMatch:
		var req internal.FindMatchRequest
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		if err := g.HandleFindMatch(connID, displayNameOrDefault(req.DisplayName), conn, req); err != nil {
			g.sendError(conn, err)
		}

	case internal.EvtCancelSearch:
		g.HandleCancelSearch(connID)

	case internal.EvtDrawStroke:
		var req internal.DrawStrokeRequest
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		g.HandleStroke(req.Code, connID, req)

	case internal.EvtUndo:
		var req internal.RoomRef
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		g.HandleUndo(req.Code, connID)

	case internal.EvtRedo:
		var req internal.RoomRef
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		g.HandleRedo(req.Code, connID)

	case internal.EvtClearCanvas:
		var req internal.RoomRef
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		g.HandleClear(req.Code, connID)

	case internal.EvtSendGuess:
		var req internal.GuessRequest
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		g.HandleGuess(req.Code, connID, req.Text)

	case internal.EvtChatMessage:
		var req internal.ChatRequest
		if json.Unmarshal(msg.Data, &req) != nil {
			return
		}
		g.HandleChat(req.Code, connID, req.Text)

	default:
		g.log.Debug().Str("event", msg.Type).Str("conn", connID).Msg("unknown event dropped")
	}
}

// HandleCreateRoom makes a room with the caller as host.
func (g *Game) HandleCreateRoom(connID string, conn internal.Conn, req internal.CreateRoomRequest) error {
	creator := &internal.Player{
		ConnID:      connID,
		DisplayName: displayNameOrDefault(req.DisplayName),
		Conn:        conn,
	}
	room, err := g.reg.CreateRoom(req.Code, creator)
	if err != nil {
		return err
	}

	room.Mu.Lock()
	state := internal.RoomStateData{
		Code:    room.Code,
		Players: internal.PublicPlayers(room.Players),
	}
	room.Mu.Unlock()

	g.send(conn, "room_created", state)
	return nil
}

// HandleJoinRoom adds the caller to a room and notifies all members.
// Joining mid-game is allowed; the newcomer enters the rotation at the
// end and receives the current round info plus the full stroke replay.
func (g *Game) HandleJoinRoom(connID string, conn internal.Conn, req internal.JoinRoomRequest) error {
	player := &internal.Player{
		ConnID:      connID,
		DisplayName: displayNameOrDefault(req.DisplayName),
		Conn:        conn,
	}
	res, err := g.reg.JoinRoom(req.Code, player)
	if err != nil {
		return err
	}

	state := internal.RoomStateData{
		Code:    res.Room.Code,
		Players: res.Infos,
		Started: res.Started,
	}
	g.send(conn, "room_joined", state)
	g.broadcastExcept(res.Recipients, connID, "player_joined", state)

	if res.Round != nil {
		g.send(conn, "new_round", *res.Round)
		g.send(conn, "draw_history", internal.DrawHistoryData{Strokes: res.History})
	}
	return nil
}

// Disconnect tears down everything a lost connection owned: its queue
// entry and its room membership. A departed drawer's round settles
// immediately so guessers who already answered keep their points.
func (g *Game) Disconnect(connID string) {
	g.queue.Cancel(connID)

	for _, res := range g.reg.RemoveConn(connID) {
		if res.Remaining == 0 {
			continue
		}

		g.broadcast(res.Recipients, "player_left", internal.PlayerLeftData{
			ConnID:      res.Removed.ConnID,
			DisplayName: res.Removed.DisplayName,
			Remaining:   res.Remaining,
		})
		if res.NewHost != nil {
			g.broadcast(res.Recipients, "host_changed", internal.HostChangedData{
				ConnID:      res.NewHost.ConnID,
				DisplayName: res.NewHost.DisplayName,
			})
		}

		switch {
		case res.WasDrawer:
			g.settleRound(res.Code, res.Seq, false)
		case res.AllGuessed:
			g.settleRound(res.Code, res.Seq, false)
		case res.Started && res.Remaining < g.cfg.MinPlayers:
			g.abortGame(res.Code)
		}
	}
}

func displayNameOrDefault(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	return name
}
