package internal

import "errors"

// Coordinator error taxonomy. Each maps to a structured error event sent
// only to the originating connection; none of them abort another
// player's state.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomExists       = errors.New("room already exists")
	ErrRoomFull         = errors.New("room is full")
	ErrNameTaken        = errors.New("display name already taken")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrNotYourTurn      = errors.New("you are not the drawer")
	ErrAlreadyGuessed   = errors.New("already guessed this round")
	ErrInvalidLocation  = errors.New("missing or invalid coordinates")
)

// ErrorKind returns the wire identifier for a taxonomy error, or empty
// for errors that should be dropped rather than surfaced.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "RoomNotFound"
	case errors.Is(err, ErrRoomExists):
		return "RoomAlreadyExists"
	case errors.Is(err, ErrRoomFull):
		return "RoomFull"
	case errors.Is(err, ErrNameTaken):
		return "NameTaken"
	case errors.Is(err, ErrNotHost):
		return "NotHost"
	case errors.Is(err, ErrNotEnoughPlayers):
		return "NotEnoughPlayers"
	case errors.Is(err, ErrNotYourTurn):
		return "NotYourTurn"
	case errors.Is(err, ErrAlreadyGuessed):
		return "AlreadyGuessed"
	case errors.Is(err, ErrInvalidLocation):
		return "InvalidLocation"
	}
	return ""
}
