package internal

// Message is the named-event JSON envelope used in both directions.
type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Inbound event types.
const (
	EvtCreateRoom   = "create_room"
	EvtJoinRoom     = "join_room"
	EvtStartGame    = "start_game"
	EvtFindMatch    = "find_nearby_match"
	EvtCancelSearch = "cancel_search"
	EvtDrawStroke   = "draw_stroke"
	EvtUndo         = "undo"
	EvtRedo         = "redo"
	EvtClearCanvas  = "clear_canvas"
	EvtSendGuess    = "send_guess"
	EvtChatMessage  = "chat_message"
)

// Inbound payloads.

type CreateRoomRequest struct {
	DisplayName string `json:"displayName"`
	Code        string `json:"code,omitempty"`
}

type JoinRoomRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
}

type RoomRef struct {
	Code string `json:"code"`
}

type FindMatchRequest struct {
	DisplayName string   `json:"displayName"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

type DrawStrokeRequest struct {
	Code   string  `json:"code"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  int     `json:"width"`
}

type GuessRequest struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type ChatRequest struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

// Outbound payloads.

// PlayerInfo is the public view of a player, safe to fan out.
type PlayerInfo struct {
	ConnID       string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	Score        int    `json:"score"`
	IsHost       bool   `json:"isHost"`
	CorrectCount int    `json:"correctGuessCount"`
}

type RoomStateData struct {
	Code    string       `json:"roomCode"`
	Players []PlayerInfo `json:"players"`
	Started bool         `json:"started"`
}

type PlayerLeftData struct {
	ConnID      string `json:"connectionId"`
	DisplayName string `json:"displayName"`
	Remaining   int    `json:"playersRemaining"`
}

type HostChangedData struct {
	ConnID      string `json:"connectionId"`
	DisplayName string `json:"displayName"`
}

type MatchFoundData struct {
	RoomCode   string  `json:"roomCode"`
	PeerName   string  `json:"peerName"`
	DistanceKm float64 `json:"distanceKm"`
}

type NewRoundData struct {
	RoundNumber int    `json:"roundNumber"`
	DrawerID    string `json:"drawerId"`
	DrawerName  string `json:"drawerName"`
	Word        string `json:"word"`
	WordLength  int    `json:"wordLength"`
	Seconds     int    `json:"seconds"`
}

type DrawHistoryData struct {
	Strokes []Stroke `json:"strokes"`
}

type CorrectGuessData struct {
	ConnID      string `json:"connectionId"`
	DisplayName string `json:"playerName"`
	Points      int    `json:"points"`
	GuessOrder  int    `json:"guessOrder"`
}

type GuessResultData struct {
	Correct bool `json:"correct"`
	Points  int  `json:"points,omitempty"`
}

type ChatMessageData struct {
	DisplayName string `json:"displayName"`
	Text        string `json:"text"`
}

type RoundEndData struct {
	Word         string       `json:"word"`
	Players      []PlayerInfo `json:"players"`
	CorrectCount int          `json:"correctCount"`
	RoundNumber  int          `json:"roundNumber"`
}

// Standing is one row of the final ranking.
type Standing struct {
	Rank         int    `json:"rank"`
	ConnID       string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	Score        int    `json:"score"`
	CorrectCount int    `json:"correctGuessCount"`
}

type GameEndData struct {
	RankedPlayers []Standing `json:"rankedPlayers"`
}

type ErrorData struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func PublicPlayer(p *Player) PlayerInfo {
	return PlayerInfo{
		ConnID:       p.ConnID,
		DisplayName:  p.DisplayName,
		Score:        p.Score,
		IsHost:       p.IsHost,
		CorrectCount: p.CorrectCount,
	}
}

func PublicPlayers(players []*Player) []PlayerInfo {
	out := make([]PlayerInfo, 0, len(players))
	for _, p := range players {
		out = append(out, PublicPlayer(p))
	}
	return out
}
