package domain

// ClientMessage is the inbound WebSocket message envelope.
type ClientMessage struct {
	Type        string `json:"type"`
	UserID      int64  `json:"userId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Category    string `json:"category,omitempty"`
	RoomID      string `json:"roomId,omitempty"`
	Score       int    `json:"score,omitempty"`
	FinalScore  int    `json:"finalScore,omitempty"`
}

// ServerMessage is the outbound WebSocket message envelope.
type ServerMessage struct {
	Type         string      `json:"type"`
	Message      string      `json:"message,omitempty"`
	RoomID       string      `json:"roomId,omitempty"`
	SelfID       string      `json:"selfId,omitempty"`
	OpponentName string      `json:"opponentName,omitempty"`
	Questions    []Question  `json:"questions,omitempty"`
	Score        *int        `json:"score,omitempty"`
	Duel         *DuelRecord `json:"duel,omitempty"`
}

const (
	// inbound
	MsgFindDuel     = "find_duel"
	MsgSubmitScore  = "submit_score"
	MsgFinishDuel   = "finish_duel"
	MsgCancelSearch = "cancel_search"

	// outbound
	MsgWaiting          = "waiting"
	MsgMatched          = "matched"
	MsgOpponentScore    = "opponent_score"
	MsgGlobalDuelUpdate = "global_duel_update"
	MsgError            = "error"
)
