package server

import (
	"encoding/json"
	"time"

	"github.com/aldelg/quantummus/internal/deck"
	"github.com/aldelg/quantummus/internal/game"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	PlayerName string `json:"playerName"`
}

type JoinTableData struct {
	TableID string `json:"tableId"`
	Seat    *int   `json:"seat,omitempty"`
}

type LeaveTableData struct {
	TableID string `json:"tableId"`
}

// PlayerActionData carries a player's move. Round is the round the client
// believes it is acting in; the engine rejects it if the match moved on.
type PlayerActionData struct {
	TableID     string `json:"tableId"`
	Round       string `json:"round"`
	Action      string `json:"action"`
	Amount      int    `json:"amount,omitempty"`
	Declaration string `json:"declaration,omitempty"`
	Discards    []int  `json:"discards,omitempty"`
}

type AddBotsData struct {
	TableID string `json:"tableId"`
	Count   int    `json:"count,omitempty"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TableInfo struct {
	ID          string `json:"id"`
	Mode        string `json:"mode"`
	TargetScore int    `json:"targetScore"`
	Seated      int    `json:"seated"`
	Status      string `json:"status"`
}

type TableListData struct {
	Tables []TableInfo `json:"tables"`
}

type TableJoinedData struct {
	TableID string `json:"tableId"`
	Seat    int    `json:"seat"`
	Team    string `json:"team"`
	Mode    string `json:"mode"`
}

type TableLeftData struct {
	TableID string `json:"tableId"`
}

type BotsAddedData struct {
	TableID string `json:"tableId"`
	Seats   []int  `json:"seats"`
}

// ActionRequiredData tells a client its seat is up
type ActionRequiredData struct {
	Round          string   `json:"round"`
	Phase          string   `json:"phase"`
	ValidActions   []string `json:"validActions"`
	TimeoutSeconds int      `json:"timeoutSeconds"`
}

// GameStateData is the per-seat redacted snapshot sent after every state
// change.
type GameStateData struct {
	MatchID string        `json:"matchId"`
	State   game.Snapshot `json:"state"`
}

type HandStartData struct {
	HandNumber int    `json:"handNumber"`
	ManoIndex  int    `json:"manoIndex"`
	Mode       string `json:"mode"`
}

type RoundChangeData struct {
	Round       string `json:"round"`
	Phase       string `json:"phase"`
	ActiveIndex int    `json:"activeIndex"`
}

type ActionAppliedData struct {
	Seat    int    `json:"seat"`
	Round   string `json:"round"`
	Action  string `json:"action"`
	Amount  int    `json:"amount,omitempty"`
	Timeout bool   `json:"timeout,omitempty"`
}

type DeclarationData struct {
	Seat        int    `json:"seat"`
	Round       string `json:"round"`
	Declaration string `json:"declaration"`
	Auto        bool   `json:"auto"`
}

type CardCollapsedData struct {
	Seat       int    `json:"seat"`
	CardIndex  int    `json:"cardIndex"`
	FinalValue string `json:"finalValue"`
	Forced     bool   `json:"forced"`
}

type PenaltyData struct {
	Seat  int    `json:"seat"`
	Round string `json:"round"`
	Team  string `json:"team"`
}

type AwardData struct {
	Round  string `json:"round"`
	Team   string `json:"team"`
	Points int    `json:"points"`
}

type HandEndData struct {
	HandNumber int         `json:"handNumber"`
	Awards     []AwardData `json:"awards"`
	Scores     [2]int      `json:"scores"`
	Hands      [4][]string `json:"hands"`
}

type MatchEndData struct {
	MatchID string `json:"matchId"`
	Winner  string `json:"winner"`
	Scores  [2]int `json:"scores"`
	Ordago  bool   `json:"ordago"`
}

// rankStrings renders a resolved hand for the wire
func rankStrings(hands [4][]deck.Rank) [4][]string {
	var out [4][]string
	for i, h := range hands {
		out[i] = make([]string, len(h))
		for j, r := range h {
			out[i][j] = r.String()
		}
	}
	return out
}
