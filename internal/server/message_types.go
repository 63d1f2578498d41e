package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
// These are used for client-server communication protocol
const (
	// Client to server messages
	MessageTypeAuth         MessageType = "auth"
	MessageTypeJoinTable    MessageType = "join_table"
	MessageTypeLeaveTable   MessageType = "leave_table"
	MessageTypeListTables   MessageType = "list_tables"
	MessageTypePlayerAction MessageType = "player_action"
	MessageTypeAddBots      MessageType = "add_bots"

	// Server to client messages
	MessageTypeAuthResponse   MessageType = "auth_response"
	MessageTypeError          MessageType = "error"
	MessageTypeTableList      MessageType = "table_list"
	MessageTypeTableJoined    MessageType = "table_joined"
	MessageTypeTableLeft      MessageType = "table_left"
	MessageTypeBotsAdded      MessageType = "bots_added"
	MessageTypeActionRequired MessageType = "action_required"
	MessageTypeGameState      MessageType = "game_state"
	MessageTypeHandStart      MessageType = "hand_start"
	MessageTypeHandEnd        MessageType = "hand_end"
	MessageTypeRoundChange    MessageType = "round_change"
	MessageTypeActionApplied  MessageType = "action_applied"
	MessageTypeDeclaration    MessageType = "declaration"
	MessageTypeCardCollapsed  MessageType = "card_collapsed"
	MessageTypePenalty        MessageType = "penalty"
	MessageTypeMatchEnd       MessageType = "match_end"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
