package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	tableID   string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	service   *MatchService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, service *MatchService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
		service: service,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if player := c.GetPlayer(); player != "" {
			if tableID := c.GetTable(); tableID != "" {
				if t, terr := c.service.Table(tableID); terr == nil {
					_ = t.Leave(player)
				}
			}
			c.service.Release(player)
		}
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Send channel already closed during shutdown.
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// GetPlayer returns the associated player ID
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SetTable associates this connection with a table
func (c *Connection) SetTable(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableID = tableID
}

// GetTable returns the associated table ID
func (c *Connection) GetTable() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tableID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeJoinTable:
		var data JoinTableData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join table data")
			return
		}
		c.handleJoinTable(data)

	case MessageTypeLeaveTable:
		var data LeaveTableData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse leave table data")
			return
		}
		c.handleLeaveTable(data)

	case MessageTypeListTables:
		c.handleListTables()

	case MessageTypePlayerAction:
		var data PlayerActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse player action data")
			return
		}
		c.handlePlayerAction(data)

	case MessageTypeAddBots:
		var data AddBotsData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse add bots data")
			return
		}
		c.handleAddBots(data)

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleAuth(data AuthData) {
	playerID, err := c.service.Auth(data.PlayerName)
	if err != nil {
		c.reply(MessageTypeAuthResponse, AuthResponseData{Success: false, Error: err.Error()})
		return
	}
	c.SetPlayer(playerID)
	c.reply(MessageTypeAuthResponse, AuthResponseData{Success: true, PlayerID: playerID})
}

func (c *Connection) handleJoinTable(data JoinTableData) {
	player := c.GetPlayer()
	if player == "" {
		c.sendError("not_authenticated", "Authenticate before joining a table")
		return
	}
	table, err := c.service.Table(data.TableID)
	if err != nil {
		c.sendError("unknown_table", err.Error())
		return
	}
	seat, err := table.Join(player, c, data.Seat)
	if err != nil {
		c.sendError("join_failed", err.Error())
		return
	}
	c.SetTable(data.TableID)
	c.reply(MessageTypeTableJoined, TableJoinedData{
		TableID: data.TableID,
		Seat:    seat,
		Team:    gameTeamName(seat),
		Mode:    table.Info().Mode,
	})
}

func (c *Connection) handleLeaveTable(data LeaveTableData) {
	player := c.GetPlayer()
	table, err := c.service.Table(data.TableID)
	if err != nil {
		c.sendError("unknown_table", err.Error())
		return
	}
	if err := table.Leave(player); err != nil {
		c.sendError("leave_failed", err.Error())
		return
	}
	c.SetTable("")
	c.reply(MessageTypeTableLeft, TableLeftData{TableID: data.TableID})
}

func (c *Connection) handleListTables() {
	c.reply(MessageTypeTableList, TableListData{Tables: c.service.ListTables()})
}

func (c *Connection) handlePlayerAction(data PlayerActionData) {
	player := c.GetPlayer()
	tableID := data.TableID
	if tableID == "" {
		tableID = c.GetTable()
	}
	table, err := c.service.Table(tableID)
	if err != nil {
		c.sendError("unknown_table", err.Error())
		return
	}
	if err := table.Submit(player, data); err != nil {
		c.sendError("action_rejected", err.Error())
	}
}

func (c *Connection) handleAddBots(data AddBotsData) {
	table, err := c.service.Table(data.TableID)
	if err != nil {
		c.sendError("unknown_table", err.Error())
		return
	}
	seats, err := table.AddBots(data.Count)
	if err != nil {
		c.sendError("add_bots_failed", err.Error())
		return
	}
	c.reply(MessageTypeBotsAdded, BotsAddedData{TableID: data.TableID, Seats: seats})
}

func (c *Connection) reply(messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error("failed to build message", "type", messageType, "error", err)
		return
	}
	if err := c.SendMessage(msg); err != nil {
		c.logger.Debug("failed to send message", "type", messageType, "error", err)
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	c.reply(MessageTypeError, ErrorData{Code: code, Message: message})
}

// gameTeamName maps a seat to its team label without constructing state
func gameTeamName(seat int) string {
	if seat%2 == 0 {
		return "team1"
	}
	return "team2"
}
