package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/aldelg/quantummus/internal/deck"
	"github.com/aldelg/quantummus/internal/game"
	"github.com/aldelg/quantummus/internal/matchid"
	"github.com/aldelg/quantummus/internal/randutil"
)

// Table errors returned to clients
var (
	ErrTableFull       = fmt.Errorf("table is full")
	ErrTableInProgress = fmt.Errorf("match already in progress")
	ErrSeatTaken       = fmt.Errorf("seat is taken")
	ErrNotSeated       = fmt.Errorf("player is not seated at this table")
)

type seatState struct {
	playerID string
	conn     *Connection
	bot      bool
}

func (s *seatState) occupied() bool {
	return s.playerID != ""
}

// Table binds one match to its seats. Engine events arrive on a channel and
// fan out to the seated connections from the table's own goroutine, so the
// fanout never runs inside the engine lock.
type Table struct {
	mu       sync.Mutex
	id       string
	cfg      TableConfig
	mode     deck.Mode
	logger   *log.Logger
	clock    quartz.Clock
	recorder *Recorder

	seats   [4]seatState
	engine  *game.Engine
	matchID string
	started bool
	done    bool

	events chan game.GameEvent
	ctx    context.Context
	cancel context.CancelFunc
}

// NewTable creates a table from its configuration. A nil recorder disables
// match history.
func NewTable(cfg TableConfig, logger *log.Logger, clock quartz.Clock, recorder *Recorder) *Table {
	mode, _ := deck.ParseMode(cfg.Mode)
	ctx, cancel := context.WithCancel(context.Background())
	t := &Table{
		id:       cfg.Name,
		cfg:      cfg,
		mode:     mode,
		logger:   logger.WithPrefix("table." + cfg.Name),
		clock:    clock,
		recorder: recorder,
		events:   make(chan game.GameEvent, 256),
		ctx:      ctx,
		cancel:   cancel,
	}
	go t.run()
	return t
}

// ID returns the table identifier
func (t *Table) ID() string { return t.id }

// Close stops the table's event loop
func (t *Table) Close() {
	t.cancel()
}

// Info returns the lobby view of the table
func (t *Table) Info() TableInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	seated := 0
	for i := range t.seats {
		if t.seats[i].occupied() {
			seated++
		}
	}
	status := "waiting"
	if t.done {
		status = "finished"
	} else if t.started {
		status = "playing"
	}
	return TableInfo{
		ID:          t.id,
		Mode:        t.mode.String(),
		TargetScore: t.cfg.TargetScore,
		Seated:      seated,
		Status:      status,
	}
}

// Join seats a player. With fill_bots configured the remaining seats are
// filled and the match starts immediately; otherwise it starts when the
// fourth player sits down.
func (t *Table) Join(playerID string, conn *Connection, preferred *int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return 0, ErrTableInProgress
	}

	seat := -1
	if preferred != nil {
		p := *preferred
		if p < 0 || p > 3 {
			return 0, fmt.Errorf("seat %d out of range", p)
		}
		if t.seats[p].occupied() {
			return 0, ErrSeatTaken
		}
		seat = p
	} else {
		for i := range t.seats {
			if !t.seats[i].occupied() {
				seat = i
				break
			}
		}
	}
	if seat == -1 {
		return 0, ErrTableFull
	}

	t.seats[seat] = seatState{playerID: playerID, conn: conn}
	t.logger.Info("player seated", "player", playerID, "seat", seat)

	if t.cfg.FillBots {
		t.fillBotsLocked()
	}
	if t.fullLocked() {
		t.startLocked()
	}
	return seat, nil
}

// AddBots seats up to count bots in empty seats
func (t *Table) AddBots(count int) ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil, ErrTableInProgress
	}
	if count <= 0 {
		count = 1
	}

	var added []int
	for i := range t.seats {
		if count == 0 {
			break
		}
		if !t.seats[i].occupied() {
			t.seats[i] = seatState{playerID: fmt.Sprintf("bot-%d", i), bot: true}
			added = append(added, i)
			count--
		}
	}
	if t.fullLocked() {
		t.startLocked()
	}
	return added, nil
}

// Leave removes a player. Mid-match the seat is handed to a bot so the
// other three can finish.
func (t *Table) Leave(playerID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	seat := t.seatOfLocked(playerID)
	if seat == -1 {
		return ErrNotSeated
	}

	if t.started && !t.done {
		t.seats[seat] = seatState{playerID: fmt.Sprintf("bot-%d", seat), bot: true}
		t.engine.SetAgent(seat, game.NewRandomAgent(randutil.New(t.cfg.Seed+int64(seat)+1)))
		t.logger.Info("player replaced by bot", "player", playerID, "seat", seat)
		return nil
	}

	t.seats[seat] = seatState{}
	t.logger.Info("player left", "player", playerID, "seat", seat)
	return nil
}

// Submit forwards a player's action to the engine
func (t *Table) Submit(playerID string, data PlayerActionData) error {
	t.mu.Lock()
	seat := t.seatOfLocked(playerID)
	engine := t.engine
	t.mu.Unlock()

	if seat == -1 {
		return ErrNotSeated
	}
	if engine == nil {
		return fmt.Errorf("match has not started")
	}

	round, ok := parseRound(data.Round)
	if !ok {
		return fmt.Errorf("unknown round %q", data.Round)
	}
	action, ok := parseAction(data.Action)
	if !ok {
		return fmt.Errorf("unknown action %q", data.Action)
	}
	payload := game.Payload{Amount: data.Amount, Discards: data.Discards}
	if data.Declaration != "" {
		decl, ok := parseDeclaration(data.Declaration)
		if !ok {
			return fmt.Errorf("unknown declaration %q", data.Declaration)
		}
		payload.Declaration = decl
	}
	return engine.SubmitAction(seat, round, action, payload)
}

func (t *Table) seatOfLocked(playerID string) int {
	for i := range t.seats {
		if t.seats[i].playerID == playerID {
			return i
		}
	}
	return -1
}

func (t *Table) fullLocked() bool {
	for i := range t.seats {
		if !t.seats[i].occupied() {
			return false
		}
	}
	return true
}

func (t *Table) fillBotsLocked() {
	for i := range t.seats {
		if !t.seats[i].occupied() {
			t.seats[i] = seatState{playerID: fmt.Sprintf("bot-%d", i), bot: true}
		}
	}
}

// startLocked builds the engine and deals the first hand
func (t *Table) startLocked() {
	if t.started {
		return
	}
	t.started = true
	t.matchID = matchid.Generate()

	seed := t.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var names [4]string
	for i := range t.seats {
		names[i] = t.seats[i].playerID
	}

	t.engine = game.NewEngine(game.Config{
		Mode:        t.mode,
		TargetScore: t.cfg.TargetScore,
		TurnTimeout: time.Duration(t.cfg.TurnTimeout) * time.Second,
		AIDelay:     time.Duration(t.cfg.AIDelay) * time.Millisecond,
		Seed:        seed,
		Clock:       t.clock,
		Logger:      t.logger,
	}, names)

	for i := range t.seats {
		if t.seats[i].bot {
			t.engine.SetAgent(i, game.NewRandomAgent(randutil.New(seed+int64(i)+1)))
		}
	}

	t.engine.Bus().Subscribe(t)
	if t.recorder != nil {
		t.recorder.Start(t.matchID, t.id, t.mode, t.cfg.TargetScore, names)
	}

	t.logger.Info("match starting", "match", t.matchID, "mode", t.mode, "target", t.cfg.TargetScore)
	t.engine.StartMatch()
}

// OnEvent queues an engine event for fanout. Publishing happens inside the
// engine lock, so the handoff must not call back into the engine.
func (t *Table) OnEvent(event game.GameEvent) {
	select {
	case t.events <- event:
	case <-t.ctx.Done():
	default:
		t.logger.Warn("event buffer full, dropping", "type", event.EventType())
	}
}

func (t *Table) run() {
	for {
		select {
		case event := <-t.events:
			t.dispatch(event)
		case <-t.ctx.Done():
			return
		}
	}
}

// dispatch translates one engine event into client messages
func (t *Table) dispatch(event game.GameEvent) {
	t.logger.Debug(game.FormatEvent(event))

	switch ev := event.(type) {
	case game.HandStartEvent:
		t.broadcast(MessageTypeHandStart, HandStartData{
			HandNumber: ev.HandNumber,
			ManoIndex:  ev.ManoIndex,
			Mode:       ev.Mode.String(),
		})
		if t.recorder != nil {
			t.recorder.HandStart(t.currentMatchID(), ev)
		}

	case game.RoundChangeEvent:
		t.broadcast(MessageTypeRoundChange, RoundChangeData{
			Round:       ev.Round.String(),
			Phase:       ev.Phase.String(),
			ActiveIndex: ev.ActiveIndex,
		})

	case game.PlayerActionEvent:
		t.broadcast(MessageTypeActionApplied, ActionAppliedData{
			Seat:    ev.PlayerIndex,
			Round:   ev.Round.String(),
			Action:  ev.Action.String(),
			Amount:  ev.Amount,
			Timeout: ev.Timeout,
		})

	case game.DeclarationEvent:
		t.broadcast(MessageTypeDeclaration, DeclarationData{
			Seat:        ev.PlayerIndex,
			Round:       ev.Round.String(),
			Declaration: ev.Declaration.String(),
			Auto:        ev.Auto,
		})

	case game.CardCollapsedEvent:
		t.broadcast(MessageTypeCardCollapsed, CardCollapsedData{
			Seat:       ev.PlayerIndex,
			CardIndex:  ev.CardIndex,
			FinalValue: ev.FinalValue.String(),
			Forced:     ev.Forced,
		})

	case game.PenaltyEvent:
		t.broadcast(MessageTypePenalty, PenaltyData{
			Seat:  ev.PlayerIndex,
			Round: ev.Round.String(),
			Team:  ev.Team.String(),
		})

	case game.StateChangedEvent:
		t.sendStates()

	case game.HandEndEvent:
		awards := make([]AwardData, len(ev.Awards))
		for i, a := range ev.Awards {
			awards[i] = AwardData{Round: a.Round.String(), Team: a.Team.String(), Points: a.Points}
		}
		t.broadcast(MessageTypeHandEnd, HandEndData{
			HandNumber: ev.HandNumber,
			Awards:     awards,
			Scores:     ev.Scores,
			Hands:      rankStrings(ev.Hands),
		})
		if t.recorder != nil {
			t.recorder.HandEnd(t.currentMatchID(), ev)
		}

	case game.MatchEndEvent:
		t.mu.Lock()
		t.done = true
		matchID := t.matchID
		t.mu.Unlock()
		t.broadcast(MessageTypeMatchEnd, MatchEndData{
			MatchID: matchID,
			Winner:  ev.Winner.String(),
			Scores:  ev.Scores,
			Ordago:  ev.Ordago,
		})
		if t.recorder != nil {
			if err := t.recorder.Finish(matchID, ev); err != nil {
				t.logger.Error("failed to write match history", "match", matchID, "error", err)
			}
		}
	}
}

func (t *Table) currentMatchID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.matchID
}

// sendStates pushes each human seat its redacted snapshot, plus an action
// prompt to whoever is up.
func (t *Table) sendStates() {
	t.mu.Lock()
	engine := t.engine
	matchID := t.matchID
	conns := t.seats
	t.mu.Unlock()
	if engine == nil {
		return
	}

	for seat := range conns {
		conn := conns[seat].conn
		if conn == nil {
			continue
		}
		snap := engine.Snapshot(seat)
		t.send(conn, MessageTypeGameState, GameStateData{MatchID: matchID, State: snap})

		if valid := engine.ValidActions(seat); len(valid) > 0 {
			actions := make([]string, len(valid))
			for i, a := range valid {
				actions[i] = a.String()
			}
			t.send(conn, MessageTypeActionRequired, ActionRequiredData{
				Round:          snap.Round,
				Phase:          snap.Phase,
				ValidActions:   actions,
				TimeoutSeconds: t.cfg.TurnTimeout,
			})
		}
	}
}

func (t *Table) broadcast(messageType MessageType, data interface{}) {
	t.mu.Lock()
	conns := t.seats
	t.mu.Unlock()
	for seat := range conns {
		if conn := conns[seat].conn; conn != nil {
			t.send(conn, messageType, data)
		}
	}
}

func (t *Table) send(conn *Connection, messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		t.logger.Error("failed to build message", "type", messageType, "error", err)
		return
	}
	if err := conn.SendMessage(msg); err != nil {
		t.logger.Debug("failed to send message", "type", messageType, "error", err)
	}
}

func parseRound(s string) (game.Round, bool) {
	for r := game.Mus; r <= game.Punto; r++ {
		if r.String() == s {
			return r, true
		}
	}
	return game.Mus, false
}

func parseAction(s string) (game.Action, bool) {
	for a := game.ActionMus; a <= game.ActionDiscard; a++ {
		if a.String() == s {
			return a, true
		}
	}
	return game.ActionMus, false
}

func parseDeclaration(s string) (game.Declaration, bool) {
	for d := game.DeclareNo; d <= game.DeclarePuede; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return game.DeclareNone, false
}
