package game

import (
	"sync"
	"time"

	"github.com/aldelg/quantummus/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for game domain events
const (
	EventTypeHandStart     EventType = "hand_start"
	EventTypeHandEnd       EventType = "hand_end"
	EventTypeRoundChange   EventType = "round_change"
	EventTypePlayerAction  EventType = "player_action"
	EventTypeDeclaration   EventType = "declaration"
	EventTypeCardCollapsed EventType = "card_collapsed"
	EventTypeStateChanged  EventType = "state_changed"
	EventTypeMatchEnd      EventType = "match_end"
	EventTypePenalty       EventType = "penalty"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents any event that occurs during a match
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// HandStartEvent is published when a new hand begins
type HandStartEvent struct {
	HandNumber int
	ManoIndex  int
	Mode       deck.Mode
	timestamp  time.Time
}

func (e HandStartEvent) EventType() EventType { return EventTypeHandStart }
func (e HandStartEvent) Timestamp() time.Time { return e.timestamp }

// NewHandStartEvent creates a new hand start event
func NewHandStartEvent(handNumber, manoIndex int, mode deck.Mode) HandStartEvent {
	return HandStartEvent{HandNumber: handNumber, ManoIndex: manoIndex, Mode: mode, timestamp: time.Now()}
}

// RoundChangeEvent is published when the hand advances to a new round
type RoundChangeEvent struct {
	Round       Round
	Phase       Phase
	ActiveIndex int
	timestamp   time.Time
}

func (e RoundChangeEvent) EventType() EventType { return EventTypeRoundChange }
func (e RoundChangeEvent) Timestamp() time.Time { return e.timestamp }

// NewRoundChangeEvent creates a new round change event
func NewRoundChangeEvent(round Round, phase Phase, activeIndex int) RoundChangeEvent {
	return RoundChangeEvent{Round: round, Phase: phase, ActiveIndex: activeIndex, timestamp: time.Now()}
}

// PlayerActionEvent is published when a player's action is accepted
type PlayerActionEvent struct {
	PlayerIndex int
	Round       Round
	Action      Action
	Amount      int
	Timeout     bool
	timestamp   time.Time
}

func (e PlayerActionEvent) EventType() EventType { return EventTypePlayerAction }
func (e PlayerActionEvent) Timestamp() time.Time { return e.timestamp }

// NewPlayerActionEvent creates a new player action event
func NewPlayerActionEvent(playerIndex int, round Round, action Action, amount int, timeout bool) PlayerActionEvent {
	return PlayerActionEvent{
		PlayerIndex: playerIndex,
		Round:       round,
		Action:      action,
		Amount:      amount,
		Timeout:     timeout,
		timestamp:   time.Now(),
	}
}

// DeclarationEvent is published when a PARES/JUEGO declaration is recorded
type DeclarationEvent struct {
	PlayerIndex int
	Round       Round
	Declaration Declaration
	Auto        bool
	timestamp   time.Time
}

func (e DeclarationEvent) EventType() EventType { return EventTypeDeclaration }
func (e DeclarationEvent) Timestamp() time.Time { return e.timestamp }

// NewDeclarationEvent creates a new declaration event
func NewDeclarationEvent(playerIndex int, round Round, declaration Declaration, auto bool) DeclarationEvent {
	return DeclarationEvent{
		PlayerIndex: playerIndex,
		Round:       round,
		Declaration: declaration,
		Auto:        auto,
		timestamp:   time.Now(),
	}
}

// CardCollapsedEvent is published exactly once per card when an entangled
// card resolves to its final value.
type CardCollapsedEvent struct {
	PlayerIndex int
	CardIndex   int
	FinalValue  deck.Rank
	Forced      bool
	timestamp   time.Time
}

func (e CardCollapsedEvent) EventType() EventType { return EventTypeCardCollapsed }
func (e CardCollapsedEvent) Timestamp() time.Time { return e.timestamp }

// NewCardCollapsedEvent creates a new card collapsed event
func NewCardCollapsedEvent(playerIndex, cardIndex int, finalValue deck.Rank, forced bool) CardCollapsedEvent {
	return CardCollapsedEvent{
		PlayerIndex: playerIndex,
		CardIndex:   cardIndex,
		FinalValue:  finalValue,
		Forced:      forced,
		timestamp:   time.Now(),
	}
}

// PenaltyEvent is published when a wrong manual declaration costs a team a
// point.
type PenaltyEvent struct {
	PlayerIndex int
	Round       Round
	Team        TeamID
	timestamp   time.Time
}

func (e PenaltyEvent) EventType() EventType { return EventTypePenalty }
func (e PenaltyEvent) Timestamp() time.Time { return e.timestamp }

// NewPenaltyEvent creates a new penalty event
func NewPenaltyEvent(playerIndex int, round Round, team TeamID) PenaltyEvent {
	return PenaltyEvent{PlayerIndex: playerIndex, Round: round, Team: team, timestamp: time.Now()}
}

// StateChangedEvent is published after any accepted mutation so observers
// can re-render.
type StateChangedEvent struct {
	Round       Round
	Phase       Phase
	ActiveIndex int
	timestamp   time.Time
}

func (e StateChangedEvent) EventType() EventType { return EventTypeStateChanged }
func (e StateChangedEvent) Timestamp() time.Time { return e.timestamp }

// NewStateChangedEvent creates a new state changed event
func NewStateChangedEvent(round Round, phase Phase, activeIndex int) StateChangedEvent {
	return StateChangedEvent{Round: round, Phase: phase, ActiveIndex: activeIndex, timestamp: time.Now()}
}

// RoundAward records points won in one round of a hand
type RoundAward struct {
	Round  Round
	Team   TeamID
	Points int
}

// HandEndEvent is published when a hand completes and pending points have
// been applied. Hands carries every seat's final resolved ranks.
type HandEndEvent struct {
	HandNumber int
	Awards     []RoundAward
	Scores     [2]int
	Hands      [4][]deck.Rank
	timestamp  time.Time
}

func (e HandEndEvent) EventType() EventType { return EventTypeHandEnd }
func (e HandEndEvent) Timestamp() time.Time { return e.timestamp }

// NewHandEndEvent creates a new hand end event
func NewHandEndEvent(handNumber int, awards []RoundAward, scores [2]int, hands [4][]deck.Rank) HandEndEvent {
	return HandEndEvent{HandNumber: handNumber, Awards: awards, Scores: scores, Hands: hands, timestamp: time.Now()}
}

// MatchEndEvent is published exactly once when a team reaches the target
// score or an órdago is accepted.
type MatchEndEvent struct {
	Winner    TeamID
	Scores    [2]int
	Ordago    bool
	timestamp time.Time
}

func (e MatchEndEvent) EventType() EventType { return EventTypeMatchEnd }
func (e MatchEndEvent) Timestamp() time.Time { return e.timestamp }

// NewMatchEndEvent creates a new match end event
func NewMatchEndEvent(winner TeamID, scores [2]int, ordago bool) MatchEndEvent {
	return MatchEndEvent{Winner: winner, Scores: scores, Ordago: ordago, timestamp: time.Now()}
}

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a basic in-memory event bus implementation
type SimpleEventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	bus.mu.RLock()
	subs := make([]EventSubscriber, len(bus.subscribers))
	copy(subs, bus.subscribers)
	bus.mu.RUnlock()
	for _, subscriber := range subs {
		subscriber.OnEvent(event)
	}
}
