package game

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldelg/quantummus/internal/deck"
)

type eventCollector struct {
	mu     sync.Mutex
	events []GameEvent
}

func (c *eventCollector) OnEvent(event GameEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *eventCollector) count(et EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.events {
		if ev.EventType() == et {
			n++
		}
	}
	return n
}

func (c *eventCollector) collapses(seat, card int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.events {
		if cc, ok := ev.(CardCollapsedEvent); ok && cc.PlayerIndex == seat && cc.CardIndex == card {
			n++
		}
	}
	return n
}

func newTestEngine(t *testing.T, seed int64) (*Engine, *quartz.Mock, *eventCollector) {
	t.Helper()
	mockClock := quartz.NewMock(t)
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	e := NewEngine(Config{
		Mode:   deck.ModeOchoReyes,
		Seed:   seed,
		Clock:  mockClock,
		Logger: logger,
	}, [4]string{"north", "east", "south", "west"})
	collector := &eventCollector{}
	e.Bus().Subscribe(collector)
	return e, mockClock, collector
}

func TestMusTurnRotation(t *testing.T) {
	e, _, _ := newTestEngine(t, 1)
	e.StartMatch()

	snap := e.Snapshot(-1)
	require.Equal(t, "MUS", snap.Round)
	require.Equal(t, 0, snap.ActiveIndex)

	err := e.SubmitAction(1, Mus, ActionMus, Payload{})
	require.ErrorIs(t, err, ErrOutOfTurn)

	require.NoError(t, e.SubmitAction(0, Mus, ActionMus, Payload{}))
	// Counter-clockwise: seat 3 follows seat 0.
	assert.Equal(t, 3, e.Snapshot(-1).ActiveIndex)
}

func TestInvalidSeatRejected(t *testing.T) {
	e, _, _ := newTestEngine(t, 1)
	e.StartMatch()
	require.ErrorIs(t, e.SubmitAction(4, Mus, ActionMus, Payload{}), ErrInvalidSeat)
	require.ErrorIs(t, e.SubmitAction(-1, Mus, ActionMus, Payload{}), ErrInvalidSeat)
}

func TestAllMusEmptyDiscardKeepsHand(t *testing.T) {
	e, _, _ := newTestEngine(t, 2)
	e.StartMatch()

	for _, seat := range []int{0, 3, 2, 1} {
		require.NoError(t, e.SubmitAction(seat, Mus, ActionMus, Payload{}))
	}
	require.Equal(t, PhaseDiscard, e.state.Round.Phase)

	var before [4]*deck.Card
	for seat := 0; seat < 4; seat++ {
		before[seat] = e.state.Players[seat].Hand[0]
	}

	for seat := 0; seat < 4; seat++ {
		require.NoError(t, e.SubmitAction(seat, Mus, ActionDiscard, Payload{Discards: []int{}}))
	}

	// Empty selections restart MUS with every card untouched.
	rs := e.state.Round
	assert.Equal(t, Mus, rs.Round)
	assert.Equal(t, PhaseTurn, rs.Phase)
	assert.Equal(t, 0, rs.ActiveIndex)
	for seat := 0; seat < 4; seat++ {
		assert.Same(t, before[seat], e.state.Players[seat].Hand[0])
	}
}

func TestDiscardValidation(t *testing.T) {
	e, _, _ := newTestEngine(t, 2)
	e.StartMatch()
	for _, seat := range []int{0, 3, 2, 1} {
		require.NoError(t, e.SubmitAction(seat, Mus, ActionMus, Payload{}))
	}

	require.ErrorIs(t, e.SubmitAction(0, Mus, ActionDiscard, Payload{Discards: []int{4}}), ErrInvalidDiscard)
	require.ErrorIs(t, e.SubmitAction(0, Mus, ActionDiscard, Payload{Discards: []int{1, 1}}), ErrInvalidDiscard)

	require.NoError(t, e.SubmitAction(0, Mus, ActionDiscard, Payload{Discards: []int{0, 2}}))
	err := e.SubmitAction(0, Mus, ActionDiscard, Payload{Discards: []int{1}})
	require.ErrorIs(t, err, ErrIllegalAction)
}

func TestDiscardReplacesSelectedCards(t *testing.T) {
	e, _, _ := newTestEngine(t, 3)
	e.StartMatch()
	for _, seat := range []int{0, 3, 2, 1} {
		require.NoError(t, e.SubmitAction(seat, Mus, ActionMus, Payload{}))
	}

	kept := e.state.Players[0].Hand[3]
	swapped := e.state.Players[0].Hand[1]
	require.NoError(t, e.SubmitAction(0, Mus, ActionDiscard, Payload{Discards: []int{1}}))
	for _, seat := range []int{1, 2, 3} {
		require.NoError(t, e.SubmitAction(seat, Mus, ActionDiscard, Payload{Discards: []int{}}))
	}

	assert.Same(t, kept, e.state.Players[0].Hand[3])
	assert.NotSame(t, swapped, e.state.Players[0].Hand[1])
	assert.Len(t, e.state.Players[0].Hand, deck.HandSize)
}

func TestPasoCutsToGrande(t *testing.T) {
	e, _, _ := newTestEngine(t, 4)
	e.StartMatch()

	require.NoError(t, e.SubmitAction(0, Mus, ActionPaso, Payload{}))
	snap := e.Snapshot(-1)
	assert.Equal(t, "GRANDE", snap.Round)
	assert.Equal(t, "betting", snap.Phase)
	assert.Equal(t, 0, snap.ActiveIndex)
	assert.Nil(t, snap.Bet)
}

func TestStaleRoundRejected(t *testing.T) {
	e, _, _ := newTestEngine(t, 4)
	e.StartMatch()
	require.NoError(t, e.SubmitAction(0, Mus, ActionPaso, Payload{}))

	err := e.SubmitAction(0, Mus, ActionPaso, Payload{})
	require.ErrorIs(t, err, ErrStalePhase)
}

func TestNoBetRoundLeavesPointPending(t *testing.T) {
	e, _, _ := newTestEngine(t, 5)
	e.StartMatch()
	require.NoError(t, e.SubmitAction(0, Mus, ActionPaso, Payload{}))

	for _, seat := range []int{0, 3, 2, 1} {
		require.NoError(t, e.SubmitAction(seat, Grande, ActionPaso, Payload{}))
	}

	rs := e.state.Round
	assert.Equal(t, Chica, rs.Round)
	require.Len(t, rs.Pending, 1)
	assert.Equal(t, Grande, rs.Pending[0].Round)
	assert.Equal(t, 1, rs.Pending[0].Points)
	assert.False(t, rs.Pending[0].Decided)
	assert.Equal(t, [2]int{0, 0}, e.Scores())
}

func TestRejectedBetPaysImmediately(t *testing.T) {
	e, _, _ := newTestEngine(t, 6)
	e.StartMatch()
	require.NoError(t, e.SubmitAction(0, Mus, ActionPaso, Payload{}))

	require.NoError(t, e.SubmitAction(0, Grande, ActionEnvido, Payload{}))
	// First defender is the first opposing seat counter-clockwise from
	// mano: 0, 3.
	require.Equal(t, 3, e.state.Round.ActiveIndex)

	require.NoError(t, e.SubmitAction(3, Grande, ActionPaso, Payload{}))
	require.Equal(t, 1, e.state.Round.ActiveIndex)
	require.NoError(t, e.SubmitAction(1, Grande, ActionPaso, Payload{}))

	// Both defenders folded: one point, paid now, round moves on.
	assert.Equal(t, [2]int{1, 0}, e.Scores())
	assert.Equal(t, Chica, e.state.Round.Round)
	assert.Empty(t, e.state.Round.Pending)
}

func TestRejectedRaisePaysPreRaiseAmount(t *testing.T) {
	e, _, _ := newTestEngine(t, 7)
	e.StartMatch()
	require.NoError(t, e.SubmitAction(0, Mus, ActionPaso, Payload{}))

	require.NoError(t, e.SubmitAction(0, Grande, ActionEnvido, Payload{Amount: 2}))
	require.NoError(t, e.SubmitAction(3, Grande, ActionRaise, Payload{Amount: 4}))
	// Team 1 now defends, seat 0 first.
	require.Equal(t, 0, e.state.Round.ActiveIndex)

	require.NoError(t, e.SubmitAction(0, Grande, ActionPaso, Payload{}))
	require.NoError(t, e.SubmitAction(2, Grande, ActionPaso, Payload{}))

	assert.Equal(t, [2]int{0, 2}, e.Scores())
	assert.Equal(t, Chica, e.state.Round.Round)
}

func TestAcceptedBetRidesOnEvaluator(t *testing.T) {
	e, _, _ := newTestEngine(t, 8)
	e.StartMatch()
	require.NoError(t, e.SubmitAction(0, Mus, ActionPaso, Payload{}))

	require.NoError(t, e.SubmitAction(0, Grande, ActionEnvido, Payload{Amount: 3}))
	require.NoError(t, e.SubmitAction(3, Grande, ActionAccept, Payload{}))

	// Nothing is paid until the hand-end reveal decides the winner.
	assert.Equal(t, [2]int{0, 0}, e.Scores())
	rs := e.state.Round
	assert.Equal(t, Chica, rs.Round)
	require.Len(t, rs.Pending, 1)
	assert.Equal(t, Grande, rs.Pending[0].Round)
	assert.Equal(t, 3, rs.Pending[0].Points)
	assert.False(t, rs.Pending[0].Decided)
}

func TestOrdagoAcceptedEndsMatch(t *testing.T) {
	e, _, collector := newTestEngine(t, 9)
	e.StartMatch()

	require.NoError(t, e.SubmitAction(0, Mus, ActionOrdago, Payload{}))
	snap := e.Snapshot(-1)
	require.Equal(t, "GRANDE", snap.Round)
	require.NotNil(t, snap.Bet)
	require.Equal(t, "ordago", snap.Bet.Type)
	require.Equal(t, 3, snap.ActiveIndex)

	// A raise is not a legal answer to an órdago.
	require.ErrorIs(t, e.SubmitAction(3, Grande, ActionRaise, Payload{}), ErrIllegalAction)

	require.NoError(t, e.SubmitAction(3, Grande, ActionAccept, Payload{}))

	winner, finished := e.Winner()
	require.True(t, finished)
	assert.True(t, e.state.WonByOrdago)
	assert.GreaterOrEqual(t, e.Scores()[winner], 40)
	assert.Equal(t, 1, collector.count(EventTypeMatchEnd))

	// The full reveal leaves no unresolved card anywhere.
	for _, p := range e.state.Players {
		assert.True(t, p.Hand.Resolved())
	}

	require.ErrorIs(t, e.SubmitAction(0, Grande, ActionPaso, Payload{}), ErrMatchOver)
}

func TestOrdagoRejectedMatchContinues(t *testing.T) {
	e, _, collector := newTestEngine(t, 10)
	e.StartMatch()

	require.NoError(t, e.SubmitAction(0, Mus, ActionOrdago, Payload{}))
	require.NoError(t, e.SubmitAction(3, Grande, ActionPaso, Payload{}))
	require.NoError(t, e.SubmitAction(1, Grande, ActionPaso, Payload{}))

	// A declined órdago pays like any declined opening bet.
	assert.Equal(t, [2]int{1, 0}, e.Scores())
	assert.False(t, e.Finished())
	assert.Equal(t, Chica, e.state.Round.Round)
	assert.Zero(t, collector.count(EventTypeMatchEnd))
}

func TestPenaltyClampsAtZero(t *testing.T) {
	e, _, collector := newTestEngine(t, 11)
	e.StartMatch()

	noPares := deck.Hand{
		deck.NewCard(deck.Psi, deck.King),
		deck.NewCard(deck.Phi, deck.Queen),
		deck.NewCard(deck.Delta, deck.Seven),
		deck.NewCard(deck.Theta, deck.Four),
	}
	e.state.Players[0].Hand = noPares

	e.checkPrediction(0, Pares, DeclareYes)
	assert.Equal(t, [2]int{0, 0}, e.state.Scores)

	e.state.Scores[0] = 3
	e.checkPrediction(0, Pares, DeclareYes)
	assert.Equal(t, [2]int{2, 0}, e.state.Scores)

	// A correct declaration costs nothing.
	e.checkPrediction(0, Pares, DeclareNo)
	assert.Equal(t, [2]int{2, 0}, e.state.Scores)

	assert.Equal(t, 2, collector.count(EventTypePenalty))
}

func TestCollapsePropagatesToPartnerCards(t *testing.T) {
	e, _, collector := newTestEngine(t, 12)
	e.StartMatch()

	mine := deck.NewEntangledCard(deck.Psi, deck.Ace, deck.King)
	theirs := deck.NewEntangledCard(deck.Phi, deck.Ace, deck.King)
	e.state.Players[0].Hand = deck.Hand{
		mine,
		deck.NewCard(deck.Phi, deck.Five),
		deck.NewCard(deck.Delta, deck.Six),
		deck.NewCard(deck.Theta, deck.Seven),
	}
	e.state.Players[1].Hand = deck.Hand{
		deck.NewCard(deck.Psi, deck.Five),
		theirs,
		deck.NewCard(deck.Delta, deck.Four),
		deck.NewCard(deck.Theta, deck.Two),
	}

	e.collapseCard(0, 0, false)

	require.True(t, mine.Resolved())
	require.True(t, theirs.Resolved())
	assert.Equal(t, mine.Opposite(mine.Value()), theirs.Value())

	assert.Equal(t, 1, collector.collapses(0, 0))
	assert.Equal(t, 1, collector.collapses(1, 1))

	// A second collapse of the same card is a no-op.
	e.collapseCard(0, 0, false)
	assert.Equal(t, 1, collector.collapses(0, 0))
}

func TestTimeoutAppliesDefaultAction(t *testing.T) {
	e, mockClock, collector := newTestEngine(t, 13)
	e.StartMatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(30 * time.Second).MustWait(ctx)

	// Seat 0 timed out in MUS: the default is mus and play moves on.
	assert.Equal(t, 3, e.Snapshot(-1).ActiveIndex)

	collector.mu.Lock()
	defer collector.mu.Unlock()
	found := false
	for _, ev := range collector.events {
		if pa, ok := ev.(PlayerActionEvent); ok && pa.PlayerIndex == 0 {
			require.Equal(t, ActionMus, pa.Action)
			require.True(t, pa.Timeout)
			found = true
		}
	}
	require.True(t, found, "expected a timeout action event for seat 0")
}

func TestDiscardDeadlineStopsAfterRestart(t *testing.T) {
	e, mockClock, collector := newTestEngine(t, 21)
	e.StartMatch()

	for _, seat := range []int{0, 3, 2, 1} {
		require.NoError(t, e.SubmitAction(seat, Mus, ActionMus, Payload{}))
	}
	require.Equal(t, PhaseDiscard, e.state.Round.Phase)

	// Seats 1, 2 and 3 discard; seat 0 sleeps through the deadline.
	for _, seat := range []int{1, 2, 3} {
		require.NoError(t, e.SubmitAction(seat, Mus, ActionDiscard, Payload{Discards: []int{0}}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mockClock.Advance(30 * time.Second).MustWait(ctx)

	// Seat 0's swept discard completed the set and restarted MUS. The
	// sweep must not keep recording discards into the fresh turn phase.
	rs := e.state.Round
	assert.Equal(t, Mus, rs.Round)
	assert.Equal(t, PhaseTurn, rs.Phase)
	assert.Empty(t, rs.Discards)

	collector.mu.Lock()
	defer collector.mu.Unlock()
	discards := 0
	for _, ev := range collector.events {
		if pa, ok := ev.(PlayerActionEvent); ok && pa.Action == ActionDiscard {
			discards++
		}
	}
	assert.Equal(t, 4, discards, "one discard action per seat")
}

func TestBetNobodyCanAnswerResolvesAsRejected(t *testing.T) {
	e, _, _ := newTestEngine(t, 5)
	e.StartMatch()

	fixed := func(rs ...deck.Rank) deck.Hand {
		suits := []deck.Suit{deck.Psi, deck.Phi, deck.Delta, deck.Theta}
		h := make(deck.Hand, len(rs))
		for i, r := range rs {
			h[i] = deck.NewCard(suits[i], r)
		}
		return h
	}

	e.mu.Lock()
	// Seat 0 holds the only pares; both opposing seats hold none and are
	// out of the betting once their hands are resolved.
	e.state.Players[0].Hand = fixed(deck.King, deck.King, deck.Queen, deck.Four)
	e.state.Players[1].Hand = fixed(deck.King, deck.Queen, deck.Jack, deck.Seven)
	e.state.Players[2].Hand = fixed(deck.Queen, deck.Jack, deck.Seven, deck.Six)
	e.state.Players[3].Hand = fixed(deck.King, deck.Queen, deck.Jack, deck.Six)
	rs := e.state.Round
	rs.Round = Pares
	rs.Phase = PhaseBetting
	rs.ActiveIndex = 0
	e.mu.Unlock()

	require.NoError(t, e.SubmitAction(0, Pares, ActionEnvido, Payload{Amount: 2}))

	// No eligible defender: the envido pays out as rejected, one point.
	assert.Equal(t, [2]int{1, 0}, e.Scores())
	assert.Equal(t, "JUEGO", e.Snapshot(-1).Round)
}

func TestSnapshotRedaction(t *testing.T) {
	e, _, _ := newTestEngine(t, 14)
	e.StartMatch()

	snap := e.Snapshot(0)
	for i, v := range snap.Hands[0] {
		assert.False(t, v.Hidden, "own card %d should be visible", i)
	}
	for seat := 1; seat < 4; seat++ {
		for i, v := range snap.Hands[seat] {
			if !v.Collapsed {
				assert.True(t, v.Hidden, "seat %d card %d should be hidden", seat, i)
				assert.Empty(t, v.Value)
				assert.Empty(t, v.MainValue)
			}
		}
	}

	// The omniscient view hides nothing.
	full := e.Snapshot(-1)
	for seat := 0; seat < 4; seat++ {
		for i, v := range full.Hands[seat] {
			assert.False(t, v.Hidden, "seat %d card %d visible to observer -1", seat, i)
		}
	}
}

// driveMatch pushes a match to completion with passive play: paso in every
// betting phase and puede whenever a manual declaration is needed.
func driveMatch(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 100000; i++ {
		if e.state.Finished {
			return
		}
		rs := e.state.Round
		if rs.Phase == PhaseDiscard {
			for seat := 0; seat < 4; seat++ {
				if _, done := rs.Discards[seat]; !done {
					require.NoError(t, e.SubmitAction(seat, rs.Round, ActionDiscard, Payload{}))
					break
				}
			}
			continue
		}

		seat := rs.ActiveIndex
		var err error
		switch rs.Phase {
		case PhaseTurn:
			err = e.SubmitAction(seat, Mus, ActionPaso, Payload{})
		case PhaseDeclaration:
			err = e.SubmitAction(seat, rs.Round, ActionDeclare, Payload{Declaration: DeclarePuede})
		case PhaseBetting:
			err = e.SubmitAction(seat, rs.Round, ActionPaso, Payload{})
		default:
			t.Fatalf("unexpected phase %s", rs.Phase)
		}
		require.NoError(t, err)
	}
	t.Fatal("match did not finish")
}

func TestMatchPlaysToCompletion(t *testing.T) {
	e, _, collector := newTestEngine(t, 15)
	e.StartMatch()

	driveMatch(t, e)

	winner, finished := e.Winner()
	require.True(t, finished)
	scores := e.Scores()
	assert.GreaterOrEqual(t, scores[winner], 40)
	assert.Less(t, scores[winner.Opponent()], 40)
	assert.Equal(t, 1, collector.count(EventTypeMatchEnd))

	// Hands start and end in lockstep; nothing starts after the match ends.
	assert.Equal(t, collector.count(EventTypeHandStart), collector.count(EventTypeHandEnd))
}

func TestManoRotatesBetweenHands(t *testing.T) {
	e, _, _ := newTestEngine(t, 16)
	e.StartMatch()
	require.Equal(t, 0, e.state.ManoIndex)

	firstHand := e.HandNumber()
	for i := 0; i < 100000; i++ {
		if e.state.Finished || e.HandNumber() > firstHand {
			break
		}
		rs := e.state.Round
		seat := rs.ActiveIndex
		switch rs.Phase {
		case PhaseTurn:
			require.NoError(t, e.SubmitAction(seat, Mus, ActionPaso, Payload{}))
		case PhaseDeclaration:
			require.NoError(t, e.SubmitAction(seat, rs.Round, ActionDeclare, Payload{Declaration: DeclarePuede}))
		case PhaseBetting:
			require.NoError(t, e.SubmitAction(seat, rs.Round, ActionPaso, Payload{}))
		}
	}

	require.False(t, e.state.Finished)
	assert.Equal(t, 2, e.HandNumber())
	assert.Equal(t, 1, e.state.ManoIndex)
}
