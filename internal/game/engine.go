package game

import (
	"fmt"
	rand "math/rand/v2"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/aldelg/quantummus/internal/deck"
	"github.com/aldelg/quantummus/internal/randutil"
)

// Config controls a match
type Config struct {
	Mode        deck.Mode
	TargetScore int
	TurnTimeout time.Duration
	AIDelay     time.Duration
	Seed        int64
	Clock       quartz.Clock
	Logger      *log.Logger
	EventBus    EventBus
}

func (c *Config) applyDefaults() {
	if c.TargetScore == 0 {
		c.TargetScore = 40
	}
	if c.TurnTimeout == 0 {
		c.TurnTimeout = 30 * time.Second
	}
	if c.AIDelay == 0 {
		c.AIDelay = 300 * time.Millisecond
	}
	if c.Clock == nil {
		c.Clock = quartz.NewReal()
	}
	if c.Logger == nil {
		c.Logger = log.New(os.Stderr)
	}
	if c.EventBus == nil {
		c.EventBus = NewEventBus()
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
}

// Payload carries the optional arguments of an action
type Payload struct {
	Amount      int
	Declaration Declaration
	Discards    []int
}

// Engine owns the match state and is its sole mutator. Actions enter
// through SubmitAction (players) or fire from the turn timer and AI delay;
// every accepted mutation happens under the engine lock, one at a time.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	clock  quartz.Clock
	rng    *rand.Rand
	logger *log.Logger
	bus    EventBus

	state  *MatchState
	deck   *deck.Deck
	agents [4]Agent

	timers []*quartz.Timer
	seq    int
}

// NewEngine creates an engine for a fresh match
func NewEngine(cfg Config, names [4]string) *Engine {
	cfg.applyDefaults()

	e := &Engine{
		cfg:    cfg,
		clock:  cfg.Clock,
		rng:    randutil.New(cfg.Seed),
		logger: cfg.Logger.WithPrefix("engine"),
		bus:    cfg.EventBus,
	}
	e.state = &MatchState{
		Mode:        cfg.Mode,
		TargetScore: cfg.TargetScore,
	}
	for i := range e.state.Players {
		e.state.Players[i] = NewPlayer(i, names[i])
	}
	e.deck = deck.New(cfg.Mode, e.rng)
	return e
}

// SetAgent attaches an agent to a seat. Seats without an agent wait the full
// turn timeout before the default action fires.
func (e *Engine) SetAgent(seat int, agent Agent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seat >= 0 && seat < 4 {
		e.agents[seat] = agent
	}
}

// Bus returns the engine's event bus
func (e *Engine) Bus() EventBus { return e.bus }

// StartMatch deals the first hand
func (e *Engine) StartMatch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.HandNumber = 1
	e.startHand()
}

// Finished reports whether the match is over
func (e *Engine) Finished() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Finished
}

// Scores returns the current team scores
func (e *Engine) Scores() [2]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Scores
}

// Winner returns the winning team once the match is over
func (e *Engine) Winner() (TeamID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Winner, e.state.Finished
}

// HandNumber returns the current hand counter
func (e *Engine) HandNumber() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.HandNumber
}

// SubmitAction is the single inbound mutation path. The round argument is
// the round the submitter believes it is acting in; a mismatch means the
// state moved on and the submission is stale.
func (e *Engine) SubmitAction(seat int, round Round, action Action, payload Payload) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seat < 0 || seat > 3 {
		return ErrInvalidSeat
	}
	if e.state.Finished {
		return ErrMatchOver
	}
	if round != e.state.Round.Round {
		return fmt.Errorf("%w: submitted for %s, now %s", ErrStalePhase, round, e.state.Round.Round)
	}
	return e.apply(seat, action, payload, false)
}

// apply validates and executes an action for the current decision point.
// Callers hold the lock.
func (e *Engine) apply(seat int, action Action, payload Payload, timeout bool) error {
	rs := e.state.Round

	if rs.Phase == PhaseDiscard {
		if action != ActionDiscard {
			return fmt.Errorf("%w: %s during discard", ErrIllegalAction, action)
		}
		return e.handleDiscard(seat, payload.Discards, timeout)
	}

	if seat != rs.ActiveIndex {
		return fmt.Errorf("%w: seat %d acted, seat %d is active", ErrOutOfTurn, seat, rs.ActiveIndex)
	}

	var err error
	switch rs.Phase {
	case PhaseTurn:
		err = e.handleMus(seat, action, payload, timeout)
	case PhaseDeclaration:
		if action != ActionDeclare {
			return fmt.Errorf("%w: %s during declarations", ErrIllegalAction, action)
		}
		err = e.handleDeclaration(seat, payload.Declaration, timeout)
	case PhaseBetting:
		err = e.handleBetting(seat, action, payload, timeout)
	default:
		err = ErrIllegalAction
	}
	if err != nil {
		return err
	}

	e.publishState()
	return nil
}

// ValidActions returns the actions a seat may currently take
func (e *Engine) ValidActions(seat int) []Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validActions(seat)
}

func (e *Engine) validActions(seat int) []Action {
	rs := e.state.Round
	if e.state.Finished {
		return nil
	}
	if rs.Phase == PhaseDiscard {
		if _, done := rs.Discards[seat]; !done {
			return []Action{ActionDiscard}
		}
		return nil
	}
	if seat != rs.ActiveIndex {
		return nil
	}
	switch rs.Phase {
	case PhaseTurn:
		return []Action{ActionMus, ActionPaso, ActionEnvido, ActionOrdago}
	case PhaseDeclaration:
		return []Action{ActionDeclare}
	case PhaseBetting:
		if rs.Bet == nil {
			return []Action{ActionPaso, ActionEnvido, ActionOrdago}
		}
		if rs.Bet.Type == BetOrdago {
			return []Action{ActionPaso, ActionAccept}
		}
		return []Action{ActionPaso, ActionAccept, ActionRaise, ActionOrdago}
	}
	return nil
}

// ----- MUS phase -----

func (e *Engine) handleMus(seat int, action Action, payload Payload, timeout bool) error {
	rs := e.state.Round

	switch action {
	case ActionMus, ActionPaso, ActionEnvido, ActionOrdago:
	default:
		return fmt.Errorf("%w: %s during MUS", ErrIllegalAction, action)
	}
	e.bus.Publish(NewPlayerActionEvent(seat, Mus, action, payload.Amount, timeout))

	switch action {
	case ActionMus:
		rs.MusActions[seat] = ActionMus
		if len(rs.MusActions) == 4 {
			rs.Phase = PhaseDiscard
			rs.Discards = make(map[int][]int)
			e.logger.Debug("all players want mus, starting discard", "hand", e.state.HandNumber)
			e.bus.Publish(NewRoundChangeEvent(Mus, PhaseDiscard, rs.ActiveIndex))
			e.beginDecision()
			return nil
		}
		rs.ActiveIndex = NextPlayer(seat)
		e.beginDecision()
		return nil

	case ActionPaso:
		// Paso cuts MUS: straight to GRANDE with no bet.
		e.enterRound(Grande)
		return nil

	case ActionEnvido:
		amount := payload.Amount
		if amount < DefaultEnvido {
			amount = DefaultEnvido
		}
		rs.Bet = NewBet(TeamOf(seat), BetEnvido, amount)
		e.enterRound(Grande)
		return nil

	case ActionOrdago:
		rs.Bet = NewBet(TeamOf(seat), BetOrdago, e.state.TargetScore)
		e.enterRound(Grande)
		return nil
	}
	return nil
}

func (e *Engine) handleDiscard(seat int, indices []int, timeout bool) error {
	rs := e.state.Round
	if rs.Phase != PhaseDiscard {
		return fmt.Errorf("%w: discard outside the discard sub-phase", ErrStalePhase)
	}
	if _, done := rs.Discards[seat]; done {
		return fmt.Errorf("%w: seat %d already discarded", ErrIllegalAction, seat)
	}

	seen := make(map[int]bool)
	for _, idx := range indices {
		if idx < 0 || idx >= deck.HandSize || seen[idx] {
			return fmt.Errorf("%w: index %d", ErrInvalidDiscard, idx)
		}
		seen[idx] = true
	}
	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	rs.Discards[seat] = sorted

	e.bus.Publish(NewPlayerActionEvent(seat, Mus, ActionDiscard, len(sorted), timeout))

	if len(rs.Discards) == 4 {
		e.redealAndRestartMus()
	}
	e.publishState()
	return nil
}

// redealAndRestartMus replaces every discarded card and restarts MUS from
// mano. Selecting no cards keeps the hand as dealt.
func (e *Engine) redealAndRestartMus() {
	rs := e.state.Round
	for seat, p := range e.state.Players {
		for _, idx := range rs.Discards[seat] {
			e.deck.Discard(p.Hand[idx])
			card, ok := e.deck.Deal()
			if !ok {
				// Recycling refills the deck before this can happen.
				e.logger.Error("deck exhausted during redeal", "seat", seat)
				continue
			}
			p.Hand[idx] = card
		}
	}

	rs.MusActions = make(map[int]Action)
	rs.Discards = make(map[int][]int)
	rs.Phase = PhaseTurn
	rs.ActiveIndex = e.state.ManoIndex
	e.logger.Debug("mus restarted after discard", "hand", e.state.HandNumber)
	e.bus.Publish(NewRoundChangeEvent(Mus, PhaseTurn, rs.ActiveIndex))
	e.beginDecision()
}

// ----- declarations -----

func (e *Engine) handleDeclaration(seat int, decl Declaration, timeout bool) error {
	rs := e.state.Round
	decls := rs.declsFor(rs.Round)
	if _, ok := decls[seat]; ok {
		return fmt.Errorf("%w: seat %d in %s", ErrRepeatDeclaration, seat, rs.Round)
	}
	if decl != DeclareYes && decl != DeclareNo && decl != DeclarePuede {
		return fmt.Errorf("%w: declaration %s", ErrIllegalAction, decl)
	}

	e.bus.Publish(NewPlayerActionEvent(seat, rs.Round, ActionDeclare, 0, timeout))
	decls[seat] = decl
	e.bus.Publish(NewDeclarationEvent(seat, rs.Round, decl, false))

	// A manual declaration commits the player: their entangled cards
	// collapse now, and a wrong yes/no costs the team a point.
	e.collapseHand(seat, false)
	if decl != DeclarePuede {
		e.checkPrediction(seat, rs.Round, decl)
	}

	rs.ActiveIndex = NextPlayer(seat)
	e.runDeclarations()
	return nil
}

// runDeclarations advances the declaration sub-phase, auto-declaring every
// seat whose outcome is certain, until a manual declaration is needed or
// all four seats have declared.
func (e *Engine) runDeclarations() {
	rs := e.state.Round
	decls := rs.declsFor(rs.Round)

	for len(decls) < 4 {
		seat := rs.ActiveIndex
		if _, ok := decls[seat]; ok {
			rs.ActiveIndex = NextPlayer(seat)
			continue
		}
		hand := e.state.Players[seat].Hand

		var outcome Outcome
		if rs.Round == Pares {
			outcome = ResolvePares(hand, e.state.Mode)
		} else {
			outcome = ResolveJuego(hand, e.state.Mode)
		}
		if !outcome.Certain {
			e.beginDecision()
			return
		}

		decl := DeclareNo
		if outcome.Value {
			decl = DeclareYes
		}
		decls[seat] = decl
		e.bus.Publish(NewDeclarationEvent(seat, rs.Round, decl, true))
		rs.ActiveIndex = NextPlayer(seat)
	}

	e.finishDeclarations()
}

func (e *Engine) finishDeclarations() {
	rs := e.state.Round
	decls := rs.declsFor(rs.Round)

	var hasYes, hasPuede [2]bool
	for seat, d := range decls {
		team := TeamOf(seat)
		switch d {
		case DeclareYes:
			hasYes[team] = true
		case DeclarePuede:
			hasPuede[team] = true
		}
	}

	if rs.Round == Pares {
		// Betting needs a firm tengo on one side and at least a maybe
		// on the other.
		contested := (hasYes[0] && (hasYes[1] || hasPuede[1])) ||
			(hasYes[1] && (hasYes[0] || hasPuede[0]))
		if contested {
			e.startBetting()
			return
		}
		e.advanceRound()
		return
	}

	// JUEGO
	switch {
	case !hasYes[0] && !hasYes[1]:
		// Nobody reaches 31: the hand is decided on raw points instead.
		rs.Round = Punto
		e.startBetting()
	case hasYes[0] != hasYes[1]:
		// Only one team has juego: reveal, no points.
		e.advanceRound()
	default:
		e.startBetting()
	}
}

// checkPrediction applies the silent penalty for a wrong manual yes/no.
// The declarer's hand is fully resolved by the time this runs.
func (e *Engine) checkPrediction(seat int, round Round, decl Declaration) {
	values := e.state.Players[seat].Hand.Values()
	var actual bool
	if round == Pares {
		actual = ParesOf(values, e.state.Mode).HasPares()
	} else {
		actual = JuegoOf(values, e.state.Mode).HasJuego
	}

	wrong := (decl == DeclareYes && !actual) || (decl == DeclareNo && actual)
	if !wrong {
		return
	}
	team := TeamOf(seat)
	if e.state.Scores[team] > 0 {
		e.state.Scores[team]--
	}
	e.logger.Info("wrong declaration penalty", "seat", seat, "round", round, "team", team)
	e.bus.Publish(NewPenaltyEvent(seat, round, team))
}

// ----- betting -----

func (e *Engine) handleBetting(seat int, action Action, payload Payload, timeout bool) error {
	rs := e.state.Round

	switch action {
	case ActionPaso:
		e.bus.Publish(NewPlayerActionEvent(seat, rs.Round, action, 0, timeout))
		return e.handlePaso(seat)

	case ActionEnvido, ActionRaise:
		if rs.Bet != nil && rs.Bet.Type == BetOrdago {
			return fmt.Errorf("%w: only paso or accept answers an ordago", ErrIllegalAction)
		}
		if !e.eligibleToBet(seat) {
			return ErrCannotBet
		}
		amount := payload.Amount
		if rs.Bet == nil {
			if amount < DefaultEnvido {
				amount = DefaultEnvido
			}
			e.bus.Publish(NewPlayerActionEvent(seat, rs.Round, action, amount, timeout))
			rs.Bet = NewBet(TeamOf(seat), BetEnvido, amount)
		} else {
			if amount <= rs.Bet.Amount {
				amount = rs.Bet.Amount + DefaultEnvido
			}
			e.bus.Publish(NewPlayerActionEvent(seat, rs.Round, action, amount, timeout))
			rs.Bet.RaiseTo(TeamOf(seat), BetEnvido, amount)
		}
		e.awaitDefender()
		return nil

	case ActionOrdago:
		if !e.eligibleToBet(seat) {
			return ErrCannotBet
		}
		e.bus.Publish(NewPlayerActionEvent(seat, rs.Round, action, e.state.TargetScore, timeout))
		if rs.Bet == nil {
			rs.Bet = NewBet(TeamOf(seat), BetOrdago, e.state.TargetScore)
		} else {
			rs.Bet.RaiseTo(TeamOf(seat), BetOrdago, e.state.TargetScore)
		}
		e.awaitDefender()
		return nil

	case ActionAccept:
		if rs.Bet == nil {
			return fmt.Errorf("%w: nothing to accept", ErrIllegalAction)
		}
		e.bus.Publish(NewPlayerActionEvent(seat, rs.Round, action, rs.Bet.Amount, timeout))
		return e.handleAccept(seat)
	}
	return fmt.Errorf("%w: %s while betting", ErrIllegalAction, action)
}

func (e *Engine) handlePaso(seat int) error {
	rs := e.state.Round

	if rs.Bet == nil {
		rs.Passed[seat] = true
		next, ok := e.nextNoBetSeat(seat)
		if !ok {
			// Action came back around to mano with no bet: a single
			// point rides on the evaluator at reveal.
			rs.Pending = append(rs.Pending, PendingAward{Round: rs.Round, Points: 1})
			e.advanceRound()
			return nil
		}
		rs.ActiveIndex = next
		e.beginDecision()
		return nil
	}

	rs.Bet.RecordResponse(seat, ActionPaso)
	defenders := e.teamBettors(rs.Bet.BettingTeam.Opponent())
	if rs.Bet.AllPassed(defenders) {
		e.rejectBet()
		return nil
	}
	for _, d := range defenders {
		if _, responded := rs.Bet.Responses[d]; !responded {
			rs.ActiveIndex = d
			e.beginDecision()
			return nil
		}
	}
	// Unreachable: AllPassed covers the no-defender-left case.
	e.rejectBet()
	return nil
}

// rejectBet pays the betting team immediately: the pre-raise stake for a
// rejected raise, otherwise one point.
func (e *Engine) rejectBet() {
	rs := e.state.Round
	team := rs.Bet.BettingTeam
	points := rs.Bet.RejectedValue()
	e.state.Scores[team] += points
	rs.Awards = append(rs.Awards, RoundAward{Round: rs.Round, Team: team, Points: points})
	e.logger.Info("bet rejected", "round", rs.Round, "team", team, "points", points)

	if e.state.Scores[team] >= e.state.TargetScore {
		rs.Phase = PhaseFinished
		e.collapseAll()
		e.bus.Publish(NewHandEndEvent(e.state.HandNumber, rs.Awards, e.state.Scores, e.state.Hands()))
		e.finishMatch(team, false)
		return
	}
	e.advanceRound()
}

func (e *Engine) handleAccept(seat int) error {
	rs := e.state.Round
	rs.Bet.RecordResponse(seat, ActionAccept)

	if rs.Bet.Type == BetOrdago {
		// Órdago accepted: everything collapses, this round's evaluator
		// decides the whole match.
		e.collapseAll()
		winner := RoundWinner(rs.Round, e.state.Hands(), e.state.Mode, e.state.ManoIndex)
		e.state.Scores[winner] += rs.Bet.Amount
		rs.Awards = append(rs.Awards, RoundAward{Round: rs.Round, Team: winner, Points: rs.Bet.Amount})
		e.bus.Publish(NewHandEndEvent(e.state.HandNumber, rs.Awards, e.state.Scores, e.state.Hands()))
		e.finishMatch(winner, true)
		return nil
	}

	rs.Pending = append(rs.Pending, PendingAward{Round: rs.Round, Points: rs.Bet.Amount})
	e.advanceRound()
	return nil
}

// eligibleToBet applies the declaration gate for PARES/JUEGO betting. Once
// a hand has fully collapsed its actual contents govern; otherwise a player
// who said no tengo is out and yes/puede are in.
func (e *Engine) eligibleToBet(seat int) bool {
	rs := e.state.Round
	if rs.Round != Pares && rs.Round != Juego {
		return true
	}
	hand := e.state.Players[seat].Hand
	if hand.Resolved() {
		values := hand.Values()
		if rs.Round == Pares {
			return ParesOf(values, e.state.Mode).HasPares()
		}
		return JuegoOf(values, e.state.Mode).HasJuego
	}
	d := rs.declsFor(rs.Round)[seat]
	return d == DeclareYes || d == DeclarePuede
}

// teamBettors lists a team's bet-eligible seats in counter-clockwise order
// from mano.
func (e *Engine) teamBettors(team TeamID) []int {
	var out []int
	seat := e.state.ManoIndex
	for i := 0; i < 4; i++ {
		if TeamOf(seat) == team && e.eligibleToBet(seat) {
			out = append(out, seat)
		}
		seat = NextPlayer(seat)
	}
	return out
}

// awaitDefender hands the turn to the seat answering the live bet. A bet
// nobody on the opposing team is eligible to answer resolves as rejected on
// the spot.
func (e *Engine) awaitDefender() {
	rs := e.state.Round
	if len(e.teamBettors(rs.Bet.BettingTeam.Opponent())) == 0 {
		e.rejectBet()
		return
	}
	rs.ActiveIndex = e.firstDefender()
	e.beginDecision()
}

// firstDefender returns the seat that answers the live bet: the first
// eligible opposing-team player counter-clockwise from mano, mano included.
// Callers ensure at least one eligible defender exists.
func (e *Engine) firstDefender() int {
	rs := e.state.Round
	defenders := e.teamBettors(rs.Bet.BettingTeam.Opponent())
	for _, d := range defenders {
		if _, responded := rs.Bet.Responses[d]; !responded {
			return d
		}
	}
	return defenders[0]
}

// firstBettor returns the first eligible seat from mano to open a betting
// sub-phase.
func (e *Engine) firstBettor() int {
	seat := e.state.ManoIndex
	for i := 0; i < 4; i++ {
		if e.eligibleToBet(seat) {
			return seat
		}
		seat = NextPlayer(seat)
	}
	return e.state.ManoIndex
}

// nextNoBetSeat finds the next eligible seat that has not passed yet.
// ok=false means every eligible seat has passed and the round resolves.
func (e *Engine) nextNoBetSeat(after int) (int, bool) {
	seat := NextPlayer(after)
	for i := 0; i < 4; i++ {
		if e.eligibleToBet(seat) && !e.state.Round.Passed[seat] {
			return seat, true
		}
		seat = NextPlayer(seat)
	}
	return 0, false
}

// ----- round flow -----

// startBetting opens the betting sub-phase of the current round
func (e *Engine) startBetting() {
	rs := e.state.Round
	rs.Phase = PhaseBetting
	rs.resetBetting()
	rs.ActiveIndex = e.firstBettor()
	e.bus.Publish(NewRoundChangeEvent(rs.Round, PhaseBetting, rs.ActiveIndex))
	e.beginDecision()
}

// enterRound moves into a round from MUS, honoring a bet carried out of the
// MUS phase.
func (e *Engine) enterRound(round Round) {
	rs := e.state.Round
	rs.Round = round
	rs.Phase = PhaseBetting
	rs.Passed = make(map[int]bool)
	if rs.Bet != nil {
		rs.ActiveIndex = e.firstDefender()
	} else {
		rs.ActiveIndex = e.state.ManoIndex
	}
	e.bus.Publish(NewRoundChangeEvent(rs.Round, PhaseBetting, rs.ActiveIndex))
	e.beginDecision()
}

// advanceRound moves to the next round in the fixed order, or ends the hand
func (e *Engine) advanceRound() {
	rs := e.state.Round
	switch rs.Round {
	case Grande:
		rs.Round = Chica
		e.startBetting()
	case Chica:
		rs.Round = Pares
		e.startDeclarations()
	case Pares:
		rs.Round = Juego
		e.startDeclarations()
	case Juego, Punto:
		e.finishHand()
	}
}

func (e *Engine) startDeclarations() {
	rs := e.state.Round
	rs.Phase = PhaseDeclaration
	rs.resetBetting()
	rs.ActiveIndex = e.state.ManoIndex
	e.bus.Publish(NewRoundChangeEvent(rs.Round, PhaseDeclaration, rs.ActiveIndex))
	e.runDeclarations()
}

// ----- collapse -----

// collapseCard resolves one card with a fresh draw and forces every
// uncollapsed card sharing its rank pair in other hands to the complement.
// The collapse event fires exactly once per card.
func (e *Engine) collapseCard(seat, cardIdx int, forced bool) {
	card := e.state.Players[seat].Hand[cardIdx]
	if card.Resolved() {
		return
	}
	value := card.Collapse(e.rng)
	e.bus.Publish(NewCardCollapsedEvent(seat, cardIdx, value, forced))

	opposite := card.Opposite(value)
	for other, p := range e.state.Players {
		if other == seat {
			continue
		}
		for idx, c := range p.Hand {
			if !c.Resolved() && c.SharesPair(card) {
				c.CollapseTo(opposite)
				e.bus.Publish(NewCardCollapsedEvent(other, idx, opposite, true))
			}
		}
	}
}

// collapseHand resolves every remaining entangled card in one hand
func (e *Engine) collapseHand(seat int, forced bool) {
	for idx := range e.state.Players[seat].Hand {
		e.collapseCard(seat, idx, forced)
	}
}

// collapseAll is the full reveal at hand end or on an accepted órdago
func (e *Engine) collapseAll() {
	seat := e.state.ManoIndex
	for i := 0; i < 4; i++ {
		e.collapseHand(seat, true)
		seat = NextPlayer(seat)
	}
}

// ----- hand lifecycle -----

func (e *Engine) startHand() {
	ms := e.state
	e.deck.Reset()
	for _, p := range ms.Players {
		hand, ok := e.deck.DealHand()
		if !ok {
			e.logger.Error("deal failed", "hand", ms.HandNumber)
			return
		}
		p.Hand = hand
	}
	ms.Round = newRoundState(ms.ManoIndex)
	e.logger.Info("hand started", "hand", ms.HandNumber, "mano", ms.ManoIndex, "mode", ms.Mode)
	e.bus.Publish(NewHandStartEvent(ms.HandNumber, ms.ManoIndex, ms.Mode))
	e.publishState()
	e.beginDecision()
}

// finishHand reveals everything, applies pending points in round order and
// rolls mano for the next hand. Point application stops the moment a team
// reaches the target.
func (e *Engine) finishHand() {
	ms := e.state
	rs := ms.Round
	rs.Phase = PhaseFinished
	e.collapseAll()

	hands := ms.Hands()
	for _, round := range []Round{Grande, Chica, Pares, Juego, Punto} {
		for _, p := range rs.Pending {
			if p.Round != round {
				continue
			}
			team := p.Team
			if !p.Decided {
				team = RoundWinner(p.Round, hands, ms.Mode, ms.ManoIndex)
			}
			ms.Scores[team] += p.Points
			rs.Awards = append(rs.Awards, RoundAward{Round: p.Round, Team: team, Points: p.Points})
			if ms.Scores[team] >= ms.TargetScore {
				e.bus.Publish(NewHandEndEvent(ms.HandNumber, rs.Awards, ms.Scores, hands))
				e.finishMatch(team, false)
				return
			}
		}
	}

	e.bus.Publish(NewHandEndEvent(ms.HandNumber, rs.Awards, ms.Scores, hands))
	e.logger.Info("hand finished", "hand", ms.HandNumber, "team1", ms.Scores[0], "team2", ms.Scores[1])

	ms.ManoIndex = (ms.ManoIndex + 1) % 4
	ms.HandNumber++
	e.startHand()
}

// finishMatch ends the match exactly once
func (e *Engine) finishMatch(winner TeamID, ordago bool) {
	ms := e.state
	if ms.Finished {
		return
	}
	ms.Finished = true
	ms.Winner = winner
	ms.WonByOrdago = ordago
	ms.Round.Phase = PhaseFinished
	e.stopTimers()
	e.logger.Info("match finished", "winner", winner, "team1", ms.Scores[0], "team2", ms.Scores[1], "ordago", ordago)
	e.bus.Publish(NewMatchEndEvent(winner, ms.Scores, ordago))
}

// ----- timers -----

// beginDecision arms the timers for the current decision point. Any timer
// from the previous decision point is stopped unconditionally first, and a
// bumped sequence number invalidates callbacks already in flight.
func (e *Engine) beginDecision() {
	e.seq++
	e.stopTimers()
	if e.state.Finished {
		return
	}
	seq := e.seq
	rs := e.state.Round

	if rs.Phase == PhaseDiscard {
		// Simultaneous phase: agents discard on the short delay, one
		// deadline sweeps up everyone else with the default.
		for seat := range e.state.Players {
			if e.agents[seat] == nil {
				continue
			}
			s := seat
			e.timers = append(e.timers, e.clock.AfterFunc(e.cfg.AIDelay, func() {
				e.fireScheduled(seq, s, false)
			}))
		}
		e.timers = append(e.timers, e.clock.AfterFunc(e.cfg.TurnTimeout, func() {
			e.fireDiscardDeadline(seq)
		}))
		return
	}

	seat := rs.ActiveIndex
	delay := e.cfg.TurnTimeout
	if e.agents[seat] != nil {
		delay = e.cfg.AIDelay
	}
	e.timers = append(e.timers, e.clock.AfterFunc(delay, func() {
		e.fireScheduled(seq, seat, e.agents[seat] == nil)
	}))
}

func (e *Engine) stopTimers() {
	for _, t := range e.timers {
		t.Stop()
	}
	e.timers = nil
}

// fireScheduled runs a deferred agent or timeout action. The sequence check
// drops it if the decision point moved on before it fired.
func (e *Engine) fireScheduled(seq, seat int, timeout bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq || e.state.Finished {
		return
	}

	valid := e.validActions(seat)
	if len(valid) == 0 {
		return
	}

	rs := e.state.Round
	decision := DefaultDecision(rs.Phase.String(), rs.Round.String())
	if agent := e.agents[seat]; agent != nil && !timeout {
		decision = agent.Decide(e.snapshot(seat), e.state.Players[seat].Hand, valid)
	}

	payload := Payload{Amount: decision.Amount, Declaration: decision.Declaration, Discards: decision.Discards}
	if err := e.apply(seat, decision.Action, payload, timeout); err != nil {
		// Bad agent decision: fall back to the timeout default.
		e.logger.Warn("agent decision rejected, applying default", "seat", seat, "action", decision.Action, "err", err)
		def := DefaultDecision(rs.Phase.String(), rs.Round.String())
		payload = Payload{Declaration: def.Declaration, Discards: def.Discards}
		if err := e.apply(seat, def.Action, payload, true); err != nil {
			e.logger.Error("default action rejected", "seat", seat, "err", err)
		}
	}
}

// fireDiscardDeadline applies discard-everything for every seat that has
// not discarded when the shared discard timer expires.
func (e *Engine) fireDiscardDeadline(seq int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq || e.state.Finished {
		return
	}
	rs := e.state.Round
	if rs.Phase != PhaseDiscard {
		return
	}
	for seat := range e.state.Players {
		// A swept discard can complete the set, redeal and restart MUS
		// mid-loop. The remaining seats belong to the new turn phase.
		if seq != e.seq || rs.Phase != PhaseDiscard {
			return
		}
		if _, done := rs.Discards[seat]; done {
			continue
		}
		if err := e.handleDiscard(seat, []int{0, 1, 2, 3}, true); err != nil {
			e.logger.Error("deadline discard rejected", "seat", seat, "err", err)
		}
	}
}

// ----- snapshots -----

// Snapshot returns the match as seen by one seat. Observer -1 sees every
// card.
func (e *Engine) Snapshot(observer int) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(observer)
}

func (e *Engine) snapshot(observer int) Snapshot {
	ms := e.state
	rs := ms.Round

	snap := Snapshot{
		Observer:    observer,
		Mode:        ms.Mode.String(),
		HandNumber:  ms.HandNumber,
		Round:       rs.Round.String(),
		Phase:       rs.Phase.String(),
		ManoIndex:   ms.ManoIndex,
		ActiveIndex: rs.ActiveIndex,
		Scores:      ms.Scores,
		TargetScore: ms.TargetScore,
		ParesDecls:  declViews(rs.ParesDecls),
		JuegoDecls:  declViews(rs.JuegoDecls),
		Finished:    ms.Finished,
	}
	if ms.Finished {
		snap.Winner = ms.Winner.String()
	}

	reveal := observer == -1 || rs.Phase == PhaseFinished
	for seat, p := range ms.Players {
		views := make([]CardView, len(p.Hand))
		for i, c := range p.Hand {
			views[i] = snapshotCard(c, seat == observer, reveal)
		}
		snap.Hands[seat] = views
	}

	if rs.Bet != nil {
		snap.Bet = &BetView{
			Amount:         rs.Bet.Amount,
			BettingTeam:    rs.Bet.BettingTeam.String(),
			Type:           rs.Bet.Type.String(),
			IsRaise:        rs.Bet.IsRaise,
			PreviousAmount: rs.Bet.PreviousAmount,
		}
	}
	return snap
}

func (e *Engine) publishState() {
	rs := e.state.Round
	e.bus.Publish(NewStateChangedEvent(rs.Round, rs.Phase, rs.ActiveIndex))
}
