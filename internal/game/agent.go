package game

import (
	rand "math/rand/v2"

	"github.com/aldelg/quantummus/internal/deck"
)

// Decision is an agent's chosen action plus its payload
type Decision struct {
	Action      Action
	Amount      int
	Declaration Declaration
	Discards    []int
}

// Agent decides for a seat when no human is attached (AI seats, disconnect
// substitutes). Decide receives the seat's redacted view and the actions
// currently legal for it.
type Agent interface {
	Decide(view Snapshot, hand deck.Hand, valid []Action) Decision
}

// DefaultAgent applies the timeout policy: mus in MUS, paso while betting,
// puede in declarations and discard-everything in the discard sub-phase.
// It is also what a seat falls back to when its agent returns an illegal
// decision.
type DefaultAgent struct{}

// NewDefaultAgent creates the timeout-policy agent
func NewDefaultAgent() *DefaultAgent {
	return &DefaultAgent{}
}

// Decide applies the deterministic default for the current phase
func (a *DefaultAgent) Decide(view Snapshot, hand deck.Hand, valid []Action) Decision {
	return DefaultDecision(view.Phase, view.Round)
}

// DefaultDecision is the timeout default for a phase
func DefaultDecision(phase, round string) Decision {
	switch phase {
	case PhaseDiscard.String():
		return Decision{Action: ActionDiscard, Discards: []int{0, 1, 2, 3}}
	case PhaseDeclaration.String():
		return Decision{Action: ActionDeclare, Declaration: DeclarePuede}
	}
	if round == Mus.String() {
		return Decision{Action: ActionMus}
	}
	return Decision{Action: ActionPaso}
}

// RandomAgent plays legal actions at random with a mild preference for
// passing, which keeps simulated matches moving.
type RandomAgent struct {
	rng *rand.Rand
}

// NewRandomAgent creates an agent backed by the given RNG
func NewRandomAgent(rng *rand.Rand) *RandomAgent {
	return &RandomAgent{rng: rng}
}

// Decide picks a random legal action
func (a *RandomAgent) Decide(view Snapshot, hand deck.Hand, valid []Action) Decision {
	if len(valid) == 0 {
		return DefaultDecision(view.Phase, view.Round)
	}
	action := valid[a.rng.IntN(len(valid))]
	switch action {
	case ActionOrdago:
		// Órdago is rare: back off to the first legal action most of
		// the time so random matches do not end instantly.
		if a.rng.IntN(20) != 0 {
			action = valid[0]
		}
	case ActionDiscard:
		var discards []int
		for i := 0; i < deck.HandSize; i++ {
			if a.rng.IntN(2) == 0 {
				discards = append(discards, i)
			}
		}
		return Decision{Action: ActionDiscard, Discards: discards}
	case ActionDeclare:
		return Decision{Action: ActionDeclare, Declaration: []Declaration{DeclareNo, DeclareYes, DeclarePuede}[a.rng.IntN(3)]}
	case ActionEnvido:
		return Decision{Action: ActionEnvido, Amount: DefaultEnvido + a.rng.IntN(3)}
	case ActionRaise:
		return Decision{Action: ActionRaise}
	}
	return Decision{Action: action}
}
