package game

import "errors"

// Action rejections. All are returned synchronously to the submitter and
// never mutate round state.
var (
	// ErrOutOfTurn rejects an action from a seat that is not active.
	ErrOutOfTurn = errors.New("not your turn")

	// ErrIllegalAction rejects an action that does not fit the current
	// round or sub-phase.
	ErrIllegalAction = errors.New("action not legal in this phase")

	// ErrRepeatDeclaration rejects a second declaration in the same
	// PARES/JUEGO phase. Declarations are write-once per hand.
	ErrRepeatDeclaration = errors.New("already declared this round")

	// ErrStalePhase rejects an action submitted for a phase that has
	// already moved on.
	ErrStalePhase = errors.New("phase already advanced")

	// ErrInvalidSeat rejects any seat index outside 0..3.
	ErrInvalidSeat = errors.New("invalid seat index")

	// ErrInvalidDiscard rejects discard index sets referencing cards the
	// player does not hold.
	ErrInvalidDiscard = errors.New("invalid discard selection")

	// ErrMatchOver rejects actions after a team has reached the target
	// score.
	ErrMatchOver = errors.New("match is over")

	// ErrCannotBet rejects bets from players whose declaration rules them
	// out of the betting sub-phase.
	ErrCannotBet = errors.New("not eligible to bet this round")
)
