package game

// DefaultEnvido is the stake of an envido with no explicit amount.
const DefaultEnvido = 2

// CurrentBet tracks the live bet within a betting sub-phase. A nil
// *CurrentBet means no bet has been placed yet this round.
type CurrentBet struct {
	Amount         int
	BettingTeam    TeamID
	Type           BetType
	Responses      map[int]Action
	IsRaise        bool
	PreviousAmount int
}

// NewBet opens a bet for a team
func NewBet(team TeamID, betType BetType, amount int) *CurrentBet {
	return &CurrentBet{
		Amount:      amount,
		BettingTeam: team,
		Type:        betType,
		Responses:   make(map[int]Action),
	}
}

// RaiseTo records a counter-bet by the opposing team. The previous amount is
// kept so a rejected raise still pays out what the original bet was worth.
func (b *CurrentBet) RaiseTo(team TeamID, betType BetType, amount int) {
	b.PreviousAmount = b.Amount
	b.IsRaise = true
	b.Amount = amount
	b.BettingTeam = team
	b.Type = betType
	b.Responses = make(map[int]Action)
}

// RecordResponse stores a defender's paso or accept
func (b *CurrentBet) RecordResponse(playerIndex int, action Action) {
	b.Responses[playerIndex] = action
}

// AllPassed reports whether every listed defender has responded paso
func (b *CurrentBet) AllPassed(defenders []int) bool {
	if len(defenders) == 0 {
		return false
	}
	for _, d := range defenders {
		if b.Responses[d] != ActionPaso {
			return false
		}
	}
	return true
}

// RejectedValue is what the betting team scores when all defenders fold:
// the pre-raise amount for a rejected raise, otherwise a single point.
func (b *CurrentBet) RejectedValue() int {
	if b.IsRaise {
		return b.PreviousAmount
	}
	return 1
}
