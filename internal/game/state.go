package game

import (
	"github.com/aldelg/quantummus/internal/deck"
)

// Player is one of the four fixed seats. Seats 0 and 2 form team 1,
// seats 1 and 3 form team 2.
type Player struct {
	Index int
	Name  string
	Team  TeamID
	Hand  deck.Hand
}

// NewPlayer creates a player for a seat
func NewPlayer(index int, name string) *Player {
	return &Player{Index: index, Name: name, Team: TeamOf(index)}
}

// PendingAward is a round's stake waiting to be applied at hand end. When
// Decided is false the winner is determined by the round's evaluator once
// every card has collapsed.
type PendingAward struct {
	Round   Round
	Points  int
	Team    TeamID
	Decided bool
}

// RoundState is the live state of the current hand. It is owned by the
// engine and mutated by one accepted action at a time.
type RoundState struct {
	Round       Round
	Phase       Phase
	ActiveIndex int

	Bet    *CurrentBet
	Passed map[int]bool // no-bet passes this betting sub-phase

	MusActions map[int]Action
	Discards   map[int][]int

	ParesDecls map[int]Declaration
	JuegoDecls map[int]Declaration

	Pending []PendingAward
	Awards  []RoundAward
}

func newRoundState(mano int) *RoundState {
	return &RoundState{
		Round:       Mus,
		Phase:       PhaseTurn,
		ActiveIndex: mano,
		Passed:      make(map[int]bool),
		MusActions:  make(map[int]Action),
		Discards:    make(map[int][]int),
		ParesDecls:  make(map[int]Declaration),
		JuegoDecls:  make(map[int]Declaration),
	}
}

// declsFor returns the declaration map for a declaration round
func (rs *RoundState) declsFor(round Round) map[int]Declaration {
	if round == Juego {
		return rs.JuegoDecls
	}
	return rs.ParesDecls
}

// resetBetting clears bet state between rounds
func (rs *RoundState) resetBetting() {
	rs.Bet = nil
	rs.Passed = make(map[int]bool)
}

// MatchState is the full match: fixed seating, running scores and the
// current hand.
type MatchState struct {
	Mode        deck.Mode
	TargetScore int
	Players     [4]*Player
	Scores      [2]int
	ManoIndex   int
	HandNumber  int
	Round       *RoundState
	Finished    bool
	Winner      TeamID
	WonByOrdago bool
}

// Hands returns every player's resolved rank values. Only meaningful once
// all cards have collapsed.
func (ms *MatchState) Hands() [4][]deck.Rank {
	var hands [4][]deck.Rank
	for i, p := range ms.Players {
		hands[i] = p.Hand.Values()
	}
	return hands
}

// CardView is one card as seen by a particular observer. Unresolved cards
// in other players' hands are hidden.
type CardView struct {
	Suit         string `json:"suit"`
	Hidden       bool   `json:"hidden"`
	Entangled    bool   `json:"entangled"`
	Collapsed    bool   `json:"collapsed"`
	Value        string `json:"value,omitempty"`
	MainValue    string `json:"main_value,omitempty"`
	PartnerValue string `json:"partner_value,omitempty"`
}

// BetView is the public betting state
type BetView struct {
	Amount         int    `json:"amount"`
	BettingTeam    string `json:"betting_team"`
	Type           string `json:"type"`
	IsRaise        bool   `json:"is_raise"`
	PreviousAmount int    `json:"previous_amount"`
}

// Snapshot is a redacted view of the match for one observer. Observer -1
// sees everything.
type Snapshot struct {
	Observer    int               `json:"observer"`
	Mode        string            `json:"mode"`
	HandNumber  int               `json:"hand_number"`
	Round       string            `json:"round"`
	Phase       string            `json:"phase"`
	ManoIndex   int               `json:"mano_index"`
	ActiveIndex int               `json:"active_index"`
	Scores      [2]int            `json:"scores"`
	TargetScore int               `json:"target_score"`
	Hands       [4][]CardView     `json:"hands"`
	Bet         *BetView          `json:"bet,omitempty"`
	ParesDecls  map[int]string    `json:"pares_declarations,omitempty"`
	JuegoDecls  map[int]string    `json:"juego_declarations,omitempty"`
	Finished    bool              `json:"finished"`
	Winner      string            `json:"winner,omitempty"`
}

// snapshotCard redacts a card for an observer. A collapsed card is public:
// its measurement has happened and every view must agree on it. Fixed cards
// in other hands stay hidden until the hand-end reveal.
func snapshotCard(c *deck.Card, own, reveal bool) CardView {
	v := CardView{
		Suit:      c.Suit.String(),
		Entangled: c.Entangled,
		Collapsed: c.Collapsed,
	}
	switch {
	case c.Collapsed || ((own || reveal) && c.Resolved()):
		v.Value = c.Value().String()
	case own || reveal:
		v.MainValue = c.MainValue.String()
		v.PartnerValue = c.PartnerValue.String()
	default:
		v.Hidden = true
	}
	return v
}

func declViews(decls map[int]Declaration) map[int]string {
	if len(decls) == 0 {
		return nil
	}
	out := make(map[int]string, len(decls))
	for seat, d := range decls {
		out[seat] = d.String()
	}
	return out
}
