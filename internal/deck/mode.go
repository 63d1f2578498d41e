package deck

// Mode selects the value-equivalence regime for a match. It is fixed before
// the first deal and never changes mid-match.
type Mode int

const (
	// ModeNormal entangles aces with kings.
	ModeNormal Mode = iota
	// ModeOchoReyes plays with "eight kings": 3s count as kings and 2s as
	// aces, and entanglement pairs A with 2 and K with 3.
	ModeOchoReyes
)

// String returns the string representation of a mode
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeOchoReyes:
		return "8-reyes"
	default:
		return "?"
	}
}

// ParseMode maps the lobby's game mode selector values onto a Mode
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "4", "normal":
		return ModeNormal, true
	case "8", "8-reyes", "ocho-reyes":
		return ModeOchoReyes, true
	}
	return ModeNormal, false
}

// PartnerOf returns the entangled partner for rank r under the mode, and
// whether r is entangled at all.
func (m Mode) PartnerOf(r Rank) (Rank, bool) {
	if m == ModeOchoReyes {
		switch r {
		case Ace:
			return Two, true
		case Two:
			return Ace, true
		case King:
			return Three, true
		case Three:
			return King, true
		}
		return 0, false
	}
	switch r {
	case Ace:
		return King, true
	case King:
		return Ace, true
	}
	return 0, false
}
