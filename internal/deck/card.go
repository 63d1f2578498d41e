package deck

import (
	"fmt"
	rand "math/rand/v2"
)

// Suit represents a card suit
type Suit int

const (
	Psi Suit = iota
	Phi
	Delta
	Theta
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Psi:
		return "ψ"
	case Phi:
		return "φ"
	case Delta:
		return "δ"
	case Theta:
		return "θ"
	default:
		return "?"
	}
}

// Rank represents a card rank. The deck has no 8s, 9s or 10s.
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Jack
	Queen
	King
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Two:
		return "2"
	case Three:
		return "3"
	case Four:
		return "4"
	case Five:
		return "5"
	case Six:
		return "6"
	case Seven:
		return "7"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return "?"
	}
}

// Card represents a dealt card. An entangled card holds two candidate
// ranks (MainValue and PartnerValue) until it collapses to one of them;
// a non-entangled card's value is fixed at deal time.
type Card struct {
	Suit         Suit
	MainValue    Rank
	PartnerValue Rank
	Entangled    bool
	Collapsed    bool
	FinalValue   Rank
}

// NewCard creates a fixed-value card
func NewCard(suit Suit, rank Rank) *Card {
	return &Card{Suit: suit, MainValue: rank, PartnerValue: rank, FinalValue: rank}
}

// NewEntangledCard creates a card that may collapse to either main or partner
func NewEntangledCard(suit Suit, main, partner Rank) *Card {
	return &Card{Suit: suit, MainValue: main, PartnerValue: partner, Entangled: true}
}

// Resolved returns true once the card has a single definite rank
func (c *Card) Resolved() bool {
	return !c.Entangled || c.Collapsed
}

// Value returns the card's definite rank. For an unresolved entangled card
// it returns MainValue; callers deciding outcomes must check Resolved first.
func (c *Card) Value() Rank {
	if c.Resolved() {
		if c.Entangled {
			return c.FinalValue
		}
		return c.MainValue
	}
	return c.MainValue
}

// PossibleValues returns every rank the card can still take
func (c *Card) PossibleValues() []Rank {
	if c.Resolved() {
		return []Rank{c.Value()}
	}
	return []Rank{c.MainValue, c.PartnerValue}
}

// Collapse resolves an entangled card with a single uniform draw between its
// two candidate ranks. It is idempotent: once collapsed the stored value is
// returned and the randomness source is never consulted again. Collapsing a
// non-entangled card is a no-op returning its fixed value.
func (c *Card) Collapse(rng *rand.Rand) Rank {
	if c.Resolved() {
		return c.Value()
	}
	if rng.IntN(2) == 0 {
		c.FinalValue = c.MainValue
	} else {
		c.FinalValue = c.PartnerValue
	}
	c.Collapsed = true
	return c.FinalValue
}

// CollapseTo forces an entangled card to a specific candidate rank. Used when
// a paired card elsewhere has already collapsed and this card must take the
// complementary value deterministically. Idempotent; the stored value wins if
// the card already collapsed.
func (c *Card) CollapseTo(v Rank) Rank {
	if c.Resolved() {
		return c.Value()
	}
	if v != c.MainValue && v != c.PartnerValue {
		// Not a candidate rank; leave the card for a normal draw.
		return c.MainValue
	}
	c.FinalValue = v
	c.Collapsed = true
	return c.FinalValue
}

// Opposite returns the other rank of the card's entangled pair
func (c *Card) Opposite(v Rank) Rank {
	if v == c.MainValue {
		return c.PartnerValue
	}
	return c.MainValue
}

// SharesPair reports whether two cards are entangled over the same rank pair
func (c *Card) SharesPair(o *Card) bool {
	if !c.Entangled || !o.Entangled {
		return false
	}
	return (c.MainValue == o.MainValue && c.PartnerValue == o.PartnerValue) ||
		(c.MainValue == o.PartnerValue && c.PartnerValue == o.MainValue)
}

// String returns the string representation of a card (e.g., "Aψ" or "A|Kψ")
func (c *Card) String() string {
	if !c.Resolved() {
		return fmt.Sprintf("%s|%s%s", c.MainValue, c.PartnerValue, c.Suit)
	}
	return fmt.Sprintf("%s%s", c.Value(), c.Suit)
}
