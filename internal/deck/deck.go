package deck

import (
	rand "math/rand/v2"
	"strings"
)

// HandSize is the number of cards held by each player.
const HandSize = 4

// Hand is one player's ordered cards.
type Hand []*Card

// Resolved returns true when every card in the hand has a definite rank
func (h Hand) Resolved() bool {
	for _, c := range h {
		if !c.Resolved() {
			return false
		}
	}
	return true
}

// Uncollapsed returns the entangled cards that have not collapsed yet
func (h Hand) Uncollapsed() []*Card {
	var out []*Card
	for _, c := range h {
		if !c.Resolved() {
			out = append(out, c)
		}
	}
	return out
}

// Values returns the definite rank of every card in hand order. Only
// meaningful once the hand is Resolved.
func (h Hand) Values() []Rank {
	out := make([]Rank, len(h))
	for i, c := range h {
		out[i] = c.Value()
	}
	return out
}

// String returns the string representation of a hand (e.g., "Aψ 4φ Kδ 7θ")
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Deck represents the 40-card Spanish deck with entanglement applied at
// deal time according to the match mode.
type Deck struct {
	mode     Mode
	cards    []Card
	discards []Card
	rng      *rand.Rand
}

// New creates a full unshuffled deck for the given mode.
func New(mode Mode, rng *rand.Rand) *Deck {
	d := &Deck{
		mode:  mode,
		cards: make([]Card, 0, 40),
		rng:   rng,
	}
	d.fill()
	return d
}

func (d *Deck) fill() {
	for suit := Psi; suit <= Theta; suit++ {
		for rank := Ace; rank <= King; rank++ {
			d.cards = append(d.cards, Card{Suit: suit, MainValue: rank, PartnerValue: rank, FinalValue: rank})
		}
	}
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Discard returns cards to the discard pile. Uncollapsed cards go back as
// their dealt rank; the pile is shuffled into the deck when it runs dry.
func (d *Deck) Discard(cards ...*Card) {
	for _, c := range cards {
		d.discards = append(d.discards, Card{Suit: c.Suit, MainValue: c.MainValue, PartnerValue: c.MainValue, FinalValue: c.MainValue})
	}
}

// Deal removes the top card, marks it entangled if its rank pairs under the
// deck's mode, and returns it.
func (d *Deck) Deal() (*Card, bool) {
	if len(d.cards) == 0 && len(d.discards) > 0 {
		d.cards = append(d.cards, d.discards...)
		d.discards = nil
		d.Shuffle()
	}
	if len(d.cards) == 0 {
		return nil, false
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	if partner, ok := d.mode.PartnerOf(c.MainValue); ok {
		return NewEntangledCard(c.Suit, c.MainValue, partner), true
	}
	return NewCard(c.Suit, c.MainValue), true
}

// DealHand deals a full 4-card hand
func (d *Deck) DealHand() (Hand, bool) {
	hand := make(Hand, 0, HandSize)
	for i := 0; i < HandSize; i++ {
		c, ok := d.Deal()
		if !ok {
			return nil, false
		}
		hand = append(hand, c)
	}
	return hand, true
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards)
}

// Reset restores the full 40 cards and shuffles
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	d.discards = nil
	d.fill()
	d.Shuffle()
}
