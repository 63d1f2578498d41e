package game

import (
	"sort"

	"github.com/aldelg/quantummus/internal/deck"
)

// Card orderings for Grande/Chica, best first. In 8-reyes mode the 3 plays
// as a king and the 2 as an ace.
var (
	orderOchoReyes = []deck.Rank{deck.King, deck.Three, deck.Queen, deck.Jack, deck.Seven, deck.Six, deck.Five, deck.Four, deck.Ace, deck.Two}
	orderNormal    = []deck.Rank{deck.King, deck.Queen, deck.Jack, deck.Seven, deck.Six, deck.Five, deck.Four, deck.Three, deck.Two, deck.Ace}
)

func cardOrder(mode deck.Mode) []deck.Rank {
	if mode == deck.ModeOchoReyes {
		return orderOchoReyes
	}
	return orderNormal
}

// RankStrength returns a comparable strength for a rank under the mode's
// ordering. Higher is better for Grande, lower for Chica.
func RankStrength(r deck.Rank, mode deck.Mode) int {
	order := cardOrder(mode)
	for i, v := range order {
		if v == r {
			return len(order) - i
		}
	}
	return 0
}

// HighCard returns the strength of the best card in the hand
func HighCard(values []deck.Rank, mode deck.Mode) int {
	best := 0
	for _, v := range values {
		if s := RankStrength(v, mode); s > best {
			best = s
		}
	}
	return best
}

// LowCard returns the strength of the weakest card in the hand
func LowCard(values []deck.Rank, mode deck.Mode) int {
	worst := len(cardOrder(mode)) + 1
	for _, v := range values {
		if s := RankStrength(v, mode); s < worst {
			worst = s
		}
	}
	return worst
}

// ParesType classifies a hand's pair structure
type ParesType int

const (
	ParesNone ParesType = iota
	ParesPair
	ParesDouble
	ParesTriplet
)

func (p ParesType) String() string {
	return [...]string{"none", "pair", "double_pair", "triplet"}[p]
}

// ParesResult describes the pair structure of a hand. Value carries the
// normalized rank used to break ties between equal types.
type ParesResult struct {
	Type  ParesType
	Value deck.Rank
}

// HasPares returns true when the hand holds at least a pair
func (p ParesResult) HasPares() bool {
	return p.Type != ParesNone
}

// normalizePares maps ranks into their counting bucket. 8-reyes counts
// A and 2 together and K and 3 together; normal mode requires exact matches.
func normalizePares(r deck.Rank, mode deck.Mode) deck.Rank {
	if mode != deck.ModeOchoReyes {
		return r
	}
	switch r {
	case deck.Two:
		return deck.Ace
	case deck.Three:
		return deck.King
	}
	return r
}

// ParesOf computes the pair structure of a resolved hand.
// Triplet beats double pair beats single pair.
func ParesOf(values []deck.Rank, mode deck.Mode) ParesResult {
	counts := map[deck.Rank]int{}
	for _, v := range values {
		counts[normalizePares(v, mode)]++
	}

	var pairs, triplets []deck.Rank
	for rank, n := range counts {
		switch {
		case n >= 3:
			// Four of a kind still reads as a triplet.
			triplets = append(triplets, rank)
		case n == 2:
			pairs = append(pairs, rank)
		}
	}
	byStrength := func(ranks []deck.Rank) {
		sort.Slice(ranks, func(i, j int) bool {
			return RankStrength(ranks[i], mode) > RankStrength(ranks[j], mode)
		})
	}
	byStrength(pairs)
	byStrength(triplets)

	switch {
	case len(triplets) > 0:
		return ParesResult{Type: ParesTriplet, Value: triplets[0]}
	case len(pairs) >= 2:
		return ParesResult{Type: ParesDouble, Value: pairs[0]}
	case len(pairs) == 1:
		return ParesResult{Type: ParesPair, Value: pairs[0]}
	}
	return ParesResult{Type: ParesNone}
}

// PointValue returns the Juego point value of a rank
func PointValue(r deck.Rank, mode deck.Mode) int {
	switch r {
	case deck.Ace, deck.Two:
		return 1
	case deck.Three:
		if mode == deck.ModeOchoReyes {
			return 10
		}
		return 3
	case deck.Jack, deck.Queen, deck.King:
		return 10
	default:
		return int(r)
	}
}

// JuegoResult describes a hand's point sum. Rank orders juego hands best
// first (31 beats 32 beats 40 beats 37..33); it is zero when the hand has
// no juego.
type JuegoResult struct {
	Sum      int
	HasJuego bool
	Rank     int
}

// JuegoOf computes the point sum of a resolved hand
func JuegoOf(values []deck.Rank, mode deck.Mode) JuegoResult {
	sum := 0
	for _, v := range values {
		sum += PointValue(v, mode)
	}
	return JuegoResult{Sum: sum, HasJuego: sum >= 31, Rank: juegoRank(sum)}
}

func juegoRank(sum int) int {
	switch sum {
	case 31:
		return 8
	case 32:
		return 7
	case 40:
		return 6
	case 37:
		return 5
	case 36:
		return 4
	case 35:
		return 3
	case 34:
		return 2
	case 33:
		return 1
	default:
		return 0
	}
}

// bestFromMano walks counter-clockwise from mano and returns the first seat
// achieving the best score. Ties therefore resolve in favor of the side
// closer to mano.
func bestFromMano(scores [4]int, mano int, better func(a, b int) bool) int {
	best := mano
	seat := NextPlayer(mano)
	for i := 1; i < 4; i++ {
		if better(scores[seat], scores[best]) {
			best = seat
		}
		seat = NextPlayer(seat)
	}
	return best
}

// GrandeWinner returns the team holding the best high card across all four
// hands. Ties go to the seat closest to mano.
func GrandeWinner(hands [4][]deck.Rank, mode deck.Mode, mano int) TeamID {
	var scores [4]int
	for i, h := range hands {
		scores[i] = HighCard(h, mode)
	}
	seat := bestFromMano(scores, mano, func(a, b int) bool { return a > b })
	return TeamOf(seat)
}

// ChicaWinner returns the team holding the lowest card across all four
// hands. Ties go to the seat closest to mano.
func ChicaWinner(hands [4][]deck.Rank, mode deck.Mode, mano int) TeamID {
	var scores [4]int
	for i, h := range hands {
		scores[i] = LowCard(h, mode)
	}
	seat := bestFromMano(scores, mano, func(a, b int) bool { return a < b })
	return TeamOf(seat)
}

// paresScore folds type and tie-break value into a single comparable int
func paresScore(p ParesResult, mode deck.Mode) int {
	if p.Type == ParesNone {
		return 0
	}
	return int(p.Type)*100 + RankStrength(p.Value, mode)
}

// ParesWinner returns the team with the best pair structure. Hands without
// pares never win. Ties go to the seat closest to mano.
func ParesWinner(hands [4][]deck.Rank, mode deck.Mode, mano int) TeamID {
	var scores [4]int
	for i, h := range hands {
		scores[i] = paresScore(ParesOf(h, mode), mode)
	}
	seat := bestFromMano(scores, mano, func(a, b int) bool { return a > b })
	return TeamOf(seat)
}

// JuegoWinner returns the team with the best juego. Hands without juego
// never win. Ties go to the seat closest to mano.
func JuegoWinner(hands [4][]deck.Rank, mode deck.Mode, mano int) TeamID {
	var scores [4]int
	for i, h := range hands {
		scores[i] = JuegoOf(h, mode).Rank
	}
	seat := bestFromMano(scores, mano, func(a, b int) bool { return a > b })
	return TeamOf(seat)
}

// PuntoWinner returns the team with the highest raw point sum.
// Ties go to the seat closest to mano.
func PuntoWinner(hands [4][]deck.Rank, mode deck.Mode, mano int) TeamID {
	var scores [4]int
	for i, h := range hands {
		scores[i] = JuegoOf(h, mode).Sum
	}
	seat := bestFromMano(scores, mano, func(a, b int) bool { return a > b })
	return TeamOf(seat)
}

// RoundWinner dispatches to the evaluator for a betting round
func RoundWinner(round Round, hands [4][]deck.Rank, mode deck.Mode, mano int) TeamID {
	switch round {
	case Grande:
		return GrandeWinner(hands, mode, mano)
	case Chica:
		return ChicaWinner(hands, mode, mano)
	case Pares:
		return ParesWinner(hands, mode, mano)
	case Juego:
		return JuegoWinner(hands, mode, mano)
	case Punto:
		return PuntoWinner(hands, mode, mano)
	}
	return Team1
}
