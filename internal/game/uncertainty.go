package game

import "github.com/aldelg/quantummus/internal/deck"

// Outcome is the result of testing a predicate over every way a hand's
// uncollapsed cards could still collapse. When Certain is true the predicate
// has the same Value under all assignments and no collapse is needed to
// answer it; otherwise the player must declare manually.
type Outcome struct {
	Certain bool
	Value   bool
}

// ResolvePares reports whether the hand's pair structure is already decided
// regardless of how its entangled cards collapse.
func ResolvePares(hand deck.Hand, mode deck.Mode) Outcome {
	return resolve(hand, func(values []deck.Rank) bool {
		return ParesOf(values, mode).HasPares()
	})
}

// ResolveJuego reports whether the hand reaching 31 points is already
// decided. Because every card contributes independently to the sum, the
// min/max possible sums answer certainty without enumerating assignments.
func ResolveJuego(hand deck.Hand, mode deck.Mode) Outcome {
	minSum, maxSum := 0, 0
	for _, c := range hand {
		if c.Resolved() {
			p := PointValue(c.Value(), mode)
			minSum += p
			maxSum += p
			continue
		}
		a := PointValue(c.MainValue, mode)
		b := PointValue(c.PartnerValue, mode)
		minSum += min(a, b)
		maxSum += max(a, b)
	}
	switch {
	case minSum >= 31:
		return Outcome{Certain: true, Value: true}
	case maxSum < 31:
		return Outcome{Certain: true, Value: false}
	}
	return Outcome{}
}

// resolve evaluates pred for all 2^k assignments of the hand's uncollapsed
// cards, exiting early once both outcomes have been seen.
func resolve(hand deck.Hand, pred func([]deck.Rank) bool) Outcome {
	var open []*deck.Card
	values := make([]deck.Rank, len(hand))
	openIdx := make([]int, 0, len(hand))
	for i, c := range hand {
		if c.Resolved() {
			values[i] = c.Value()
		} else {
			open = append(open, c)
			openIdx = append(openIdx, i)
		}
	}

	var seenTrue, seenFalse bool
	total := 1 << len(open)
	for mask := 0; mask < total; mask++ {
		for j, c := range open {
			if mask>>j&1 == 0 {
				values[openIdx[j]] = c.MainValue
			} else {
				values[openIdx[j]] = c.PartnerValue
			}
		}
		if pred(values) {
			seenTrue = true
		} else {
			seenFalse = true
		}
		if seenTrue && seenFalse {
			return Outcome{}
		}
	}
	return Outcome{Certain: true, Value: seenTrue}
}
