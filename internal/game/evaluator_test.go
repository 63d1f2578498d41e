package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aldelg/quantummus/internal/deck"
)

func ranks(rs ...deck.Rank) []deck.Rank {
	return rs
}

func TestRankStrengthOrdering(t *testing.T) {
	// 8-reyes: the 3 plays as a king, the 2 as an ace.
	assert.Greater(t, RankStrength(deck.Three, deck.ModeOchoReyes), RankStrength(deck.Queen, deck.ModeOchoReyes))
	assert.Greater(t, RankStrength(deck.Ace, deck.ModeOchoReyes), RankStrength(deck.Two, deck.ModeOchoReyes))
	assert.Equal(t, 10, RankStrength(deck.King, deck.ModeOchoReyes))

	// Normal: 3 sits between 4 and 2, ace is lowest.
	assert.Less(t, RankStrength(deck.Three, deck.ModeNormal), RankStrength(deck.Four, deck.ModeNormal))
	assert.Less(t, RankStrength(deck.Ace, deck.ModeNormal), RankStrength(deck.Two, deck.ModeNormal))
}

func TestGrandeWinner(t *testing.T) {
	hands := [4][]deck.Rank{
		ranks(deck.Queen, deck.Seven, deck.Five, deck.Four),
		ranks(deck.King, deck.Two, deck.Ace, deck.Ace),
		ranks(deck.Jack, deck.Jack, deck.Six, deck.Five),
		ranks(deck.Seven, deck.Six, deck.Five, deck.Four),
	}
	assert.Equal(t, Team2, GrandeWinner(hands, deck.ModeNormal, 0))
}

func TestGrandeTieGoesToManoSide(t *testing.T) {
	hands := [4][]deck.Rank{
		ranks(deck.King, deck.Four, deck.Five, deck.Six),
		ranks(deck.King, deck.Seven, deck.Seven, deck.Six),
		ranks(deck.Two, deck.Four, deck.Five, deck.Six),
		ranks(deck.Two, deck.Four, deck.Five, deck.Six),
	}
	// Seats 0 and 1 both top out at a king. From mano 0 the walk is
	// 0,3,2,1 so seat 0 keeps the tie.
	assert.Equal(t, Team1, GrandeWinner(hands, deck.ModeNormal, 0))
	// From mano 1 the walk is 1,0,3,2 and seat 1 keeps it instead.
	assert.Equal(t, Team2, GrandeWinner(hands, deck.ModeNormal, 1))
}

func TestChicaWinner(t *testing.T) {
	hands := [4][]deck.Rank{
		ranks(deck.Two, deck.Seven, deck.Five, deck.Four),
		ranks(deck.King, deck.Queen, deck.Jack, deck.Seven),
		ranks(deck.Ace, deck.King, deck.Queen, deck.Jack),
		ranks(deck.Four, deck.Five, deck.Six, deck.Seven),
	}
	// Normal mode: the ace is the lowest card.
	assert.Equal(t, Team1, ChicaWinner(hands, deck.ModeNormal, 0))
}

func TestParesOf(t *testing.T) {
	tests := []struct {
		name   string
		values []deck.Rank
		mode   deck.Mode
		want   ParesType
	}{
		{"no pares", ranks(deck.King, deck.Queen, deck.Seven, deck.Four), deck.ModeNormal, ParesNone},
		{"pair of aces", ranks(deck.Ace, deck.Ace, deck.Five, deck.Four), deck.ModeNormal, ParesPair},
		{"ace and two pair up in 8-reyes", ranks(deck.Ace, deck.Two, deck.Five, deck.Four), deck.ModeOchoReyes, ParesPair},
		{"ace and two are no pair in normal", ranks(deck.Ace, deck.Two, deck.Five, deck.Four), deck.ModeNormal, ParesNone},
		{"three and king pair up in 8-reyes", ranks(deck.Three, deck.King, deck.Five, deck.Four), deck.ModeOchoReyes, ParesPair},
		{"double pair", ranks(deck.King, deck.King, deck.Four, deck.Four), deck.ModeNormal, ParesDouble},
		{"triplet", ranks(deck.Seven, deck.Seven, deck.Seven, deck.Four), deck.ModeNormal, ParesTriplet},
		{"quads read as triplet", ranks(deck.Five, deck.Five, deck.Five, deck.Five), deck.ModeNormal, ParesTriplet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParesOf(tt.values, tt.mode)
			assert.Equal(t, tt.want, got.Type)
		})
	}
}

func TestParesPrecedence(t *testing.T) {
	triplet := ParesOf(ranks(deck.Four, deck.Four, deck.Four, deck.King), deck.ModeNormal)
	double := ParesOf(ranks(deck.King, deck.King, deck.Seven, deck.Seven), deck.ModeNormal)
	pair := ParesOf(ranks(deck.King, deck.King, deck.Seven, deck.Four), deck.ModeNormal)

	// A low triplet still beats the best double pair.
	assert.Greater(t, paresScore(triplet, deck.ModeNormal), paresScore(double, deck.ModeNormal))
	assert.Greater(t, paresScore(double, deck.ModeNormal), paresScore(pair, deck.ModeNormal))
}

func TestJuegoOf(t *testing.T) {
	// Face cards count ten, aces one.
	low := JuegoOf(ranks(deck.Ace, deck.Ace, deck.Five, deck.Four), deck.ModeNormal)
	assert.Equal(t, 11, low.Sum)
	assert.False(t, low.HasJuego)

	forty := JuegoOf(ranks(deck.King, deck.King, deck.Jack, deck.Queen), deck.ModeNormal)
	assert.Equal(t, 40, forty.Sum)
	assert.True(t, forty.HasJuego)
}

func TestJuegoThreeValue(t *testing.T) {
	// The 3 is worth ten in 8-reyes, three otherwise.
	assert.Equal(t, 10, PointValue(deck.Three, deck.ModeOchoReyes))
	assert.Equal(t, 3, PointValue(deck.Three, deck.ModeNormal))
	assert.Equal(t, 1, PointValue(deck.Two, deck.ModeNormal))
}

func TestJuegoRanking(t *testing.T) {
	// 31 beats 32 beats 40 beats 37 down to 33.
	sums := []int{31, 32, 40, 37, 36, 35, 34, 33}
	for i := 0; i < len(sums)-1; i++ {
		assert.Greater(t, juegoRank(sums[i]), juegoRank(sums[i+1]), "sum %d should outrank %d", sums[i], sums[i+1])
	}
	assert.Zero(t, juegoRank(30))
}

func TestJuegoWinner(t *testing.T) {
	hands := [4][]deck.Rank{
		ranks(deck.King, deck.King, deck.Jack, deck.Queen), // 40
		ranks(deck.King, deck.King, deck.Jack, deck.Ace),   // 31
		ranks(deck.Seven, deck.Six, deck.Five, deck.Four),  // no juego
		ranks(deck.King, deck.Queen, deck.Jack, deck.Two),  // 31
	}
	// 31 beats 40; seat 3 comes before seat 1 walking from mano 0.
	assert.Equal(t, Team2, JuegoWinner(hands, deck.ModeNormal, 0))
}

func TestPuntoWinner(t *testing.T) {
	hands := [4][]deck.Rank{
		ranks(deck.Seven, deck.Seven, deck.Six, deck.Five),  // 25
		ranks(deck.King, deck.Seven, deck.Six, deck.Seven),  // 30
		ranks(deck.Ace, deck.Ace, deck.Two, deck.Two),       // 4
		ranks(deck.Seven, deck.Six, deck.Five, deck.Four),   // 22
	}
	assert.Equal(t, Team2, PuntoWinner(hands, deck.ModeNormal, 0))
}

func TestRoundWinnerDispatch(t *testing.T) {
	hands := [4][]deck.Rank{
		ranks(deck.King, deck.King, deck.Four, deck.Five),
		ranks(deck.Ace, deck.Two, deck.Six, deck.Seven),
		ranks(deck.Queen, deck.Jack, deck.Four, deck.Six),
		ranks(deck.Seven, deck.Six, deck.Five, deck.Four),
	}
	assert.Equal(t, GrandeWinner(hands, deck.ModeNormal, 0), RoundWinner(Grande, hands, deck.ModeNormal, 0))
	assert.Equal(t, ChicaWinner(hands, deck.ModeNormal, 0), RoundWinner(Chica, hands, deck.ModeNormal, 0))
	assert.Equal(t, ParesWinner(hands, deck.ModeNormal, 0), RoundWinner(Pares, hands, deck.ModeNormal, 0))
	assert.Equal(t, JuegoWinner(hands, deck.ModeNormal, 0), RoundWinner(Juego, hands, deck.ModeNormal, 0))
	assert.Equal(t, PuntoWinner(hands, deck.ModeNormal, 0), RoundWinner(Punto, hands, deck.ModeNormal, 0))
}
