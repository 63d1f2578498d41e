package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/aldelg/quantummus/internal/deck"
	"github.com/aldelg/quantummus/internal/game"
	"github.com/aldelg/quantummus/internal/randutil"
)

var CLI struct {
	Matches  int    `default:"100" help:"Number of matches to simulate"`
	Mode     string `default:"8-reyes" help:"Game mode: normal or 8-reyes"`
	Seed     int64  `default:"0" help:"RNG seed (0 for random)"`
	Parallel int    `default:"0" help:"Worker count (0 for NumCPU)"`
	Verbose  bool   `short:"v" help:"Verbose logging"`
}

// matchResult summarizes one simulated match
type matchResult struct {
	Winner    game.TeamID
	Scores    [2]int
	Hands     int
	Ordago    bool
	Penalties int
	Collapses int
	Duration  time.Duration
}

// tally counts events during one match
type tally struct {
	logger    *log.Logger
	penalties int
	collapses int
	hands     int
	ordago    bool
}

func (t *tally) OnEvent(event game.GameEvent) {
	t.logger.Debug(game.FormatEvent(event))
	switch ev := event.(type) {
	case game.PenaltyEvent:
		t.penalties++
	case game.CardCollapsedEvent:
		t.collapses++
	case game.HandEndEvent:
		t.hands = ev.HandNumber
	case game.MatchEndEvent:
		t.ordago = ev.Ordago
	}
}

// runMatch plays one full match with random agents at every seat, feeding
// the engine synchronously instead of waiting out the AI delay timers.
func runMatch(mode deck.Mode, seed int64, logger *log.Logger) (matchResult, error) {
	start := time.Now()

	engine := game.NewEngine(game.Config{
		Mode:   mode,
		Seed:   seed,
		Logger: logger,
	}, [4]string{"sim-0", "sim-1", "sim-2", "sim-3"})

	counts := &tally{logger: logger}
	engine.Bus().Subscribe(counts)

	agent := game.NewRandomAgent(randutil.New(seed ^ 0x5a5a5a5a))
	engine.StartMatch()

	for i := 0; i < 2_000_000; i++ {
		if engine.Finished() {
			break
		}
		seat, acted := stepOnce(engine, agent)
		if !acted {
			return matchResult{}, fmt.Errorf("seed %d: no actionable seat (last seat %d)", seed, seat)
		}
	}
	if !engine.Finished() {
		return matchResult{}, fmt.Errorf("seed %d: match did not terminate", seed)
	}

	winner, _ := engine.Winner()
	return matchResult{
		Winner:    winner,
		Scores:    engine.Scores(),
		Hands:     counts.hands,
		Ordago:    counts.ordago,
		Penalties: counts.penalties,
		Collapses: counts.collapses,
		Duration:  time.Since(start),
	}, nil
}

// stepOnce finds a seat with pending actions and plays the agent's choice,
// falling back to the phase default if the engine rejects it.
func stepOnce(engine *game.Engine, agent game.Agent) (int, bool) {
	for seat := 0; seat < 4; seat++ {
		valid := engine.ValidActions(seat)
		if len(valid) == 0 {
			continue
		}
		snap := engine.Snapshot(seat)
		round, ok := roundFromName(snap.Round)
		if !ok {
			return seat, false
		}

		decision := agent.Decide(snap, nil, valid)
		payload := game.Payload{
			Amount:      decision.Amount,
			Declaration: decision.Declaration,
			Discards:    decision.Discards,
		}
		if err := engine.SubmitAction(seat, round, decision.Action, payload); err != nil {
			def := game.DefaultDecision(snap.Phase, snap.Round)
			payload = game.Payload{Declaration: def.Declaration, Discards: def.Discards}
			if err := engine.SubmitAction(seat, round, def.Action, payload); err != nil {
				return seat, false
			}
		}
		return seat, true
	}
	return -1, false
}

func roundFromName(name string) (game.Round, bool) {
	for r := game.Mus; r <= game.Punto; r++ {
		if r.String() == name {
			return r, true
		}
	}
	return game.Mus, false
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(22)
	valueStyle  = lipgloss.NewStyle().Bold(true)
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 2)
)

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func main() {
	kong.Parse(&CLI)

	mode, ok := deck.ParseMode(CLI.Mode)
	if !ok {
		fmt.Printf("Unknown mode %q\n", CLI.Mode)
		os.Exit(1)
	}

	seed := CLI.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	parallel := CLI.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	logger := log.NewWithOptions(io.Discard, log.Options{})
	if CLI.Verbose {
		logger = log.New(os.Stderr)
		logger.SetLevel(log.DebugLevel)
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Simulating %d %s matches (seed %d)", CLI.Matches, mode, seed)))

	var (
		mu      sync.Mutex
		results []matchResult
	)
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(parallel)
	for i := 0; i < CLI.Matches; i++ {
		matchSeed := seed + int64(i)
		g.Go(func() error {
			result, err := runMatch(mode, matchSeed, logger)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("Simulation failed: %v\n", err)
		os.Exit(1)
	}

	var (
		wins      [2]int
		hands     int
		ordagos   int
		penalties int
		collapses int
	)
	for _, r := range results {
		wins[r.Winner]++
		hands += r.Hands
		penalties += r.Penalties
		collapses += r.Collapses
		if r.Ordago {
			ordagos++
		}
	}
	elapsed := time.Since(start)
	n := len(results)

	summary := lipgloss.JoinVertical(lipgloss.Left,
		row("Matches", fmt.Sprintf("%d", n)),
		row("Team 1 wins", fmt.Sprintf("%d (%.1f%%)", wins[0], pct(wins[0], n))),
		row("Team 2 wins", fmt.Sprintf("%d (%.1f%%)", wins[1], pct(wins[1], n))),
		row("Órdago endings", fmt.Sprintf("%d (%.1f%%)", ordagos, pct(ordagos, n))),
		row("Hands per match", fmt.Sprintf("%.1f", avg(hands, n))),
		row("Penalties per match", fmt.Sprintf("%.2f", avg(penalties, n))),
		row("Collapses per match", fmt.Sprintf("%.1f", avg(collapses, n))),
		row("Elapsed", elapsed.Round(time.Millisecond).String()),
	)
	fmt.Println(borderStyle.Render(summary))
}

func pct(x, n int) float64 {
	if n == 0 {
		return 0
	}
	return 100 * float64(x) / float64(n)
}

func avg(x, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(x) / float64(n)
}
