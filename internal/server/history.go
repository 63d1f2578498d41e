package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aldelg/quantummus/internal/deck"
	"github.com/aldelg/quantummus/internal/fileutil"
	"github.com/aldelg/quantummus/internal/game"
)

// MatchRecord is the persisted history of one match
type MatchRecord struct {
	MatchID     string       `json:"matchId"`
	Table       string       `json:"table"`
	Mode        string       `json:"mode"`
	TargetScore int          `json:"targetScore"`
	Players     [4]string    `json:"players"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
	Winner      string       `json:"winner"`
	Scores      [2]int       `json:"scores"`
	Ordago      bool         `json:"ordago"`
	Hands       []HandRecord `json:"hands"`
}

// HandRecord is one hand within a match record
type HandRecord struct {
	HandNumber int         `json:"handNumber"`
	ManoIndex  int         `json:"manoIndex"`
	Awards     []AwardData `json:"awards"`
	Scores     [2]int      `json:"scores"`
	Hands      [4][]string `json:"hands"`
}

// Recorder accumulates match hands into one JSON file per match, rewritten
// atomically after every hand so a reader listing the directory only ever
// sees complete records. One recorder serves every table; in-flight records
// are keyed by match ID.
type Recorder struct {
	mu      sync.Mutex
	dir     string
	logger  *log.Logger
	matches map[string]*matchEntry
}

type matchEntry struct {
	record   *MatchRecord
	manoNext int
}

// NewRecorder creates a recorder writing into dir
func NewRecorder(dir string, logger *log.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	return &Recorder{
		dir:     dir,
		logger:  logger.WithPrefix("history"),
		matches: make(map[string]*matchEntry),
	}, nil
}

// Start opens a fresh record for a match
func (r *Recorder) Start(matchID, table string, mode deck.Mode, targetScore int, players [4]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[matchID] = &matchEntry{record: &MatchRecord{
		MatchID:     matchID,
		Table:       table,
		Mode:        mode.String(),
		TargetScore: targetScore,
		Players:     players,
		StartedAt:   time.Now(),
	}}
}

// HandStart notes the mano for the hand in progress
func (r *Recorder) HandStart(matchID string, ev game.HandStartEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return
	}
	m.manoNext = ev.ManoIndex
}

// HandEnd appends a completed hand
func (r *Recorder) HandEnd(matchID string, ev game.HandEndEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return
	}
	awards := make([]AwardData, len(ev.Awards))
	for i, a := range ev.Awards {
		awards[i] = AwardData{Round: a.Round.String(), Team: a.Team.String(), Points: a.Points}
	}
	m.record.Hands = append(m.record.Hands, HandRecord{
		HandNumber: ev.HandNumber,
		ManoIndex:  m.manoNext,
		Awards:     awards,
		Scores:     ev.Scores,
		Hands:      rankStrings(ev.Hands),
	})

	// Write through after every hand so a crash mid-match still leaves the
	// hands played so far on disk.
	if err := r.flushLocked(m.record); err != nil {
		r.logger.Warn("failed to flush match record", "match", matchID, "error", err)
	}
}

func (r *Recorder) flushLocked(rec *MatchRecord) error {
	path := filepath.Join(r.dir, rec.MatchID+".json")
	return fileutil.WriteJSONAtomic(path, rec, 0o644)
}

// Finish completes the record and writes it to disk
func (r *Recorder) Finish(matchID string, ev game.MatchEndEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[matchID]
	if !ok {
		return fmt.Errorf("no record for match %s", matchID)
	}
	m.record.FinishedAt = time.Now()
	m.record.Winner = ev.Winner.String()
	m.record.Scores = ev.Scores
	m.record.Ordago = ev.Ordago

	if err := r.flushLocked(m.record); err != nil {
		return err
	}
	delete(r.matches, matchID)
	r.logger.Info("match record written", "match", matchID, "hands", len(m.record.Hands))
	return nil
}
