package server

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// MatchService owns the tables and routes client requests to them
type MatchService struct {
	mu      sync.RWMutex
	logger  *log.Logger
	tables  map[string]*Table
	players map[string]bool
	counter int
}

// NewMatchService creates the service and its configured tables
func NewMatchService(cfg *ServerConfig, logger *log.Logger, clock quartz.Clock) (*MatchService, error) {
	s := &MatchService{
		logger:  logger.WithPrefix("service"),
		tables:  make(map[string]*Table),
		players: make(map[string]bool),
	}

	var recorder *Recorder
	if cfg.History != nil && cfg.History.Enabled {
		var err error
		recorder, err = NewRecorder(cfg.History.Dir, logger)
		if err != nil {
			return nil, err
		}
	}

	for _, tc := range cfg.Tables {
		s.tables[tc.Name] = NewTable(tc, logger, clock, recorder)
	}
	return s, nil
}

// Auth registers a player name and returns a unique player ID
func (s *MatchService) Auth(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("player name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := name
	for s.players[id] {
		s.counter++
		id = fmt.Sprintf("%s-%d", name, s.counter)
	}
	s.players[id] = true
	return id, nil
}

// Release frees a player ID when its connection drops
func (s *MatchService) Release(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, playerID)
}

// Table looks up a table by ID
func (s *MatchService) Table(id string) (*Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", id)
	}
	return t, nil
}

// ListTables returns the lobby view of every table
func (s *MatchService) ListTables() []TableInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]TableInfo, 0, len(s.tables))
	for _, t := range s.tables {
		infos = append(infos, t.Info())
	}
	return infos
}

// Close stops every table
func (s *MatchService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tables {
		t.Close()
	}
}
