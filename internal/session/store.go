package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoActiveSession is returned by AppendQuery when no session has
// been created or loaded. This is caller misuse, not a transient state.
var ErrNoActiveSession = errors.New("no active session")

// ErrSessionNotFound is returned by Load when the session file is
// absent or cannot be parsed.
var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions as one JSON document per session under dir.
// A Store holds at most one active session: the one Create built or
// Load read most recently.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	current *Session
}

// NewStore creates a session store rooted at dir, creating the
// directory if needed.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger.With("component", "sessions"),
	}, nil
}

// Create starts a new session seeded with one empty query record for
// initialQuery, persists it, and makes it the active session.
func (s *Store) Create(initialQuery string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	sess := &Session{
		SessionID:    uuid.NewString(),
		CreatedAt:    now,
		LastUpdated:  now,
		InitialQuery: initialQuery,
		Queries: []Query{{
			QueryID:   uuid.NewString(),
			Timestamp: now,
			Query:     initialQuery,
			Context:   []Turn{},
			UsedTools: []string{},
		}},
		Metadata: Metadata{TotalQueries: 1, Status: StatusActive},
	}

	if err := s.save(sess); err != nil {
		return "", err
	}

	s.current = sess
	s.logger.Info("session created", "session_id", sess.SessionID)
	return sess.SessionID, nil
}

// AppendQuery adds a completed query record to the active session and
// persists the whole document. Returns ErrNoActiveSession when nothing
// is active.
func (s *Store) AppendQuery(query string, context []Turn, usedTools []string, finalAnswer *string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return "", ErrNoActiveSession
	}

	if context == nil {
		context = []Turn{}
	}
	if usedTools == nil {
		usedTools = []string{}
	}

	now := time.Now().UTC()
	q := Query{
		QueryID:     uuid.NewString(),
		Timestamp:   now,
		Query:       query,
		Context:     context,
		UsedTools:   usedTools,
		FinalAnswer: finalAnswer,
	}

	s.current.Queries = append(s.current.Queries, q)
	s.current.LastUpdated = now
	s.current.Metadata.TotalQueries++

	if err := s.save(s.current); err != nil {
		// Roll back the in-memory append so a retry doesn't duplicate it.
		s.current.Queries = s.current.Queries[:len(s.current.Queries)-1]
		s.current.Metadata.TotalQueries--
		return "", err
	}

	s.logger.Debug("query appended",
		"session_id", s.current.SessionID,
		"query_id", q.QueryID,
		"total_queries", s.current.Metadata.TotalQueries,
	)
	return q.QueryID, nil
}

// Load reads the session document for id and makes it active.
func (s *Store) Load(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.read(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.current = sess
	s.logger.Info("session loaded", "session_id", id, "queries", len(sess.Queries))
	return sess, nil
}

// Current returns the active session, or nil when none is active.
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// List enumerates all persisted sessions, most recently updated first.
// Unreadable session files are skipped with a warning; one corrupt
// document never hides the rest.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}

		sess, err := s.read(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable session file", "file", name, "error", err)
			continue
		}

		summaries = append(summaries, Summary{
			SessionID:    sess.SessionID,
			CreatedAt:    sess.CreatedAt,
			LastUpdated:  sess.LastUpdated,
			InitialQuery: sess.InitialQuery,
			TotalQueries: sess.Metadata.TotalQueries,
			Status:       sess.Metadata.Status,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastUpdated.After(summaries[j].LastUpdated)
	})
	return summaries, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) read(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// save writes the whole session document atomically: marshal, write to
// a temp file in the same directory, rename over the target. Readers
// see either the old or the new document, never a torn one.
func (s *Store) save(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+sess.SessionID+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(sess.SessionID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename session file: %w", err)
	}
	return nil
}
