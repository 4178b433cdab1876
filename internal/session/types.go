// Package session provides durable, resumable research session records.
//
// One session is one JSON document on disk, named by its id. The write
// discipline is read-modify-write of the whole document with an atomic
// rename, so concurrent readers always see a complete document. There
// is no cross-process lock: two processes appending to the same session
// follow last-writer-wins. delv is a single-operator tool and accepts
// that; anything stronger needs a per-session advisory lock.
package session

import "time"

// StatusActive is the only session status currently produced. The
// field exists so terminal states can be added without a format change.
const StatusActive = "active"

// Turn is one entry in a query's conversation transcript.
type Turn struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Query is one user task cycle within a session. Context grows only by
// appends while the task runs and the record becomes immutable once
// FinalAnswer is set and committed.
type Query struct {
	QueryID     string    `json:"query_id"`
	Timestamp   time.Time `json:"timestamp"`
	Query       string    `json:"query"`
	Context     []Turn    `json:"context"`
	UsedTools   []string  `json:"used_tools"`
	FinalAnswer *string   `json:"final_answer"`
}

// Metadata carries session-level counters and lifecycle state.
type Metadata struct {
	TotalQueries int    `json:"total_queries"`
	Status       string `json:"status"`
}

// Session is the durable record of one research interaction. Queries
// are ordered chronologically and never reordered or deleted; a
// session always holds at least its seed query.
type Session struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	InitialQuery string    `json:"initial_query"`
	Queries      []Query   `json:"queries"`
	Metadata     Metadata  `json:"metadata"`
}

// LastQuery returns the most recent query record, or nil for an empty
// session (which the store never produces).
func (s *Session) LastQuery() *Query {
	if len(s.Queries) == 0 {
		return nil
	}
	return &s.Queries[len(s.Queries)-1]
}

// Summary is the listing view of a session.
type Summary struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	InitialQuery string    `json:"initial_query"`
	TotalQueries int       `json:"total_queries"`
	Status       string    `json:"status"`
}
