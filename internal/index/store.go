// Package index stores document chunks and their embedding vectors in
// SQLite and ranks them against query embeddings for retrieval.
package index

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/delv-sh/delv/internal/embeddings"
)

// Chunk is an indexed fragment of a source document.
type Chunk struct {
	ID      string
	Source  string // document title or path
	Section string // heading path within the document
	Content string
}

// Result pairs a chunk with its similarity score for a query.
type Result struct {
	Chunk
	Score float32
}

// Store manages chunk persistence.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the index database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewStoreWithDB creates a store over an existing database connection.
func NewStoreWithDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			section TEXT,
			content TEXT NOT NULL,
			embedding BLOB,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores a chunk and its embedding. The chunk is assigned an ID.
func (s *Store) Add(chunk Chunk, embedding []float32) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO chunks (id, source, section, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, chunk.Source, chunk.Section, chunk.Content,
		encodeEmbedding(embedding), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert chunk: %w", err)
	}
	return id, nil
}

// DeleteSource removes all chunks indexed from source, so a document
// can be re-ingested without duplicates.
func (s *Store) DeleteSource(source string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM chunks WHERE source = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("delete chunks: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Search ranks all indexed chunks against queryVec and returns the top
// k by cosine similarity, best first.
func (s *Store) Search(queryVec []float32, k int) ([]Result, error) {
	rows, err := s.db.Query(`SELECT id, source, section, content, embedding FROM chunks WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	var vectors [][]float32
	for rows.Next() {
		var c Chunk
		var section sql.NullString
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Source, &section, &c.Content, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Section = section.String
		chunks = append(chunks, c)
		vectors = append(vectors, decodeEmbedding(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	results := make([]Result, 0, k)
	for _, idx := range embeddings.TopK(queryVec, vectors, k) {
		results = append(results, Result{
			Chunk: chunks[idx],
			Score: embeddings.CosineSimilarity(queryVec, vectors[idx]),
		})
	}
	return results, nil
}

func encodeEmbedding(embedding []float32) []byte {
	if len(embedding) == 0 {
		return nil
	}
	buf := make([]byte, len(embedding)*4)
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	result := make([]float32, len(data)/4)
	for i := range result {
		result[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return result
}
