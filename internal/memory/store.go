// Package memory implements the execution memory component: a durable,
// append-only record of every tool invocation and its observable effects,
// backed by a SQLite temporal log plus an optional SQLite relational
// graph store.
package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	execLogFilename  = "execution_log.db"
	codegraphFilename = "codegraph.db"
)

// Store owns the two SQLite connections that make up execution memory.
// Graph is nil when no codegraph.db was found at Open time; callers must
// check GraphAvailable() before relying on it.
type Store struct {
	db    *sql.DB
	graph *sql.DB

	dbRoot string
}

// Open opens (and, for the temporal log, creates on first use) execution
// memory rooted at dbRoot. Unlike the original implementation this never
// hard-fails when codegraph.db is absent: it continues in "graph-missing"
// mode, per the redesigned (non-fatal) behavior specified for this store.
func Open(dbRoot string) (*Store, error) {
	if err := os.MkdirAll(dbRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create db_root %s: %w", dbRoot, err)
	}

	execPath := filepath.Join(dbRoot, execLogFilename)
	db, err := sql.Open("sqlite", execPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", execPath, err)
	}
	db.SetMaxOpenConns(1) // SQLite: serialize writers through one connection.

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema %s: %w", execPath, err)
	}
	if _, err := db.Exec(chatSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init chat schema %s: %w", execPath, err)
	}

	s := &Store{db: db, dbRoot: dbRoot}

	graphPath := filepath.Join(dbRoot, codegraphFilename)
	if _, statErr := os.Stat(graphPath); statErr == nil {
		graphDB, openErr := sql.Open("sqlite", graphPath)
		if openErr != nil {
			log.Warn().Err(openErr).Str("path", graphPath).Msg("codegraph.db present but failed to open; continuing in graph-missing mode")
		} else {
			graphDB.SetMaxOpenConns(1)
			if _, err := graphDB.Exec(graphSchemaSQL); err != nil {
				log.Warn().Err(err).Msg("failed to ensure graph schema; continuing in graph-missing mode")
				graphDB.Close()
			} else {
				s.graph = graphDB
			}
		}
	} else {
		log.Info().Str("path", graphPath).Msg("codegraph.db not found; operating in graph-missing mode")
	}

	return s, nil
}

// GraphAvailable reports whether the relational graph collaborator is
// open. Evidence queries use this to decide between Graph and Fallback
// data sources.
func (s *Store) GraphAvailable() bool { return s.graph != nil }

// DBRoot returns the directory this store was opened against.
func (s *Store) DBRoot() string { return s.dbRoot }

// DB exposes the temporal-log connection for the evidence query layer.
func (s *Store) DB() *sql.DB { return s.db }

// GraphDB exposes the relational-graph connection, or nil if unavailable.
func (s *Store) GraphDB() *sql.DB { return s.graph }

// Close releases both connections. Safe to call even if the graph
// connection was never opened.
func (s *Store) Close() error {
	var firstErr error
	if s.graph != nil {
		if err := s.graph.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
