package memory

import (
	"strings"

	"github.com/oldnordic/odincode/internal/odinerrors"
)

// RecordDiscoveryEvent writes one row to discovery_events: the tool set
// a prompt mode made available for a user turn, independent of which (if
// any) of those tools the model actually called. toolsDiscovered is
// stored as a comma-joined list for readability under manual inspection;
// Q-style queries over it are not part of this system's scope.
func (s *Store) RecordDiscoveryEvent(sessionID, userQueryHash string, toolsDiscovered []string, reason string, timestampMs int64) error {
	if sessionID == "" {
		return odinerrors.New(odinerrors.KindStorage, "discovery event requires a session id")
	}

	_, err := s.db.Exec(
		`INSERT INTO discovery_events (session_id, user_query_hash, tools_discovered, reason, timestamp) VALUES (?, ?, ?, ?, ?)`,
		sessionID, userQueryHash, strings.Join(toolsDiscovered, ","), reason, timestampMs,
	)
	if err != nil {
		return odinerrors.Wrap(odinerrors.KindStorage, "insert discovery_events", err)
	}
	return nil
}
