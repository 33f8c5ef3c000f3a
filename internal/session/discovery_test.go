package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/odincode/internal/router"
)

func TestLogDiscoveryRecordsAllowedMinusForbidden(t *testing.T) {
	mem := openTestMemory(t)

	require.NoError(t, LogDiscovery(mem, "sess-1", "fix the bug", router.ModeMutation))

	var toolsDiscovered, reason string
	require.NoError(t, mem.DB().QueryRow(
		`SELECT tools_discovered, reason FROM discovery_events WHERE session_id = ?`, "sess-1",
	).Scan(&toolsDiscovered, &reason))

	forbidden := make(map[string]bool)
	for _, tool := range router.ModeMutation.ForbiddenTools() {
		forbidden[tool] = true
	}
	for _, allowed := range router.ModeMutation.AllowedTools() {
		if !forbidden[allowed] {
			assert.Contains(t, toolsDiscovered, allowed)
		}
	}
	assert.Contains(t, reason, "Mutation")
}

func TestLogDiscoveryHashIsDeterministicPerQuery(t *testing.T) {
	assert.Equal(t, hashQuery("same input"), hashQuery("same input"))
	assert.NotEqual(t, hashQuery("input a"), hashQuery("input b"))
}
