package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oldnordic/odincode/internal/memory"
	"github.com/oldnordic/odincode/internal/router"
)

// LogDiscovery records the tool set a prompt mode made available for
// one user turn, before the first adapter call of that turn. It
// captures exactly AllowedTools() minus ForbiddenTools() — what the
// model *could* have called — independent of what it actually called,
// giving an audit trail for reviewing the LLM's available action
// surface after the fact.
//
// Discovery is read directly off the mode's declared tables, not
// reconstructed by scanning the model's own text for tool-name
// substrings: the latter would make the audit trail describe what the
// model said, not what the system actually permitted.
func LogDiscovery(mem *memory.Store, sessionID, userQuery string, mode router.PromptMode) error {
	forbidden := make(map[string]bool, len(mode.ForbiddenTools()))
	for _, t := range mode.ForbiddenTools() {
		forbidden[t] = true
	}

	var discovered []string
	for _, t := range mode.AllowedTools() {
		if !forbidden[t] {
			discovered = append(discovered, t)
		}
	}

	return mem.RecordDiscoveryEvent(sessionID, hashQuery(userQuery), discovered, "mode="+mode.DisplayName(), time.Now().UnixMilli())
}

func hashQuery(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}
