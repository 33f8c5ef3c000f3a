package memory

import (
	"encoding/json"
	"time"

	"github.com/oldnordic/odincode/internal/odinerrors"
)

// validToolNames is the set of tool_name values the executions table will
// accept. It is broader than the router's dispatch whitelist: alongside
// the whitelisted tools it also covers synthetic execution kinds recorded
// by higher-level components (llm_plan, approval_granted, ...).
var validToolNames = map[string]bool{
	"file_read":                          true,
	"file_write":                         true,
	"file_create":                        true,
	"file_search":                        true,
	"file_glob":                          true,
	"file_edit":                          true,
	"splice_patch":                       true,
	"splice_plan":                        true,
	"symbols_in_file":                    true,
	"references_to_symbol_name":          true,
	"references_from_file_to_symbol_name": true,
	"lsp_check":                          true,
	"llm_plan":                           true,
	"llm_explain":                        true,
	"llm_preflight":                      true,
	"memory_query":                       true,
	"execution_summary":                  true,
	"git_status":                         true,
	"git_diff":                           true,
	"git_log":                            true,
	"wc":                                 true,
	"bash_exec":                          true,
	"approval_granted":                   true,
	"approval_denied":                    true,
}

var validArtifactTypes = map[string]bool{
	"stdout":                 true,
	"stderr":                 true,
	"diagnostics":            true,
	"prompt":                 true,
	"plan":                   true,
	"validation_error":       true,
	"llm_preflight":          true,
	"llm_plan_stream":        true,
	"plan_edit":              true,
	"adapter_call":           true,
	"adapter_response":       true,
	"adapter_stream_chunk":   true,
	"adapter_error":          true,
	"chat_user_message":      true,
	"chat_assistant_message": true,
	"chat_session":           true,
	"chat_summary":           true,
	"approval_granted":       true,
	"approval_denied":        true,
}

// minTimestampMs is 2020-01-01T00:00:00Z in epoch milliseconds.
const minTimestampMs int64 = 1577836800000

func validateToolName(name string) error {
	if !validToolNames[name] {
		return odinerrors.New(odinerrors.KindStorage, "invalid tool_name: "+name)
	}
	return nil
}

func validateArtifactType(t string) error {
	if !validArtifactTypes[t] {
		return odinerrors.New(odinerrors.KindStorage, "invalid artifact_type: "+t)
	}
	return nil
}

func validateTimestamp(ts int64) error {
	maxTs := time.Now().Add(24 * time.Hour).UnixMilli()
	if ts < minTimestampMs || ts > maxTs {
		return odinerrors.New(odinerrors.KindStorage, "timestamp out of range")
	}
	return nil
}

func validateJSON(raw string) error {
	if !json.Valid([]byte(raw)) {
		return odinerrors.New(odinerrors.KindStorage, "content is not well-formed JSON")
	}
	return nil
}
