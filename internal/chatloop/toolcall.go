package chatloop

import "strings"

// ParsedToolCall is one TOOL_CALL block extracted from assistant text.
type ParsedToolCall struct {
	Tool string
	Args map[string]string
}

// ParseToolCall scans assistant text for a TOOL_CALL block in the
// chat contract's required grammar:
//
//	TOOL_CALL:
//	  tool: <tool_name>
//	  args:
//	    <key>: <value>
//
// A response with no TOOL_CALL block returns ok=false: the turn ends
// with assistant text as the answer, nothing to execute. Only the
// first TOOL_CALL block is parsed — the contract allows at most one
// per response.
func ParseToolCall(text string) (ParsedToolCall, bool) {
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "TOOL_CALL:" {
			start = i
			break
		}
	}
	if start == -1 {
		return ParsedToolCall{}, false
	}

	call := ParsedToolCall{Args: map[string]string{}}
	inArgs := false
	for _, line := range lines[start+1:] {
		if strings.TrimSpace(line) == "" {
			break
		}
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			break // dedented past the block
		}

		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch {
		case key == "tool":
			call.Tool = val
		case key == "args":
			inArgs = true
		case inArgs && key != "":
			call.Args[key] = val
		}
	}

	if call.Tool == "" {
		return ParsedToolCall{}, false
	}
	return call, true
}
