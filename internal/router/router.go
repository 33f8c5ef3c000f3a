package router

import "strings"

// exploreKeywords are checked first so that phrases like "list files in"
// classify as Explore rather than being caught by a Query substring.
var exploreKeywords = []string{
	"where is", "find", "locate", "which file", "show me", "list",
	"search for", "look for", "symbol", "reference", "defined in",
	"used in", "called from", "imports", "exports",
}

var mutationKeywords = []string{
	"edit", "fix", "change", "modify", "refactor", "rename",
	"replace", "update", "delete", "add", "remove", "move",
	"extract", "inline", "rewrite", "transform",
}

var queryKeywords = []string{
	"how many", "how much", "count", "total", "sum", "number of",
	"lines of", "loc", "size of", "statistics", "stats",
	"frequency", "occurrences", "average", "median",
}

// ClassifyPromptMode runs a first-match-wins keyword scan over the
// user's utterance, in priority order Explore, Mutation, Query.
// Unmatched input defaults to Explore; Presentation is never reached by
// this scan — a loop enters it explicitly after tools complete.
func ClassifyPromptMode(userInput string) PromptMode {
	input := strings.ToLower(userInput)

	for _, kw := range exploreKeywords {
		if strings.Contains(input, kw) {
			return ModeExplore
		}
	}
	for _, kw := range mutationKeywords {
		if strings.Contains(input, kw) {
			return ModeMutation
		}
	}
	for _, kw := range queryKeywords {
		if strings.Contains(input, kw) {
			return ModeQuery
		}
	}
	return ModeExplore
}

// ToolAllowedInMode reports whether tool may run in mode. An explicit
// forbidden-tools entry always wins over an allowed-tools entry.
func ToolAllowedInMode(tool string, mode PromptMode) bool {
	for _, f := range mode.ForbiddenTools() {
		if f == tool {
			return false
		}
	}
	for _, a := range mode.AllowedTools() {
		if a == tool {
			return true
		}
	}
	return false
}

// ToolsForIntent returns the tool set a given planning Intent draws
// from. This is distinct from PromptMode's allowed/forbidden tables:
// Intent shapes what a plan is expected to contain, PromptMode shapes
// what the loop will actually let run.
func ToolsForIntent(intent Intent) []string {
	switch intent {
	case IntentRead:
		return []string{"file_read", "symbols_in_file", "references_to_symbol_name", "references_from_file_to_symbol_name"}
	case IntentMutate:
		return []string{"splice_patch", "splice_plan", "file_write", "file_create", "file_edit"}
	case IntentQuery:
		return []string{"file_search", "file_glob", "lsp_check", "memory_query", "execution_summary", "git_status", "git_diff", "git_log", "wc", "bash_exec"}
	case IntentExplain:
		return []string{"lsp_check"}
	default:
		return nil
	}
}

// PreconditionsForTool returns the declarative precondition tags for a
// whitelisted tool. display_text is the sole tool with none: it is a
// pure presentation tool that touches nothing external.
func PreconditionsForTool(tool string) []string {
	switch tool {
	case "file_read", "file_write", "file_create", "file_edit":
		return []string{"file exists"}
	case "file_search", "file_glob":
		return []string{"root exists"}
	case "splice_patch":
		return []string{"file is in workspace", "symbol exists in file"}
	case "splice_plan":
		return []string{"plan file exists", "file is in workspace"}
	case "symbols_in_file", "references_to_symbol_name", "references_from_file_to_symbol_name":
		return []string{"codegraph.db exists", "file has been indexed"}
	case "lsp_check":
		return []string{"project root exists"}
	case "memory_query", "execution_summary":
		return []string{"execution_log.db exists"}
	case "git_status", "git_diff", "git_log":
		return []string{"git repository exists"}
	case "wc":
		return []string{"file exists"}
	case "bash_exec":
		return []string{"command is safe"}
	case "display_text":
		return nil
	default:
		return nil
	}
}
