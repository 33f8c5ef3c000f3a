// Package router maps LLM output to a whitelisted, precondition-checked
// tool set and classifies user intent into a bounded prompt mode. It is
// pure data and validation: no IO beyond the lightweight filesystem
// existence checks a precondition names.
package router

import "sort"

// ToolWhitelist is the fixed, sorted set of tools the execution core
// will ever dispatch. A tool absent from this list can never run,
// regardless of what a plan asks for.
var ToolWhitelist = []string{
	"bash_exec",
	"display_text",
	"execution_summary",
	"file_create",
	"file_edit",
	"file_glob",
	"file_read",
	"file_search",
	"file_write",
	"git_diff",
	"git_log",
	"git_status",
	"lsp_check",
	"memory_query",
	"references_from_file_to_symbol_name",
	"references_to_symbol_name",
	"splice_patch",
	"splice_plan",
	"symbols_in_file",
	"wc",
}

var toolWhitelistSet = func() map[string]bool {
	m := make(map[string]bool, len(ToolWhitelist))
	for _, t := range ToolWhitelist {
		m[t] = true
	}
	return m
}()

func init() {
	sorted := append([]string(nil), ToolWhitelist...)
	sort.Strings(sorted)
	for i, t := range sorted {
		if ToolWhitelist[i] != t {
			panic("router: ToolWhitelist must be kept sorted")
		}
	}
}

// ToolIsAllowed reports whether tool is in the static whitelist.
func ToolIsAllowed(tool string) bool { return toolWhitelistSet[tool] }
