// Package session is the UI-integration boundary for LLM interaction:
// it proposes plans from evidence, renders them for display, logs
// every plan generation/edit and pre-flight decision to execution
// memory, and tracks one plan's authorization state at a time. It
// never executes a tool itself — that stays with chatloop and
// whatever implements toolcontract.Executor.
package session

// Context is the caller-supplied framing for one proposal: the user's
// stated intent, an optional file/diagnostic the user has selected in
// the UI, and the db_root a session's adapter config and execution
// memory live under.
type Context struct {
	UserIntent        string
	SelectedFile      *string
	CurrentDiagnostic *string
	DBRoot            string
}
