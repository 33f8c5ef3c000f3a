// Package evidence implements the eight deterministic, read-only queries
// over execution memory (Q1-Q8) plus their aggregation into a single
// EvidenceSummary block suitable for inclusion in an LLM prompt.
package evidence

// DataSource reports whether a file-scoped query (Q4, Q6) was answered
// from the relational graph or derived from the temporal log alone.
type DataSource string

const (
	DataSourceGraph    DataSource = "graph"
	DataSourceFallback DataSource = "fallback"
)

// ExecutionSummary is the Q1 row shape.
type ExecutionSummary struct {
	ExecutionID  string
	ToolName     string
	TimestampMs  int64
	Success      bool
	ExitCode     *int
	DurationMs   *int64
	ErrorMessage *string
}

// FailureSummary is the Q2 row shape.
type FailureSummary struct {
	ExecutionID  string
	ToolName     string
	TimestampMs  int64
	ExitCode     *int
	ErrorMessage *string
}

// DiagnosticExecution is the Q3 row shape.
type DiagnosticExecution struct {
	ExecutionID        string
	ToolName           string
	TimestampMs        int64
	DiagnosticCode     string
	DiagnosticLevel    string
	DiagnosticMessage  string
	FileName           string
}

// FileExecution is the Q4 row shape.
type FileExecution struct {
	ExecutionID string
	ToolName    string
	TimestampMs int64
	Success     bool
	EdgeType    string
	DataSource  DataSource
}

// ExecutionRecord is the Q5 execution-row component.
type ExecutionRecord struct {
	ID            string
	ToolName      string
	ArgumentsJSON string
	TimestampMs   int64
	Success       bool
	ExitCode      *int
	DurationMs    *int64
	ErrorMessage  *string
}

// ArtifactRecord is a Q5 artifact component.
type ArtifactRecord struct {
	ArtifactType string
	ContentJSON  string
}

// GraphEntityRecord is the Q5 graph-entity component.
type GraphEntityRecord struct {
	EntityID int64
	Kind     string
	Name     string
	FilePath *string
	Data     string
}

// GraphEdgeRecord is a Q5 outgoing-edge component.
type GraphEdgeRecord struct {
	EdgeID         int64
	EdgeType       string
	TargetEntityID int64
	TargetKind     string
	TargetName     string
}

// ExecutionDetails is the Q5 result.
type ExecutionDetails struct {
	Execution   ExecutionRecord
	Artifacts   []ArtifactRecord
	GraphEntity *GraphEntityRecord
	GraphEdges  []GraphEdgeRecord
}

// LatestFileOutcome is the Q6 result.
type LatestFileOutcome struct {
	ExecutionID string
	ToolName    string
	TimestampMs int64
	Success     bool
	EdgeType    string
	DataSource  DataSource
}

// RecurringDiagnostic is a Q7 row.
type RecurringDiagnostic struct {
	DiagnosticCode   string
	FileName         string
	OccurrenceCount  int64
	FirstSeenMs      int64
	LastSeenMs       int64
	ExecutionIDs     []string
}

// PriorFix is a Q8 row. TemporalGapMs is always >= 0 by construction
// (the query only joins fixes strictly after the diagnostic).
type PriorFix struct {
	ExecutionID           string
	ToolName              string
	TimestampMs           int64
	DiagnosticExecutionID string
	TemporalGapMs         int64
	Success               bool
}
