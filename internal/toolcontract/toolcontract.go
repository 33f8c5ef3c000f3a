// Package toolcontract defines the boundary between the chat loop and
// whatever actually executes a tool against the repository: a result
// shape and an executor interface, no tool bodies. Concrete tools are
// an external collaborator per this system's scope.
package toolcontract

// OutputKind classifies a ToolResult's payload shape, mirroring the
// original's file-content/diagnostics/text distinction so a renderer
// can format each kind appropriately.
type OutputKind string

const (
	KindFileContent OutputKind = "file_content"
	KindDiagnostics OutputKind = "diagnostics"
	KindText        OutputKind = "text"
	KindStructured  OutputKind = "structured"
)

// Result is what a tool invocation produces: enough to both show the
// user something and record a durable execution.
type Result struct {
	Tool           string
	Success        bool
	OutputFull     string
	OutputPreview  string
	ErrorMessage   *string
	AffectedPath   *string
	Kind           OutputKind
	StructuredData map[string]any
	ExecutionID    string
}

// Executor runs one validated step against the repository. It is the
// sole IO boundary the chat loop depends on; this package never
// implements it.
type Executor interface {
	Execute(tool string, args map[string]string) (Result, error)
}
