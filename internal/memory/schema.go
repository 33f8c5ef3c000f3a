package memory

// Schema statements for execution_log.db. Validation that the original
// store enforced with SQL triggers is instead enforced in Go immediately
// before each INSERT (see validate.go) — idiomatic for a database/sql
// store and equivalent in effect: a row that fails validation never
// reaches these tables.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS executions (
	id TEXT PRIMARY KEY NOT NULL,
	tool_name TEXT NOT NULL,
	arguments_json TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	success INTEGER NOT NULL,
	exit_code INTEGER,
	duration_ms INTEGER,
	error_message TEXT
);

CREATE TABLE IF NOT EXISTS execution_artifacts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	execution_id TEXT NOT NULL,
	artifact_type TEXT NOT NULL,
	content_json TEXT NOT NULL,
	FOREIGN KEY (execution_id) REFERENCES executions(id) ON DELETE RESTRICT
);

CREATE TABLE IF NOT EXISTS discovery_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	user_query_hash TEXT NOT NULL,
	tools_discovered TEXT NOT NULL,
	reason TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_executions_tool ON executions(tool_name);
CREATE INDEX IF NOT EXISTS idx_executions_timestamp ON executions(timestamp);
CREATE INDEX IF NOT EXISTS idx_executions_success ON executions(success);
CREATE INDEX IF NOT EXISTS idx_executions_tool_timestamp ON executions(tool_name, timestamp);
CREATE INDEX IF NOT EXISTS idx_artifacts_execution ON execution_artifacts(execution_id);
CREATE INDEX IF NOT EXISTS idx_artifacts_type ON execution_artifacts(artifact_type);
CREATE INDEX IF NOT EXISTS idx_artifacts_execution_type ON execution_artifacts(execution_id, artifact_type);
CREATE INDEX IF NOT EXISTS idx_discovery_session ON discovery_events(session_id);
CREATE INDEX IF NOT EXISTS idx_discovery_timestamp ON discovery_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_discovery_query_hash ON discovery_events(user_query_hash);
`

// Chat schema is created idempotently on every Open call, matching the
// original's unconditional init_chat_schema() after schema init.
const chatSchemaSQL = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	session_id TEXT PRIMARY KEY NOT NULL,
	start_time INTEGER NOT NULL,
	end_time INTEGER,
	message_count INTEGER NOT NULL DEFAULT 0,
	compacted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	FOREIGN KEY (session_id) REFERENCES chat_sessions(session_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id);
CREATE INDEX IF NOT EXISTS idx_chat_messages_timestamp ON chat_messages(timestamp);
`

// graphSchemaSQL creates the relational graph store. Applied whenever
// codegraph.db is opened by this package (the "self-managed" case); an
// externally-indexed codegraph.db is expected to already carry this shape.
const graphSchemaSQL = `
CREATE TABLE IF NOT EXISTS graph_entities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	file_path TEXT,
	data_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS graph_edges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	from_id INTEGER NOT NULL,
	to_id INTEGER NOT NULL,
	edge_type TEXT NOT NULL,
	data_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_graph_entities_kind ON graph_entities(kind);
CREATE INDEX IF NOT EXISTS idx_graph_entities_kind_name ON graph_entities(kind, name);
CREATE INDEX IF NOT EXISTS idx_graph_edges_from ON graph_edges(from_id);
CREATE INDEX IF NOT EXISTS idx_graph_edges_to ON graph_edges(to_id);
`
