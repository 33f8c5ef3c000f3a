package router

import (
	"os"
	"path/filepath"
)

// CheckFileExists is the "file exists" / "file is in workspace"
// precondition check.
func CheckFileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CheckProjectRootExists is the "project root exists" precondition
// check for lsp_check: any directory containing a go.mod.
func CheckProjectRootExists(root string) bool {
	_, err := os.Stat(filepath.Join(root, "go.mod"))
	return err == nil
}

// CheckCodegraphExists is the "codegraph.db exists" precondition check.
func CheckCodegraphExists(dbRoot string) bool {
	_, err := os.Stat(filepath.Join(dbRoot, "codegraph.db"))
	return err == nil
}

// CheckExecutionLogExists is the "execution_log.db exists" precondition
// check.
func CheckExecutionLogExists(dbRoot string) bool {
	_, err := os.Stat(filepath.Join(dbRoot, "execution_log.db"))
	return err == nil
}

// CheckGitRepositoryExists is the "git repository exists" precondition
// check.
func CheckGitRepositoryExists(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil
}
