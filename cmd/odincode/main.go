package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/oldnordic/odincode/internal/config"
	"github.com/oldnordic/odincode/internal/evidence"
	"github.com/oldnordic/odincode/internal/llmadapter"
	"github.com/oldnordic/odincode/internal/memory"
	"github.com/oldnordic/odincode/internal/observability"
	"github.com/oldnordic/odincode/internal/router"
	"github.com/oldnordic/odincode/internal/session"
)

const version = "0.1.0"

const (
	exitOK            = 0
	exitFailure       = 1
	exitDBUnavailable = 2
)

func main() {
	dbRootFlag := flag.String("db-root", "", "directory holding execution_log.db, codegraph.db, config.toml, plans/")
	planFile := flag.String("plan-file", "", "path to a plan JSON file (plan writes here or defaults to plans/<plan_id>.json; execute reads from here)")
	jsonOut := flag.Bool("json", false, "force JSON output where applicable")
	// Schema bootstrap is idempotent and cheap, so there is nothing to skip;
	// accepted only so scripts written against the documented CLI surface
	// don't fail on an unrecognized flag.
	flag.Bool("no-bootstrap", false, "accepted for CLI-surface compatibility; schema bootstrap always runs and is idempotent")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("odincode " + version)
		os.Exit(exitOK)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(exitFailure)
	}

	dbRoot, err := config.ResolveDBRoot(*dbRootFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "resolve db_root:", err)
		os.Exit(exitDBUnavailable)
	}

	cfg, err := config.Load(dbRoot)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(exitFailure)
	}
	observability.InitLogger(cfg.LogPath, cfg.LogLevel)

	mem, err := memory.Open(dbRoot)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open db_root:", err)
		os.Exit(exitDBUnavailable)
	}
	defer mem.Close()

	cmd, rest := args[0], args[1:]

	var runErr error
	switch cmd {
	case "tui":
		runErr = runTUI()
	case "plan":
		runErr = runPlan(context.Background(), mem, cfg, *planFile, strings.Join(rest, " "))
	case "execute":
		runErr = runExecute(*planFile)
	case "evidence":
		runErr = runEvidence(mem, *jsonOut, rest)
	default:
		usage()
		os.Exit(exitFailure)
	}

	if runErr != nil {
		log.Error().Err(runErr).Str("command", cmd).Msg("command failed")
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(exitFailure)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: odincode [--db-root PATH] [--plan-file PATH] [--json] [--version] [tui|plan <goal...>|execute|evidence <Q1..Q8> <args...>]")
}

// runTUI satisfies the CLI surface's tui subcommand. The interactive
// terminal UI itself is an external collaborator over internal/session
// and internal/chatloop, not part of this core.
func runTUI() error {
	fmt.Println("odincode: no terminal UI is built into this core; wire one against internal/session and internal/chatloop.")
	return nil
}

func runPlan(ctx context.Context, mem *memory.Store, cfg config.Config, planFile, goal string) error {
	if strings.TrimSpace(goal) == "" {
		return fmt.Errorf(`plan requires a goal: odincode plan "..."`)
	}

	adapter, err := llmadapter.NewFromConfig(cfg.Adapter)
	if err != nil {
		return fmt.Errorf("configure llm adapter: %w", err)
	}

	sessCtx := session.Context{UserIntent: goal, DBRoot: mem.DBRoot()}
	plan, err := session.ProposePlan(ctx, adapter, sessCtx, nil)
	if err != nil {
		return fmt.Errorf("propose plan: %w", err)
	}

	validationErr := ""
	if err := router.ValidatePlan(plan); err != nil {
		validationErr = err.Error()
	}
	if err := session.LogPlanGeneration(mem, goal, *plan, validationErr); err != nil {
		return fmt.Errorf("log plan generation: %w", err)
	}
	if validationErr != "" {
		return fmt.Errorf("plan failed validation: %s", validationErr)
	}

	path := planFile
	if path == "" {
		path = filepath.Join(mem.DBRoot(), "plans", plan.PlanID+".json")
	}
	if err := writePlanFile(path, *plan); err != nil {
		return fmt.Errorf("write plan file: %w", err)
	}

	fmt.Println(session.RenderPlanForUI(*plan))
	fmt.Fprintf(os.Stderr, "plan written to %s\n", path)
	return nil
}

func writePlanFile(path string, plan router.Plan) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// runExecute validates and authorizes a plan read from disk. It never
// dispatches a tool itself: internal/toolcontract.Executor has no
// concrete implementation in this core, the same way spec.md leaves
// tool bodies as an external collaborator.
func runExecute(planFile string) error {
	if planFile == "" {
		return fmt.Errorf("execute requires --plan-file PATH")
	}
	data, err := os.ReadFile(planFile)
	if err != nil {
		return fmt.Errorf("read plan file: %w", err)
	}
	var plan router.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("decode plan file: %w", err)
	}
	if err := router.ValidatePlan(&plan); err != nil {
		return fmt.Errorf("plan failed validation: %w", err)
	}

	auth := router.NewPlanAuthorization(plan.PlanID)
	auth.Approve()

	return fmt.Errorf("plan %s validated and approved; no tool executor is wired into this core (see internal/toolcontract.Executor) so execution against the repository must happen in an external collaborator", plan.PlanID)
}

func runEvidence(mem *memory.Store, jsonOut bool, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("evidence requires a query name: Q1..Q8")
	}
	store := evidence.New(mem)
	query := strings.ToUpper(args[0])
	rest := args[1:]

	var result any
	var err error
	switch query {
	case "Q1":
		if len(rest) < 1 {
			return fmt.Errorf("Q1 requires a tool name")
		}
		result, err = store.ListExecutionsByTool(rest[0], limitArg(rest, 1))
	case "Q2":
		if len(rest) < 1 {
			return fmt.Errorf("Q2 requires a tool name")
		}
		result, err = store.ListFailuresByTool(rest[0], limitArg(rest, 1))
	case "Q3":
		if len(rest) < 1 {
			return fmt.Errorf("Q3 requires a diagnostic code")
		}
		result, err = store.FindExecutionsByDiagnosticCode(rest[0], limitArg(rest, 1))
	case "Q4":
		if len(rest) < 1 {
			return fmt.Errorf("Q4 requires a file path")
		}
		result, err = store.FindExecutionsByFile(rest[0], limitArg(rest, 1))
	case "Q5":
		if len(rest) < 1 {
			return fmt.Errorf("Q5 requires an execution id")
		}
		result, err = store.GetExecutionDetails(rest[0])
	case "Q6":
		if len(rest) < 1 {
			return fmt.Errorf("Q6 requires a file path")
		}
		result, err = store.GetLatestOutcomeForFile(rest[0])
	case "Q7":
		result, err = store.GetRecurringDiagnostics(2, limitArg(rest, 0))
	case "Q8":
		if len(rest) < 1 {
			return fmt.Errorf("Q8 requires a diagnostic execution id")
		}
		result, err = store.FindPriorFixesForDiagnostic(rest[0], limitArg(rest, 1))
	default:
		return fmt.Errorf("unknown evidence query %q (want Q1..Q8)", query)
	}
	if err != nil {
		return err
	}

	// Evidence mode output is strictly JSON on stdout regardless of --json.
	_ = jsonOut
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func limitArg(args []string, idx int) int {
	const defaultLimit = 20
	if idx >= len(args) {
		return defaultLimit
	}
	n, err := strconv.Atoi(args[idx])
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return n
}
