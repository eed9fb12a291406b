// Package cli implements the skill-loader CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rcliao/skill-loader/internal/cache"
	"github.com/rcliao/skill-loader/internal/compose"
	"github.com/rcliao/skill-loader/internal/config"
	"github.com/rcliao/skill-loader/internal/directive"
	"github.com/rcliao/skill-loader/internal/index"
	"github.com/rcliao/skill-loader/internal/loader"
	"github.com/rcliao/skill-loader/internal/logging"
	"github.com/rcliao/skill-loader/internal/matrix"
	"github.com/rcliao/skill-loader/internal/resolve"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitParse       = 2
	ExitResolution  = 3
	ExitComposition = 4
	ExitBudget      = 5
	ExitSource      = 6
)

// flagKeys maps config keys onto the flag names that may set them.
var flagKeys = map[string]string{
	"root":        "root",
	"matrix":      "matrix",
	"format":      "format",
	"log_level":   "log-level",
	"budget":      "budget",
	"level":       "level",
	"session":     "session",
	"session_id":  "session-id",
	"concurrency": "concurrency",
}

// app carries the state shared by every command of one invocation.
type app struct {
	v          *viper.Viper
	cfg        *config.Config
	log        *slog.Logger
	configFile string
	verbose    bool
}

var commands []func(*app) *cobra.Command

// register adds a top-level command constructor.
func register(f func(*app) *cobra.Command) {
	commands = append(commands, f)
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}
	root := &cobra.Command{
		Use:   "skill-loader",
		Short: "Resolve @load directives and load skills progressively",
		Long: "Resolve compact @load directives into skill documents and load them " +
			"level by level under a token budget, caching what a session has already seen.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Config file (default: ./skill-loader.yaml or $XDG_CONFIG_HOME/skill-loader/skill-loader.yaml)")
	pf.StringP("root", "r", "", "Content root (default: skills, env SKILL_LOADER_ROOT)")
	pf.String("matrix", "", "Product matrix path (default: <root>/product-matrix.yaml)")
	pf.StringP("format", "f", "", "Output format: json or text (default: json)")
	pf.String("log-level", "", "Log level: debug, info, warn or error (default: warn)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")

	for _, f := range commands {
		root.AddCommand(f(a))
	}
	return root
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitCode(err)
	}
	return ExitOK
}

// ExitCode maps an error onto the documented exit codes.
func ExitCode(err error) int {
	var (
		pe *directive.ParseError
		re *resolve.Error
		ce *compose.Error
		be *loader.BudgetExceeded
		se *sourceError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &pe):
		return ExitParse
	case errors.As(err, &re):
		return ExitResolution
	case errors.As(err, &ce):
		return ExitComposition
	case errors.As(err, &be):
		return ExitBudget
	case errors.As(err, &se):
		return ExitSource
	default:
		return ExitError
	}
}

// unknownUnit reports a unit id named on the command line that is not in
// the index. It exits like any other unresolvable reference.
func unknownUnit(id string) error {
	return &resolve.Error{Kind: resolve.UnknownCode, Ref: id}
}

// sourceError marks a failure to read the content root or the matrix.
type sourceError struct {
	msg string
	err error
}

func (e *sourceError) Error() string { return e.msg + ": " + e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = slog.LevelDebug
	}
	a.cfg = cfg
	a.log = logging.New(cmd.ErrOrStderr(), level)
	a.log.Debug("config loaded", "root", cfg.Root, "matrix", cfg.Matrix, "session", cfg.Session)
	return nil
}

func (a *app) openIndex() (*index.Index, error) {
	idx, err := index.Build(a.cfg.Root, index.Options{Logger: a.log})
	if err != nil {
		return nil, &sourceError{msg: "build index", err: err}
	}
	return idx, nil
}

// openMatrix loads the product matrix. A missing matrix at the default
// location is not an error: directives then resolve by category only.
func (a *app) openMatrix() (*matrix.Matrix, error) {
	m, err := matrix.Load(a.cfg.Matrix)
	if err == nil {
		a.log.Debug("matrix loaded", "path", a.cfg.Matrix, "products", len(m.Products()))
		return m, nil
	}
	isDefault := a.cfg.Matrix == filepath.Join(a.cfg.Root, config.MatrixFileName)
	if isDefault && errors.Is(err, os.ErrNotExist) {
		a.log.Debug("no matrix found", "path", a.cfg.Matrix)
		return nil, nil
	}
	return nil, &sourceError{msg: "load matrix", err: err}
}

func (a *app) openCache(ctx context.Context) (*cache.SQLiteCache, error) {
	c, err := cache.NewSQLite(ctx, a.cfg.Session, a.cfg.SessionID)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return c, nil
}

func (a *app) resolver() (*resolve.Resolver, *index.Index, error) {
	idx, err := a.openIndex()
	if err != nil {
		return nil, nil, err
	}
	m, err := a.openMatrix()
	if err != nil {
		return nil, nil, err
	}
	return resolve.New(idx, m, a.log), idx, nil
}

// print writes v as indented JSON, or calls text in text mode.
func (a *app) print(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if a.cfg.Format == config.FormatText && text != nil {
		text(w)
		return nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// parseArgs parses args joined by spaces as one directive. With extract
// set, the text may be free prose holding any number of @load directives.
func parseArgs(args []string, extract bool) ([]directive.Directive, error) {
	text := strings.Join(args, " ")
	if !extract {
		d, err := directive.Parse(text)
		if err != nil {
			return nil, err
		}
		return []directive.Directive{d}, nil
	}
	ds, err := directive.Extract(text)
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return nil, &directive.ParseError{Input: text, Reason: "no @load directive found"}
	}
	return ds, nil
}
