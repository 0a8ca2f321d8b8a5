package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/standards/internal/config"
	"github.com/dshills/standards/internal/diag"
	"github.com/dshills/standards/internal/drift"
	"github.com/dshills/standards/internal/generate"
	"github.com/dshills/standards/internal/logging"
	"github.com/dshills/standards/internal/profile"
	"github.com/dshills/standards/internal/source"
	"github.com/dshills/standards/internal/watch"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

// codeError returns an exitErr for the given code.
func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// loadError maps a generation error to an exit code: unreadable input
// directories are configuration problems, everything else is unexpected.
func loadError(err error) error {
	if diag.KindOf(err) == diag.KindIO {
		return codeError(3, "%s", err)
	}
	return codeError(1, "%s", err)
}

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	root       string
	configPath string
	out        string
	mode       string
	verbose    bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags     globalFlags
	cfg       *config.Config
	logger    *zap.Logger
	stdout    io.Writer
	stderr    io.Writer
	newLogger func(verbose bool) (*zap.Logger, error)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr, newLogger: logging.New}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newApp(os.Stdout, os.Stderr), os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, a *app, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitErr
	if errors.As(err, &ee) {
		fmt.Fprintln(a.stderr, "Error:", ee.msg)
		return ee.code
	}
	fmt.Fprintln(a.stderr, "Error:", err)
	return 1
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "standards",
		Short:         "Generate documentation from guidelines, profiles and rulesets",
		Long:          "Standards composes guideline fragments into profile documents, renders TOML rulesets as markdown, and builds an MkDocs or Hugo documentation site.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd.Context(), generate.AllTargets...)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return codeError(3, "invalid flags: %s", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.root, "root", "", "Repository root (default: current directory)")
	pf.StringVar(&a.flags.configPath, "config", "", "Config file (default: <root>/"+config.ProjectConfigFile+")")
	pf.StringVar(&a.flags.out, "out", "", "Output directory, relative to the root")
	pf.StringVar(&a.flags.mode, "mode", "", "Site mode: mkdocs or hugo")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.generateCmd("all", "Generate profiles, rulesets and the documentation site", generate.AllTargets...),
		a.generateCmd(string(generate.TargetProfiles), "Compose profile documents", generate.TargetProfiles),
		a.generateCmd(string(generate.TargetRulesets), "Render ruleset documentation", generate.TargetRulesets),
		a.generateCmd(string(generate.TargetSite), "Build the documentation site", generate.TargetSite),
		a.checkCmd(),
		a.watchCmd(),
		a.previewCmd(),
		a.listCmd(),
		a.configCmd(),
	)
	return root
}

// setup builds the logger and the effective configuration.
func (a *app) setup() error {
	logger, err := a.newLogger(a.flags.verbose)
	if err != nil {
		return codeError(1, "%s", err)
	}
	a.logger = logger

	overrides := &config.Config{}
	overrides.Paths.Output = a.flags.out
	overrides.Site.Mode = strings.ToLower(strings.TrimSpace(a.flags.mode))

	cfg, err := config.NewLoader(logger).Load(a.flags.root, a.flags.configPath, overrides)
	if err != nil {
		return codeError(3, "loading config: %s", err)
	}
	a.cfg = cfg
	return nil
}

func (a *app) generateCmd(use, short string, targets ...generate.Target) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd.Context(), targets...)
		},
	}
}

func (a *app) runGenerate(ctx context.Context, targets ...generate.Target) error {
	g := generate.New(a.cfg, a.logger)
	res, err := g.Generate(ctx, targets...)
	if err != nil {
		return loadError(err)
	}
	written, err := g.Write(res.Files)
	if err != nil {
		return codeError(1, "%s", err)
	}
	a.logger.Info("Generation complete",
		zap.Int("files", len(res.Files)),
		zap.Int("written", written),
		zap.Int("diagnostics", len(res.Diagnostics)),
	)
	return nil
}

func (a *app) checkCmd() *cobra.Command {
	var (
		format string
		diffs  bool
	)
	cmd := &cobra.Command{
		Use:   "check [target...]",
		Short: "Report generated files that are stale, missing or orphaned",
		Long:  "Check regenerates in memory and compares the result with the output directory. It exits with code 2 when anything has drifted.",
		ValidArgs: []string{
			string(generate.TargetProfiles),
			string(generate.TargetRulesets),
			string(generate.TargetSite),
		},
		Args: cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json":
			default:
				return codeError(3, "invalid flags: --format must be text or json, got %q", format)
			}

			targets := generate.AllTargets
			if len(args) > 0 {
				targets = nil
				for _, arg := range args {
					targets = append(targets, generate.Target(arg))
				}
			}
			dirs := make([]string, len(targets))
			for i, t := range targets {
				dirs[i] = t.Dir()
			}

			res, err := generate.New(a.cfg, a.logger).Generate(cmd.Context(), targets...)
			if err != nil {
				return loadError(err)
			}
			report, err := drift.Check(a.cfg.OutputDir(), res.Files, dirs...)
			if err != nil {
				return codeError(1, "%s", err)
			}

			if format == "json" {
				err = report.WriteJSON(a.stdout)
			} else {
				err = report.WriteText(a.stdout, diffs)
			}
			if err != nil {
				return codeError(1, "writing report: %s", err)
			}
			if !report.Clean() {
				return codeError(2, "%d generated files out of date; run \"standards\" to update", len(report.Entries))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&diffs, "diff", true, "Include diffs of stale files in text output")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var debounce int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate everything when inputs change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.runGenerate(ctx, generate.AllTargets...); err != nil {
				return err
			}
			inputs := a.inputs()
			dirs := make([]string, len(inputs))
			for i, in := range inputs {
				dirs[i] = in.dir
			}
			w := watch.New(dirs,
				watch.WithDebounce(time.Duration(debounce)*time.Millisecond),
				watch.WithIgnore(a.cfg.OutputDir()),
				watch.WithFilter(func(p string) bool { return matchesInput(inputs, p) }),
				watch.WithLogger(a.logger),
			)
			err := w.Run(ctx, func(ctx context.Context) error {
				return a.runGenerate(ctx, generate.AllTargets...)
			})
			if err != nil {
				return codeError(3, "%s", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&debounce, "debounce", int(watch.DefaultDebounce.Milliseconds()), "Quiet period in milliseconds before regenerating")
	return cmd
}

type input struct {
	dir     string
	pattern string
}

func (a *app) inputs() []input {
	return []input{
		{a.cfg.GuidelinesDir(), a.cfg.Patterns.Guidelines},
		{a.cfg.ProfilesDir(), a.cfg.Patterns.Profiles},
		{a.cfg.RulesetsDir(), a.cfg.Patterns.Rulesets},
	}
}

// matchesInput reports whether p is a file one of the input patterns discovers.
func matchesInput(inputs []input, p string) bool {
	for _, in := range inputs {
		rel, err := filepath.Rel(in.dir, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if source.Match(in.pattern, rel) {
			return true
		}
	}
	return false
}

func (a *app) previewCmd() *cobra.Command {
	var (
		raw   bool
		width int
	)
	cmd := &cobra.Command{
		Use:   "preview <profile-id>",
		Short: "Render a composed profile in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := generate.New(a.cfg, a.logger)
			in, diags, err := g.Load(cmd.Context(), generate.TargetProfiles)
			if err != nil {
				return loadError(err)
			}
			logging.Diagnostics(a.logger, diags)

			p, err := profile.Get(in.Profiles, args[0])
			if err != nil {
				return codeError(3, "%s", err)
			}
			files, diags, err := generate.Profiles([]*profile.Profile{p}, in.Guidelines)
			if err != nil {
				return codeError(1, "%s", err)
			}
			logging.Diagnostics(a.logger, diags)
			doc := string(files[0].Content)

			if raw {
				_, err = io.WriteString(a.stdout, doc)
				return err
			}
			r, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return codeError(1, "creating terminal renderer: %s", err)
			}
			out, err := r.Render(doc)
			if err != nil {
				return codeError(1, "rendering preview: %s", err)
			}
			_, err = io.WriteString(a.stdout, out)
			return err
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the markdown without terminal styling")
	cmd.Flags().IntVar(&width, "width", 100, "Word wrap width")
	return cmd
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the guideline corpus in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g := generate.New(a.cfg, a.logger)
			in, diags, err := g.Load(cmd.Context(), generate.TargetSite)
			if err != nil {
				return loadError(err)
			}
			logging.Diagnostics(a.logger, diags)

			rows := [][]string{{"ID", "TITLE", "CATEGORY", "PRIORITY", "TAGS"}}
			for _, f := range in.Guidelines.Sorted() {
				rows = append(rows, []string{f.ID, f.Title, f.Category, strconv.Itoa(f.Priority), strings.Join(f.Tags, ", ")})
			}
			_, err = io.WriteString(a.stdout, formatTable(rows))
			return err
		},
	}
}

// formatTable aligns rows into columns; the first row is the header.
func formatTable(rows [][]string) string {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var sb strings.Builder
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			style := lipgloss.NewStyle()
			switch {
			case r == 0:
				style = headerStyle
			case i == 0:
				style = idStyle
			case i == len(row)-1:
				style = mutedStyle
			}
			if i < len(row)-1 {
				style = style.Width(widths[i] + 2)
			}
			cells[i] = style.Render(cell)
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, ""), " ") + "\n")
	}
	return sb.String()
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return codeError(1, "%s", err)
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
}
