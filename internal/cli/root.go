package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/itemsubmit/internal/chaintypes"
	"github.com/idilsaglam/itemsubmit/internal/config"
	"github.com/idilsaglam/itemsubmit/internal/i18n"
	"github.com/idilsaglam/itemsubmit/internal/keys"
	"github.com/idilsaglam/itemsubmit/internal/logging"
	"github.com/idilsaglam/itemsubmit/internal/store/jsonstore"
	"github.com/idilsaglam/itemsubmit/internal/submit"
	"github.com/idilsaglam/itemsubmit/internal/tui"
	"github.com/idilsaglam/itemsubmit/internal/ui"
)

var version = "dev" // set by the linker

// Exit codes: 0 ok, 1 error, 2 usage.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, a ...any) error { return usageError{fmt.Sprintf(format, a...)} }

// submitError marks a failed submission so it is reported as
// "Could not submit: ...".
type submitError struct{ err error }

func (e submitError) Error() string { return "submit: " + e.err.Error() }
func (e submitError) Unwrap() error { return e.err }

// App carries what commands share. Tests swap Dial and RunForm.
type App struct {
	Dial    submit.Dialer
	RunForm func(ctx context.Context, svc tui.Submitter, opt tui.Options) error
	Stdin   io.Reader

	cfgFile string
	theme   string
	color   string
	cfg     config.Config
	logFile io.Closer
}

// NewApp returns an App wired to real nodes and the real terminal form.
func NewApp() *App {
	return &App{Dial: submit.ChainDialer, RunForm: tui.Run, Stdin: os.Stdin}
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string) int {
	return NewApp().Execute(context.Background(), args, os.Stdout, os.Stderr)
}

func (a *App) Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	root := a.NewRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	ui.SetOutput(out, errOut)
	defer a.closeLog()

	if err := root.ExecuteContext(ctx); err != nil {
		var se submitError
		if errors.As(err, &se) {
			ui.Fail("Could not submit: " + se.err.Error())
		} else {
			ui.Fail(err.Error())
		}
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(errOut)
			fmt.Fprint(errOut, root.UsageString())
			return ExitUsage
		}
		return ExitError
	}
	return ExitOK
}

// NewRootCmd builds a fresh command tree bound to a.
func (a *App) NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "itemsubmit",
		Short: "Submit an item to a logion collection",
		Long: `itemsubmit adds one item to a logion collection. It signs the
logionLoc.addCollectionItem call with an sr25519 key derived from the signer
URI, submits it to a node over WebSocket RPC and follows its status until the
block holding it is finalized.

Running without a subcommand opens the interactive form.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("unknown subcommand: %s", args[0])
			}
			return nil
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			if a.logFile == nil {
				// keep log lines off the alternate screen
				logging.L.SetOutput(io.Discard)
			}
			return a.RunForm(cmd.Context(), svc, tui.Options{URL: a.cfg.URL, Collection: a.cfg.Collection})
		},
		Version: version,
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error { return usageError{err.Error()} })

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/itemsubmit/itemsubmit.yaml or ./itemsubmit.yaml)")
	pf.String("url", "", "web socket URL of a logion node")
	pf.String("collection", "", "collection ID")
	pf.Uint16("ss58-prefix", 42, "SS58 address format")
	pf.String("types-file", "", "YAML type dictionary merged over the built-in one")
	pf.String("receipts-file", "", "where finalized submissions are recorded")
	pf.Duration("timeout", 0, "give up on a submission after this long; 0 means no limit (default from config, 5m)")
	pf.String("lang", "en", `form language ("en", "fr")`)
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-file", "", "append log lines to this file")
	pf.StringVar(&a.theme, "theme", "classic", "output theme: classic, neon or mono")
	pf.StringVar(&a.color, "color", "auto", "colour output: auto, always or never (NO_COLOR is honoured)")

	cmd.AddCommand(a.newSubmitCmd(), a.newAddressCmd(), a.newTypesCmd(), a.newReceiptsCmd(), a.newInitCmd())
	return cmd
}

func (a *App) setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cmd.Flags(), a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = c
	if c.SS58Prefix > keys.MaxSS58Prefix {
		return usagef("ss58 prefix %d out of range (max %d)", c.SS58Prefix, keys.MaxSS58Prefix)
	}

	var w io.Writer
	if c.Log.File != "" {
		f, err := logging.OpenFile(c.Log.File)
		if err != nil {
			return err
		}
		a.logFile, w = f, f
	} else {
		w = cmd.ErrOrStderr()
	}
	if err := logging.Setup(c.Log.Level, w); err != nil {
		return usageError{err.Error()}
	}

	i18n.Init(c.Language)
	if langs := i18n.Languages(); !slices.Contains(langs, c.Language) {
		return usagef("unsupported language %q (available: %s)", c.Language, strings.Join(langs, ", "))
	}

	switch a.color {
	case "auto":
		ui.SetColorForcing(false, os.Getenv("NO_COLOR") != "")
	case "always":
		ui.SetColorForcing(true, false)
	case "never":
		ui.SetColorForcing(false, true)
	default:
		return usagef("--color must be auto, always or never")
	}
	ui.SetTheme(a.theme)
	return nil
}

func (a *App) closeLog() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func (a *App) receiptsPath() (string, error) {
	if a.cfg.ReceiptsFile != "" {
		return a.cfg.ReceiptsFile, nil
	}
	return jsonstore.DefaultPath()
}

func (a *App) service() (*submit.Service, error) {
	reg, err := chaintypes.Load(a.cfg.TypesFile)
	if err != nil {
		return nil, err
	}
	path, err := a.receiptsPath()
	if err != nil {
		return nil, err
	}
	svc := submit.New(a.Dial)
	svc.Registry = reg
	svc.SS58Prefix = a.cfg.SS58Prefix
	svc.Timeout = a.cfg.Timeout
	svc.Receipts = jsonstore.Store{Path: path}
	return svc, nil
}
