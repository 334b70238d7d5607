package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/simp-lee/epubnav/config"
	"github.com/simp-lee/epubnav/state"
)

// version is set at build time.
var version = "dev"

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		env.Cfg.Logging.ConsoleLogger.Level = "debug"
	}
	log, err := env.Cfg.Logging.Prepare()
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.UseLogger(log)

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", version), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	env.Shutdown()

	// remove empty panic file if any, errors go directly to stderr from now on
	if env.Cfg != nil && env.Cfg.Logging.FileLogger.Level != "none" && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := config.PanicLogName(env.Cfg.Logging.FileLogger.Destination)
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// Subcommands return regular errors, cli.Exit is not used.
var errWasHandled bool

// called before appContext is destroyed, so the error can still be logged
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := state.EnvFromContext(ctx)
	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Logger().Warn("Unknown command, nothing to do", zap.String("command", name))
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            config.AppName,
		Usage:           "navigates and paginates EPUB reading order",
		Version:         version + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log debug messages to console"},
		},
		Commands: []*cli.Command{
			{
				Name:         "toc",
				Usage:        "Prints table of contents and reading order",
				OnUsageError: usageErrorHandler,
				Action:       runTOC,
				ArgsUsage:    "BOOK",
			},
			{
				Name:         "walk",
				Usage:        "Walks reading order section by section from a starting point",
				OnUsageError: usageErrorHandler,
				Action:       runWalk,
				ArgsUsage:    "BOOK",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "start at section `HREF` (default: first in reading order)"},
					&cli.IntFlag{Name: "offset", Value: 1, Usage: "spine `STEP` between visited sections, negative walks backward"},
				},
			},
			{
				Name:         "read",
				Usage:        "Pages through the book on a simulated surface",
				OnUsageError: usageErrorHandler,
				Action:       runRead,
				ArgsUsage:    "BOOK",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "open section `HREF` (default: first in reading order)"},
					&cli.StringFlag{Name: "toc", Usage: "jump to TOC entry `ID` after opening"},
					&cli.FloatFlag{Name: "scale", Usage: "rescale text to `RATIO` after opening"},
					&cli.IntFlag{Name: "pages", Value: 10, Usage: "turn `N` pages, negative turns backward"},
					&cli.StringFlag{Name: "events", Usage: "replay touch events from `FILE` (JSON lines) instead of turning pages"},
				},
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deferred functions after that
	defer func() {
		stop()
		if err != nil {
			// log may be not set yet or already closed
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		data []byte
		kind string
	)

	out := cmd.Root().Writer
	if len(fname) > 0 {
		f, er := os.Create(fname)
		if er != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, er)
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		out = f
	}

	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		kind = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Debug("Outputting configuration", zap.String("state", kind), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
