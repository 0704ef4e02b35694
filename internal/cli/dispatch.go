// Package cli parses the command line and dispatches to registered commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"taskmgr/internal/commands"
	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/logging"
	"taskmgr/internal/service"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// ConfigLoader builds the Config for a config directory.
type ConfigLoader func(dir string) (*config.Config, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry   *commands.Registry
	factory    ServiceFactory
	loadConfig ConfigLoader
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		factory:    factory,
		loadConfig: config.Load,
	}
}

// SetConfigLoader replaces config.Load (for testing).
func (d *Dispatcher) SetConfigLoader(l ConfigLoader) {
	d.loadConfig = l
}

// globalFlags are accepted by every command.
type globalFlags struct {
	configDir string
	apiURL    string
	quiet     bool
	debug     bool
}

// Run parses arguments and dispatches to the appropriate command.
// With no arguments the list command runs. Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	code := exitcode.Success
	root := d.buildRoot(&code, out, errOut)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return code
}

func (d *Dispatcher) buildRoot(code *int, out, errOut io.Writer) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Manage tasks on a task board",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetHelpFunc(func(*cobra.Command, []string) {
		commands.WriteHelp(out, d.registry)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config", "", "override config directory")
	pf.StringVar(&flags.apiURL, "api-url", "", "override the API base URL")
	pf.BoolVar(&flags.quiet, "quiet", false, "suppress informational output")
	pf.BoolVar(&flags.debug, "debug", false, "print debug logs to stderr")

	for _, c := range d.registry.All() {
		c := c
		cc := &cobra.Command{
			Use:     c.Name(),
			Aliases: c.Aliases(),
			Short:   c.Synopsis(),
			RunE: func(cmd *cobra.Command, args []string) error {
				*code = d.runCommand(cmd.Context(), c, &flags, args, out, errOut)
				return nil
			},
		}
		c.RegisterFlags(cc.Flags())

		if c.Name() == "help" {
			root.SetHelpCommand(cc)
			continue
		}
		root.AddCommand(cc)
	}

	if list, ok := d.registry.Find("list"); ok {
		root.RunE = func(cmd *cobra.Command, args []string) error {
			*code = d.runCommand(cmd.Context(), list, &flags, args, out, errOut)
			return nil
		}
	}
	return root
}

func (d *Dispatcher) runCommand(ctx context.Context, cmd commands.Command, flags *globalFlags, args []string, out, errOut io.Writer) int {
	cfg, err := d.loadConfig(flags.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = flags.quiet
	cfg.Debug = flags.debug
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := logging.New(errOut, level).With("command", cmd.Name())
	ctx = logging.NewContext(ctx, logger)

	var svc service.Service
	if cmd.NeedsService() {
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend configured")
			return exitcode.BackendError
		}
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			if errors.Is(err, config.ErrTokenFile) {
				fmt.Fprintf(errOut, "error: auth error: %s\n", err)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
		logger.Debug("dispatch", "api", cfg.APIURL)
	}

	return cmd.Run(ctx, cfg, svc, args, out, errOut)
}
