// Package main is the entry point for the finalizer CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jacksmith/finalizer/internal/cli"
	"github.com/jacksmith/finalizer/internal/logging"
	"github.com/jacksmith/finalizer/internal/model"
	"github.com/jacksmith/finalizer/internal/msi"
	"github.com/jacksmith/finalizer/internal/ops"
	"github.com/jacksmith/finalizer/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// requiredArgs is the number of positional arguments: log file, SDK version
// and platform.
const requiredArgs = 3

func main() {
	runMain(os.Args, os.Stdout, os.Stderr, os.Exit)
}

// options holds flag values for one invocation.
type options struct {
	configPath string
	storeFile  string
	summary    bool
}

// outcome is filled in by the root command so the caller can pick the exit
// code.
type outcome struct {
	rebootRequired bool
}

// runMain executes the CLI and exits with the code for its outcome.
func runMain(args []string, stdout, stderr io.Writer, exit func(int)) {
	rebootRequired, err := execute(args, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, cli.FormatError(err))
	}
	exit(cli.ExitCode(rebootRequired, err))
}

// execute runs the root command with args (including the program name).
func execute(args []string, stdout, stderr io.Writer) (bool, error) {
	var out outcome
	cmd := newRootCmd(&out)
	if len(args) > 1 {
		cmd.SetArgs(args[1:])
	} else {
		cmd.SetArgs([]string{})
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	return out.rebootRequired, err
}

func newRootCmd(out *outcome) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "finalizer <log-file> <sdk-version> <platform>",
		Short: "finalizer - clean up after an SDK uninstall",
		Long: `finalizer removes machine-wide registrations left behind after an SDK
package is uninstalled: the SDK's dependent registration on shared workload
packs (removing packs nothing else depends on), its workload records and its
workload install state file.

Nothing is removed while another SDK in the same feature band is installed.
It is safe to run more than once.

Exit codes:
  0     success
  3010  success, a reboot is required
  1639  invalid command line
  13    invalid SDK version`,
		Version:       Version,
		Args:          validateArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts, out)
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetVersionTemplate("finalizer version {{.Version}}\n")

	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&opts.storeFile, "store", "", "use an offline store snapshot instead of the registry and Windows Installer")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print a summary of each step")

	return cmd
}

func validateArgs(cmd *cobra.Command, args []string) error {
	if len(args) < requiredArgs {
		return &cli.InvalidCommandLineError{Got: len(args), Want: requiredArgs}
	}
	for i, field := range []string{"log file", "version", "platform"} {
		if strings.TrimSpace(args[i]) == "" {
			return &cli.ValidationError{Field: field, Message: "must not be empty"}
		}
	}
	return nil
}

func run(cmd *cobra.Command, args []string, opts options, out *outcome) error {
	logFile, err := logging.Open(args[0])
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := logFile.Close(); closeErr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatError(closeErr))
		}
	}()

	log := logFile.Logger()
	version, platform := args[1], args[2]
	log.Info("Starting", "version", version, "platform", platform)

	cfg, err := storage.LoadConfig(opts.configPath)
	if err != nil {
		log.Error("Failed to load config", "error", err)
		return err
	}
	if cmd.Flags().Changed("store") {
		cfg.StoreFile = opts.storeFile
	}
	if cmd.Flags().Changed("summary") {
		cfg.Summary = opts.summary
	}

	f, err := newFinalizer(cfg, log)
	if err != nil {
		log.Error("Failed to initialize", "error", err)
		return err
	}

	report, err := f.Run(version, platform)
	out.rebootRequired = report.RebootRequired
	if errors.Is(err, model.ErrInvalidVersionFormat) {
		err = &cli.ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("%q is not a valid SDK version", version),
			Err:     err,
		}
	}

	if cfg.Summary {
		w := cmd.OutOrStdout()
		cli.EnableColorFor(w)
		renderSummary(w, report)
	}

	log.Info("Exiting", "code", cli.ExitCode(report.RebootRequired, err))
	return err
}

// newFinalizer wires the store and installer selected by cfg.
func newFinalizer(cfg *storage.Config, log *slog.Logger) (*ops.Finalizer, error) {
	appData, err := cfg.ResolveCommonAppData()
	if err != nil {
		return nil, err
	}

	f := &ops.Finalizer{
		Logger:        log,
		CommonAppData: appData,
		ProductDir:    cfg.ProductDir,
		Namespace:     cfg.ProductNamespace,
	}

	if cfg.StoreFile != "" {
		snapshot, err := storage.OpenSnapshot(cfg.StoreFile)
		if err != nil {
			return nil, err
		}
		catalog, err := msi.OpenCatalog(cfg.StoreFile)
		if err != nil {
			return nil, err
		}
		log.Info("Using store snapshot", "path", cfg.StoreFile)
		f.Store = snapshot
		f.Engine = catalog
		return f, nil
	}

	if f.Store, err = storage.Native(storage.ViewDefault); err != nil {
		return nil, err
	}
	// Installed SDK versions are recorded by a 32-bit installer.
	if f.SDKStore, err = storage.Native(storage.View32); err != nil {
		return nil, err
	}
	if f.Engine, err = msi.NewNative(); err != nil {
		return nil, err
	}
	return f, nil
}
