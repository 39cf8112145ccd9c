// Command nnp-exec runs the stack-VM instruction text format of
// spec.md §6, optionally stepped ("-s") or with a live dashboard
// ("-b").
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nilnovi/nnp/internal/code"
	"github.com/nilnovi/nnp/internal/config"
	"github.com/nilnovi/nnp/internal/dashboard"
	"github.com/nilnovi/nnp/internal/nnperr"
	"github.com/nilnovi/nnp/internal/vm"
)

var (
	debug      bool
	stepped    bool
	boardMode  bool
	configPath string
	jsonLogs   bool
)

func main() {
	root := &cobra.Command{
		Use:           "nnp-exec <instructions>",
		Short:         "Execute a compiled NilNovi instruction stream",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	root.Flags().BoolVarP(&stepped, "step", "s", false, "stepped execution: wait for input between instructions")
	root.Flags().BoolVarP(&boardMode, "board", "b", false, "show a live stack/instruction dashboard")
	root.Flags().StringVar(&configPath, "config", "", "path to a TOML configuration file")
	root.Flags().BoolVar(&jsonLogs, "json-logs", false, "emit structured JSON logs instead of human-readable ones")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(jsonLogs, debug)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	sugar := logger.Sugar()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("nnp-exec: %w", err)
	}
	defer f.Close()

	instructions, err := code.Parse(bufio.NewScanner(f))
	if err != nil {
		return fmt.Errorf("nnp-exec: %w", err)
	}
	sugar.Infow("loaded", "instructions", len(instructions))

	machine := vm.New(instructions, os.Stdin, os.Stdout)
	machine.SetMaxStack(cfg.Stack.Size)
	machine.SetLogger(sugar)

	var runErr error
	switch {
	case boardMode:
		runErr = dashboard.Run(machine)
	case stepped:
		runErr = runStepped(machine)
	default:
		runErr = machine.Run()
	}

	if runErr != nil && !errors.Is(runErr, nnperr.ErrHalted) {
		printDiagnostic(cfg, runErr)
		return runErr
	}
	sugar.Infow("halted")
	return nil
}

// runStepped implements "-s": Enter single-steps, "c" free-runs to
// completion, "q" aborts.
func runStepped(machine *vm.VM) error {
	rl, err := readline.New("(nnp-exec) ")
	if err != nil {
		return err
	}
	defer rl.Close()

	freeRun := false
	for !machine.Done() {
		if !freeRun {
			line, err := rl.Readline()
			if err != nil {
				return err
			}
			switch strings.TrimSpace(line) {
			case "q":
				return nil
			case "c":
				freeRun = true
			}
		}

		instr, err := machine.Step()
		fmt.Fprintf(os.Stderr, "co=%d base=%d %s\n", machine.CO(), machine.Base(), instr)
		if err != nil {
			return err
		}
	}
	return nnperr.ErrHalted
}

func newLogger(jsonLogs, debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if jsonLogs {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func printDiagnostic(cfg *config.Config, err error) {
	msg := err.Error()
	if cfg.Output.Color && isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintln(os.Stderr, color.RedString(msg))
		return
	}
	fmt.Fprintln(os.Stderr, msg)
}
