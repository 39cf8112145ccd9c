// Command nnp-comp compiles NilNovi (NNP) source into the stack-VM
// instruction text format of spec.md §6.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nilnovi/nnp/internal/compiler"
	"github.com/nilnovi/nnp/internal/config"
	"github.com/nilnovi/nnp/internal/identtable"
)

var (
	outPath        string
	debug          bool
	showIdentTable bool
	configPath     string
	jsonLogs       bool
)

func main() {
	root := &cobra.Command{
		Use:           "nnp-comp <source>",
		Short:         "Compile NilNovi source to a stack-VM instruction stream",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().StringVarP(&outPath, "output", "o", "", "write instructions to this file instead of stdout")
	root.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	root.Flags().BoolVar(&showIdentTable, "show-ident-table", false, "print the identifier table to stderr after compiling")
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

	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("nnp-comp: %w", err)
	}

	sugar.Infow("compiling", "source", args[0])
	comp := compiler.New(string(source))
	comp.SetLogger(sugar)
	prog, table, err := comp.Compile()
	if err != nil {
		printDiagnostic(cfg, err)
		return err
	}
	sugar.Infow("compiled", "instructions", prog.Len())

	output := prog.Serialize()
	if outPath == "" {
		fmt.Fprint(os.Stdout, output)
	} else if err := os.WriteFile(outPath, []byte(output), 0o644); err != nil {
		return fmt.Errorf("nnp-comp: %w", err)
	}

	if showIdentTable {
		for _, e := range table.Entries() {
			fmt.Fprintln(os.Stderr, describeEntry(e))
		}
	}
	return nil
}

func describeEntry(e identtable.Entry) string {
	switch v := e.(type) {
	case *identtable.VariableEntry:
		return fmt.Sprintf("variable %s : %s (addr=%d in=%v out=%v)", v.Name, v.Type, v.Address, v.InStatus, v.OutStatus)
	case *identtable.CallableEntry:
		kind := "procedure"
		if v.IsFunction() {
			kind = "function"
		}
		return fmt.Sprintf("%s %s (addr=%d)", kind, v.Name, v.Address)
	default:
		return e.EntryName()
	}
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
