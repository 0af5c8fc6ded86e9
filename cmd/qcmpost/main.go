package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cgviz/qcmpost/internal/config"
	"github.com/cgviz/qcmpost/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what the subcommands share once the root pre-run has loaded it.
type app struct {
	configPath string
	verbose    bool

	// newLogger builds the logger once the flags are parsed. Nil means
	// logging.New.
	newLogger func(verbose bool) (*zap.Logger, error)

	cfg    config.Config
	logger *zap.Logger
}

// execute runs the command line args and flushes the logger whether or not
// the command succeeded.
func (a *app) execute(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(a)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "qcmpost",
		Short: "Merge and archive QCM simulation result files",
		Long: `qcmpost post-processes the output directory of a QCM simulation.

The simulation writes one small JSON file per receiver (qcmPov.<type><id>.json)
and one per transmitter/receiver pair (qcmTrace.<tx>-<rx>.json). qcmpost merges
them into one file per pov type (qcmPov.<type>.json) and one per transmitter
(qcmTrace.<tx>.json), which the viewer loads much faster.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			newLogger := a.newLogger
			if newLogger == nil {
				newLogger = logging.New
			}
			a.logger, err = newLogger(a.verbose)
			return err
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (.jsonc or .yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every input file")

	root.AddCommand(newCollectCmd(a), newArchiveCmd(a), newSummaryCmd(a))
	return root
}

func main() {
	if err := (&app{}).execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
