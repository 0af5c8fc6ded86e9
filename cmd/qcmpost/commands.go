package main

import (
	"github.com/cgviz/qcmpost/internal/archive"
	"github.com/cgviz/qcmpost/internal/collect"
	"github.com/cgviz/qcmpost/internal/summary"
	"github.com/spf13/cobra"
)

func (a *app) collectOptions() collect.Options {
	return collect.Options{
		Pretty:    a.cfg.Pretty,
		Processed: a.cfg.ProcessedDir,
		Logger:    a.logger,
	}
}

func newCollectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collect <dir>",
		Short: "Merge pov and trace files into <dir>/processed",
		Long: `Merges every qcmPov.*.json and qcmTrace.*.json file directly in <dir>.
The merged files are written to <dir>/processed, which must not exist yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return collect.ProcessAll(args[0], a.collectOptions())
		},
	}
}

func newArchiveCmd(a *app) *cobra.Command {
	var dest string
	cmd := &cobra.Command{
		Use:   "archive <dir>",
		Short: "Zip the raw files of <dir>, then replace them with merged files",
		Long: `Moves every file of <dir> into <dir>/raw and zips it. Then it merges the pov
and trace files into <dir>, copies the KPI and geometry files back, and removes
<dir>/raw.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dest == "" {
				dest = a.cfg.Archive
			}
			return archive.ProcessAll(args[0], archive.Options{
				RawDir:    a.cfg.RawDir,
				Archive:   dest,
				Auxiliary: a.cfg.Auxiliary,
				Collect:   a.collectOptions(),
				Logger:    a.logger,
			})
		},
	}
	cmd.Flags().StringVar(&dest, "archive", "", "zip destination (default from config, raw.zip)")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <dir>",
		Short: "Print trace power ranges and pov counts of merged files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := summary.Build(args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(rep.JSON())
			return err
		},
	}
}
