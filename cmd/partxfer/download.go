package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	transfer "github.com/input-output-hk/catalyst-forge-libs/transfer"
)

func newDownloadCommand(a *app) *cobra.Command {
	var (
		appendMode      bool
		showProgress    bool
		workers         int
		exitOnInterrupt bool
	)

	cmd := &cobra.Command{
		Use:   "download FILE_ID LOCAL_PATH",
		Short: "Download a remote file, resuming a partial local copy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.client.Download(cmd.Context(), args[0], args[1],
				transfer.WithAppend(appendMode),
				transfer.WithShowProgress(showProgress),
				transfer.WithDownloadWorkers(workers),
				transfer.WithExitOnInterrupt(exitOnInterrupt),
			)
			if err != nil {
				return err
			}

			a.logger.Info("download complete",
				"file_id", result.FileID,
				"path", result.Path,
				"parts", result.Parts,
				"parts_resumed", result.PartsResumed,
				"duration", result.Duration)
			fmt.Fprintf(a.stdout, "%s: %s (%s fetched)\n",
				result.Path, humanize.IBytes(uint64(result.Size)), humanize.IBytes(uint64(result.BytesFetched)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&appendMode, "append", false, "append to the local file instead of resuming it")
	flags.BoolVar(&showProgress, "progress", true, "show progress on stderr")
	flags.IntVarP(&workers, "workers", "w", 0, "concurrent part fetches (default: transfer.workers or CPU count)")
	flags.BoolVar(&exitOnInterrupt, "exit-on-interrupt", true, "exit immediately with status 74 on Ctrl-C")
	return cmd
}
