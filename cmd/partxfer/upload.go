package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	transfer "github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/progress"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/transfertypes"
)

// stdinPath reads the upload from standard input.
const stdinPath = "-"

func newUploadCommand(a *app) *cobra.Command {
	var (
		name         string
		mediaType    string
		keepOpen     bool
		wait         bool
		noMmap       bool
		partSize     string
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "upload LOCAL_PATH|-",
		Short: "Upload a local file or standard input as a new remote file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			opts := []transfertypes.UploadOption{
				transfer.WithName(name),
				transfer.WithMediaType(mediaType),
				transfer.WithKeepOpen(keepOpen),
				transfer.WithWaitOnClose(wait),
				transfer.WithMemoryMap(!noMmap),
			}
			if partSize != "" {
				size, err := humanize.ParseBytes(partSize)
				if err != nil {
					return fmt.Errorf("invalid --part-size %q: %w", partSize, err)
				}
				opts = append(opts, transfer.WithUploadPartSize(int64(size)))
			}
			if showProgress {
				label := name
				if label == "" && path != stdinPath {
					label = filepath.Base(path)
				}
				opts = append(opts, transfer.WithUploadProgress(progress.NewReporter(a.stderr, label)))
			}

			var (
				file *transfertypes.RemoteFile
				err  error
			)
			if path == stdinPath {
				file, err = a.client.Upload(cmd.Context(), a.stdin, opts...)
			} else {
				file, err = a.client.UploadFile(cmd.Context(), path, opts...)
			}
			if err != nil {
				return err
			}

			a.logger.Info("upload complete",
				"file_id", file.ID,
				"parts", file.Parts,
				"size", file.Size,
				"state", file.State.String())
			fmt.Fprintln(a.stdout, file.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&name, "name", "n", "", "remote file name (default: base name of LOCAL_PATH)")
	flags.StringVar(&mediaType, "media-type", "", "media type (default: detected)")
	flags.BoolVar(&keepOpen, "keep-open", false, "leave the remote file open for further appends")
	flags.BoolVar(&wait, "wait", false, "wait until the remote file is closed")
	flags.BoolVar(&noMmap, "no-mmap", false, "read the file sequentially instead of memory mapping it")
	flags.StringVar(&partSize, "part-size", "", "upload part size, e.g. 16MiB (default: calculated)")
	flags.BoolVar(&showProgress, "progress", false, "show progress on stderr")
	return cmd
}
