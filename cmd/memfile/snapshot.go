package main

import (
	"errors"
	"fmt"
	"os"

	"tractor.dev/toolkit-go/engine/cli"
)

func errUsage(cmd string) error {
	return fmt.Errorf("%s: missing file arguments", cmd)
}

func snapshotCmd() *cli.Command {
	var opts options
	var out string

	cmd := &cli.Command{
		Usage: "snapshot <file>...",
		Short: "preload files and write them to a CBOR snapshot",
		Run: func(ctx *cli.Context, args []string) {
			if len(args) == 0 && opts.snapshot == "" {
				fatal(errUsage("snapshot"))
			}
			if out == "" {
				fatal(errors.New("snapshot: --out is required"))
			}
			ifs, logger := opts.setup(args)

			f, err := os.Create(out)
			fatal(err)
			if err := ifs.Virtual().Export(f); err != nil {
				f.Close()
				fatal(err)
			}
			fatal(f.Close())
			logger.Info("wrote snapshot", "path", out, "files", ifs.Virtual().Registry().Len())
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Snapshot file to write")
	return cmd
}
