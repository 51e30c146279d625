package main

import (
	"tractor.dev/toolkit-go/engine/cli"

	"tractor.dev/memfile/fs/fusekit"
)

func mountCmd() *cli.Command {
	var opts options
	var path string

	cmd := &cli.Command{
		Usage: "mount [file]...",
		Short: "preload files and mount the virtual files with FUSE",
		Run: func(ctx *cli.Context, args []string) {
			ifs, logger := opts.setup(args)

			mount, err := fusekit.Mount(ifs.Virtual(), path, logger)
			fatal(err)
			defer func() {
				if err := mount.Close(); err != nil {
					logger.Error("unmount", "path", path, "err", err)
				}
			}()

			logger.Info("mounted", "path", path)
			waitInterrupt()
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&path, "path", "/tmp/memfile", "Mountpoint")
	return cmd
}
