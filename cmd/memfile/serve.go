package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/u-root/uio/ulog"
	"tractor.dev/toolkit-go/engine/cli"

	"tractor.dev/memfile/fs/davfs"
	"tractor.dev/memfile/fs/p9kit"
)

func serveCmd() *cli.Command {
	var opts options
	var addr, addr9p string

	cmd := &cli.Command{
		Usage: "serve [file]...",
		Short: "preload files and serve the virtual files over WebDAV and optionally 9P",
		Run: func(ctx *cli.Context, args []string) {
			ifs, logger := opts.setup(args)

			runCtx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if addr9p != "" {
				l, err := net.Listen("tcp", addr9p)
				if err != nil {
					fatal(err)
				}
				var trace ulog.Logger
				if opts.debug {
					trace = ulog.Log
				}
				logger.Info("serving 9p", "addr", l.Addr().String())
				go func() {
					if err := p9kit.Serve(runCtx, l, ifs.Virtual(), logger, trace); err != nil {
						logger.Error("9p server stopped", "err", err)
					}
				}()
			}

			srv := &http.Server{
				Addr:    addr,
				Handler: davfs.Handler(ifs.Virtual(), logger),
			}
			go func() {
				waitInterrupt()
				cancel()
				shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
				defer stop()
				srv.Shutdown(shutdownCtx)
			}()

			logger.Info("serving", "addr", "http://"+addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				fatal(err)
			}
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "localhost:7654", "Address to listen on")
	cmd.Flags().StringVar(&addr9p, "9p", "", "Also serve 9P2000.L on this address")
	return cmd
}
