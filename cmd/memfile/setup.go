package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"tractor.dev/toolkit-go/engine/cli"

	"tractor.dev/memfile/internal/slogger"
	"tractor.dev/memfile/interpose"
	"tractor.dev/memfile/vfs"
)

// options are the flags shared by every command.
type options struct {
	debug    bool
	include  string
	exclude  string
	snapshot string
}

func (o *options) register(cmd *cli.Command) {
	cmd.Flags().BoolVar(&o.debug, "debug", false, "Log every file operation")
	cmd.Flags().StringVar(&o.include, "log-include", "", "Comma separated attr patterns a log line must match, e.g. name=/tmp/*")
	cmd.Flags().StringVar(&o.exclude, "log-exclude", "", "Comma separated attr patterns that drop a log line, e.g. err=*")
	cmd.Flags().StringVar(&o.snapshot, "from", "", "Load virtual files from a snapshot before preloading")
}

func splitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (o *options) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	logger, err := slogger.New(os.Stderr, slogger.HandlerOptions{
		Level:   level,
		Include: splitPatterns(o.include),
		Exclude: splitPatterns(o.exclude),
	})
	fatal(err)
	return logger
}

// setup builds the interposer, restores the snapshot if one was given, and
// preloads names from the host. Interrupting a preload aborts it without
// registering anything.
func (o *options) setup(names []string) (*interpose.FS, *slog.Logger) {
	logger := o.logger()

	virt := vfs.New()
	virt.SetLogger(logger)
	ifs := interpose.New(virt, nil)
	ifs.SetLogger(logger)

	if o.snapshot != "" {
		f, err := os.Open(o.snapshot)
		fatal(err)
		err = virt.Import(f)
		f.Close()
		fatal(err)
		logger.Info("restored", "snapshot", o.snapshot, "files", virt.Registry().Len())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	for _, name := range names {
		n, err := ifs.Preload(ctx, name)
		if errors.Is(err, context.Canceled) {
			fatal(errors.New("preload interrupted"))
		}
		fatal(err)
		logger.Info("preloaded", "name", n.Name(), "size", n.Size())
	}
	return ifs, logger
}

// waitInterrupt blocks until the process receives SIGINT.
func waitInterrupt() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	<-ctx.Done()
}
