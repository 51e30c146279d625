package main

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
	"tractor.dev/toolkit-go/engine/cli"

	"tractor.dev/memfile/interpose"
)

func catCmd() *cli.Command {
	var opts options
	var direct bool
	var forceHex bool

	cmd := &cli.Command{
		Usage: "cat <file>...",
		Short: "preload files into memory and print them through the interposer",
		Run: func(ctx *cli.Context, args []string) {
			if len(args) == 0 {
				fatal(errUsage("cat"))
			}
			var preload []string
			if !direct {
				preload = args
			}
			ifs, _ := opts.setup(preload)
			for _, name := range args {
				data, err := readFd(ifs, name)
				fatal(err)
				fatal(printData(os.Stdout, data, forceHex))
			}
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVar(&direct, "direct", false, "Read from the host without preloading")
	cmd.Flags().BoolVar(&forceHex, "hex", false, "Always print a hex dump")
	return cmd
}

// readFd reads name through a descriptor the way an intercepted program
// would.
func readFd(ifs *interpose.FS, name string) ([]byte, error) {
	fd, err := ifs.OpenFd(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer ifs.Close(fd)

	var buf bytes.Buffer
	p := make([]byte, 32*1024)
	for {
		n, err := ifs.Read(fd, p)
		buf.Write(p[:n])
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// printData writes data as is, or as a hex dump when asked to or when
// binary content would otherwise land on a terminal.
func printData(f *os.File, data []byte, forceHex bool) error {
	if forceHex || (term.IsTerminal(int(f.Fd())) && !utf8.Valid(data)) {
		d := hex.Dumper(f)
		if _, err := d.Write(data); err != nil {
			return err
		}
		return d.Close()
	}
	_, err := f.Write(data)
	return err
}
