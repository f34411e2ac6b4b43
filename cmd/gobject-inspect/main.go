package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/gobject-runtime/abi"
	"github.com/wippyai/gobject-runtime/file"
	"github.com/wippyai/gobject-runtime/gtype"
	"github.com/wippyai/gobject-runtime/mainloop"
	"github.com/wippyai/gobject-runtime/object"
	"github.com/wippyai/gobject-runtime/signal"
	"github.com/wippyai/gobject-runtime/task"
)

func main() {
	var (
		typeName    = flag.String("type", "", "Show details of a registered type")
		path        = flag.String("path", "", "Describe a path through the GFile interface")
		exports     = flag.Bool("exports", false, "List the functions of the wasm host module")
		interactive = flag.Bool("i", false, "Interactive type browser")
		verbose     = flag.Bool("v", false, "Log runtime events to stderr")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()
		setLoggers(logger)
	}
	registerBuiltins()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), *typeName, *path, *exports); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, typeName, path string, exports bool) error {
	var (
		out string
		err error
	)
	switch {
	case typeName != "":
		out, err = renderType(typeName)
	case path != "":
		out, err = renderPath(ctx, path)
	case exports:
		out, err = renderExports(ctx)
	default:
		out = renderTree()
	}
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func setLoggers(l *zap.Logger) {
	gtype.SetLogger(l.Named("gtype"))
	object.SetLogger(l.Named("object"))
	signal.SetLogger(l.Named("signal"))
	mainloop.SetLogger(l.Named("mainloop"))
	task.SetLogger(l.Named("task"))
	file.SetLogger(l.Named("file"))
	abi.SetLogger(l.Named("abi"))
}
