package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/brickguide/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	prefsPath := flag.String("prefs", "", "override preferences path (optional)")
	imagePath := flag.String("image", "", "image to analyze (optional)")
	useSample := flag.Bool("sample", false, "start with the bundled sample guide")
	analyze := flag.Bool("analyze", false, "start an analysis immediately")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath:     *configPath,
		PrefsPath:      *prefsPath,
		ImagePath:      *imagePath,
		Sample:         *useSample,
		AnalyzeOnStart: *analyze,
	}
	if opts.ImagePath == "" && flag.NArg() > 0 {
		opts.ImagePath = flag.Arg(0)
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "brickguide: %v\n", err)
		return 1
	}
	return 0
}
