package main

import (
	"fmt"
	"os"

	"github.com/javiermolinar/rota/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Configuration is loaded from --config before the command runs
	app := ui.NewApp(nil, nil)
	defer func() { _ = app.Close() }()
	return app.Execute()
}
