package main

import (
	"fmt"
	"os"

	"github.com/tphakala/pugmark/cmd"
	"github.com/tphakala/pugmark/internal/buildinfo"
)

// buildDate and version are set at build time with -ldflags "-X main.version=..."
var (
	buildDate string
	version   string
)

func main() {
	bi := buildinfo.NewContext(version, buildDate)

	rootCmd := cmd.RootCommand(bi)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
