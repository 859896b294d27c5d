package main

import (
	"fmt"
	"os"

	"github.com/justcollins/tristin/common/version"
	"github.com/justcollins/tristin/internal/tristin/app"
	"github.com/justcollins/tristin/internal/tristin/config"
)

func main() {
	fmt.Printf("Miss Tristin Chat Gateway\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	gateway, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize gateway: %v\n", err)
		os.Exit(1)
	}
	defer gateway.Stop()

	if err := gateway.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running gateway: %v\n", err)
		os.Exit(1)
	}
}
