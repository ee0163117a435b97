// Command render-paths validates a path config file offline and prints what
// the server would load from it: every usable path with its requirements and
// results, plus any warnings.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pathways-mc/pathways/internal/adapters/hooks"
	"github.com/pathways-mc/pathways/internal/adapters/playtimerepository"
	"github.com/pathways-mc/pathways/internal/checker"
	"github.com/pathways-mc/pathways/internal/pathconfig"
	"github.com/pathways-mc/pathways/internal/playtime"
	"github.com/pathways-mc/pathways/internal/registry"
	"github.com/pathways-mc/pathways/internal/requirement"
	"github.com/pathways-mc/pathways/internal/result"
)

func main() {
	filePath := "paths.yml"
	if len(os.Args) > 1 {
		filePath = os.Args[1]
	}

	// Validation runs against the mock bridge, so every hook-backed type
	// resolves and option errors surface without a live game server.
	bridge := hooks.NewMockBridge()
	playTimes := playtime.NewManager(playtimerepository.NewInMemory())

	reg := registry.New()
	err := requirement.RegisterBuiltins(reg, requirement.Deps{
		PlayTime:   playTimes,
		Permission: bridge,
		Economy:    bridge,
		Skyblock:   bridge,
		Statistic:  bridge,
		World:      bridge,
	})
	if err != nil {
		log.Fatalf("Failed to register requirement types: %s", err)
	}
	err = result.RegisterBuiltins(reg, result.Deps{
		Groups:   bridge,
		Commands: bridge,
		Messages: bridge,
	})
	if err != nil {
		log.Fatalf("Failed to register result types: %s", err)
	}

	loaded, err := pathconfig.LoadFile(context.Background(), filePath, reg, bridge)
	if err != nil {
		log.Fatalf("Failed to load %s: %s", filePath, err)
	}

	for _, path := range loaded.Paths {
		fmt.Printf("%s:\n", path.DisplayName())
		if len(path.Prerequisites()) > 0 {
			fmt.Println("  prerequisites:")
			for _, prerequisite := range path.Prerequisites() {
				fmt.Printf("    - %s\n", prerequisite.Description())
			}
		}
		fmt.Println("  requirements:")
		for _, composite := range path.Requirements() {
			fmt.Printf("    %d. %s\n", composite.CompletionID(), composite.Description())
		}
		if results := checker.FormatResults(path); len(results) > 0 {
			fmt.Println("  results:")
			for _, description := range results {
				fmt.Printf("    - %s\n", description)
			}
		}
	}

	if len(loaded.Warnings) > 0 {
		fmt.Fprintln(os.Stderr, "warnings:")
		for _, warning := range loaded.Warnings {
			fmt.Fprintf(os.Stderr, "  - %s\n", warning)
		}
		os.Exit(1)
	}
}
