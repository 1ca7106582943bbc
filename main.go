// Package main is the entry point for the prisk CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/prisk/cmd"
	"github.com/huangsam/prisk/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		fmt.Fprintf(os.Stderr, "Cannot stop profiling: %v\n", stopErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		iocache.CloseStores()
		os.Exit(1)
	}
}
