package main

import (
	"os"

	"github.com/example/tinygraph/internal/log"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Log.Error().Err(err).Msg("tinygraph failed")
		os.Exit(1)
	}
}
