package automaxprocs

import (
	"runtime"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/forest33/rawlink/pkg/logger"
)

// Init sets GOMAXPROCS from the container CPU quota, or to procs when it is positive.
func Init(procs int, log *logger.Logger) {
	if procs > 0 {
		prev := runtime.GOMAXPROCS(procs)
		log.Info().Int("previous", prev).Int("current", procs).Msg("GOMAXPROCS set from configuration")
		return
	}

	undo, err := maxprocs.Set(maxprocs.Logger(log.Printf))
	if err != nil {
		log.Error().Err(err).Msg("failed to set automaxprocs")
		undo()
	}
}
