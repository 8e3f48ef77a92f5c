package profiler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"sync"
	"time"

	"github.com/forest33/rawlink/pkg/logger"
)

type Config struct {
	Host string
	Port int
}

const shutdownTimeout = 3 * time.Second

var (
	once = sync.Once{}
)

// Start serves the pprof handlers until ctx is done.
func Start(ctx context.Context, cfg *Config, log *logger.Logger) {
	once.Do(func() {
		log.Info().
			Str("host", cfg.Host).
			Int("port", cfg.Port).
			Msg("starting profiler")

		srv := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler: http.DefaultServeMux,
		}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("failed to start profiler")
			}
		}()

		go func() {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	})
}
