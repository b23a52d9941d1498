package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"signaltracker/src/handler"
	"signaltracker/src/repository"
	"signaltracker/src/stats"
)

// Deps carries everything the HTTP surface needs. The read side consumes
// the calculator, the cache and the persisted snapshots shared with the
// checker process; the write side goes through the repositories so every
// mutation obeys the engine's transition rules.
type Deps struct {
	Signals    *repository.SignalRepository
	Channels   *repository.ChannelRepository
	Snapshots  *repository.StatsRepository
	Calculator *stats.Calculator
	Cache      *stats.Cache
}

// NewRouter mounts all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	keeper := handler.StatsKeeper{
		Calculator: deps.Calculator,
		Snapshots:  deps.Snapshots,
		Cache:      deps.Cache,
	}

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck error")
		}
	})

	r.Route("/signals", func(r chi.Router) {
		r.Get("/", handler.SearchSignalsHandler(deps.Signals))
		r.Post("/", handler.CreateSignalHandler(deps.Signals, deps.Channels, keeper))
		r.Post("/{id}/close", handler.CloseSignalHandler(deps.Signals, keeper))
	})

	r.Route("/channels", func(r chi.Router) {
		r.Get("/", handler.ListChannelsHandler(deps.Channels, keeper))
		r.Post("/", handler.CreateChannelHandler(deps.Channels))
	})

	r.Route("/stats", func(r chi.Router) {
		r.Get("/", handler.AllStatsHandler(deps.Calculator))
		r.Get("/overall", handler.OverallStatsHandler(deps.Calculator))
		r.Get("/summary", handler.SummaryStatsHandler(deps.Calculator))
		r.Get("/{channel}", handler.ChannelStatsHandler(keeper))
	})

	return r
}

// StartServer runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully.
func StartServer(port string, deps Deps) {
	r := NewRouter(deps)

	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
