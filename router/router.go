// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"net/http"
	"time"

	"github.com/danielhkuo/stage/cliparse"
	"github.com/danielhkuo/stage/display"
	"github.com/danielhkuo/stage/handlers"
	"github.com/danielhkuo/stage/lifecycle"
	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/realtime"
	"github.com/danielhkuo/stage/screen"
	"github.com/danielhkuo/stage/store"
	"go.uber.org/zap"
)

// Services are the long-lived components the routes drive
type Services struct {
	Store     *store.Store
	Hub       *realtime.Hub
	Lifecycle *lifecycle.Manager
	Displays  *display.Service
	Registry  *screen.Registry
	Config    cliparse.Config
}

// NewServices wires the lifecycle manager, display service and screen
// registry around a store and hub. Screens live until ctx is done or
// Registry.Close is called.
func NewServices(ctx context.Context, st *store.Store, hub *realtime.Hub, cfg cliparse.Config) Services {
	displays := display.NewService(st, hub)
	return Services{
		Store:     st,
		Hub:       hub,
		Lifecycle: lifecycle.NewManager(st, hub),
		Displays:  displays,
		Registry: screen.NewRegistry(ctx, st, displays, hub, screen.Options{
			Grace:    cfg.GracePeriod,
			Fallback: cfg.FallbackInterval,
		}),
		Config: cfg,
	}
}

func NewRouter(svc Services) *http.ServeMux {
	mux := http.NewServeMux()

	eventHandler := handlers.NewEventHandler(svc.Store, svc.Registry, svc.Config)
	questionHandler := handlers.NewQuestionHandler(svc.Store)
	pollHandler := handlers.NewPollHandler(svc.Store, svc.Lifecycle)
	responseHandler := handlers.NewResponseHandler(svc.Store)
	resultsHandler := handlers.NewResultsHandler(svc.Store)
	displayHandler := handlers.NewDisplayHandler(svc.Store, svc.Displays)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := svc.Store.Ping(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Events
	mux.HandleFunc("POST /events", middleware.WithLogging(eventHandler.CreateEvent))
	mux.HandleFunc("GET /events/{ref}", middleware.WithLogging(eventHandler.GetEvent))
	mux.HandleFunc("POST /events/{id}/status", middleware.WithLogging(eventHandler.UpdateStatus))
	mux.HandleFunc("GET /events/{id}/qr.png", middleware.WithLogging(eventHandler.QRCode))
	mux.HandleFunc("GET /events/{ref}/screen", middleware.WithLogging(eventHandler.Screen))

	// Questions
	mux.HandleFunc("GET /events/{id}/questions", middleware.WithLogging(questionHandler.ListQuestions))
	mux.HandleFunc("POST /events/{id}/questions", middleware.WithLogging(questionHandler.SubmitQuestion))
	mux.HandleFunc("POST /questions/{id}/upvote", middleware.WithLogging(questionHandler.Upvote))
	mux.HandleFunc("POST /questions/{id}/answered", middleware.WithLogging(questionHandler.SetAnswered))
	mux.HandleFunc("POST /questions/{id}/featured", middleware.WithLogging(questionHandler.SetFeatured))
	mux.HandleFunc("DELETE /questions/{id}", middleware.WithLogging(questionHandler.DeleteQuestion))

	// Polls (organizer)
	mux.HandleFunc("POST /events/{id}/polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /events/{id}/polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("PUT /polls/{id}", middleware.WithLogging(pollHandler.ReplacePoll))
	mux.HandleFunc("POST /polls/{id}/launch", middleware.WithLogging(pollHandler.LaunchPoll))
	mux.HandleFunc("POST /polls/{id}/end", middleware.WithLogging(pollHandler.EndPoll))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(pollHandler.DeletePoll))

	// Poll responses (audience)
	mux.HandleFunc("POST /polls/{id}/responses", middleware.WithLogging(responseHandler.SubmitResponses))
	mux.HandleFunc("GET /polls/{id}/my-response", middleware.WithLogging(responseHandler.MyResponse))

	// Results
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /polls/{id}/results.xlsx", middleware.WithLogging(resultsHandler.ExportResults))

	// Presentation display
	mux.HandleFunc("POST /events/{id}/display", middleware.WithLogging(displayHandler.SetDisplay))
	mux.HandleFunc("GET /events/{id}/display", middleware.WithLogging(displayHandler.GetDisplay))

	// Realtime
	mux.HandleFunc("GET /realtime/{channel}", middleware.WithLogging(svc.Hub.ServeWS))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("stage API v1"))
	})

	return mux
}
