package api

import (
	"encoding/json"
	"net/http"

	_ "github.com/blaisecz/nap-planner/docs"
	"github.com/blaisecz/nap-planner/internal/api/handler"
	"github.com/blaisecz/nap-planner/internal/api/middleware"
	"github.com/blaisecz/nap-planner/internal/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Child      *handler.ChildHandler
	Schedule   *handler.ScheduleHandler
	Session    *handler.SessionHandler
	Stats      *handler.StatsHandler
	Transition *handler.TransitionHandler
	Coaching   *handler.CoachingHandler
}

type Router struct {
	h   Handlers
	log logger.Logger
}

func NewRouter(h Handlers, log logger.Logger) *Router {
	return &Router{h: h, log: log}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(rt.log))
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(rt.log))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Route("/children", func(r chi.Router) {
			r.Post("/", rt.h.Child.Create)

			r.Route("/{childId}", func(r chi.Router) {
				r.Get("/", rt.h.Child.GetByID)

				// Schedule
				r.Get("/schedule", rt.h.Schedule.Get)
				r.Put("/schedule", rt.h.Schedule.Replace)
				r.Get("/schedule/naps/{napNumber}", rt.h.Schedule.NapWindow)

				// Sleep sessions
				r.Route("/sessions", func(r chi.Router) {
					r.Post("/", rt.h.Session.PutDown)
					r.Get("/", rt.h.Session.List)
					r.Get("/{sessionId}", rt.h.Session.Get)
					r.Patch("/{sessionId}", rt.h.Session.Correct)
					r.Post("/{sessionId}/events", rt.h.Session.ApplyEvent)
					r.Get("/{sessionId}/crib", rt.h.Session.CribStatus)
				})

				// Planning
				r.Get("/stats", rt.h.Stats.Stats)
				r.Get("/recommendation", rt.h.Stats.Recommendation)

				// Nap transition
				r.Route("/transition", func(r chi.Router) {
					r.Post("/", rt.h.Transition.Start)
					r.Get("/", rt.h.Transition.Get)
					r.Patch("/", rt.h.Transition.Progress)
					r.Delete("/", rt.h.Transition.Cancel)
					r.Get("/push-readiness", rt.h.Transition.PushReadiness)
					r.Post("/push", rt.h.Transition.ApplyPush)
					r.Get("/coaching", rt.h.Coaching.Generate)
					r.Post("/coaching/feedback", rt.h.Coaching.Feedback)
				})
			})
		})
	})

	return r
}
