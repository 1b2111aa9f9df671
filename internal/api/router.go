package api

import (
	"net/http"
	"time"

	"algo_answer_hub/internal/api/handler"
	"algo_answer_hub/internal/api/middleware"
	"algo_answer_hub/internal/app/service"
	"algo_answer_hub/internal/app/store"
	"algo_answer_hub/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	stores *store.Manager,
	sessions middleware.SessionChecker,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies the bearer token and puts claims in context; Identify then
	// binds the viewer when the session is still live. Public routes stay
	// public, but an authenticated viewer sees their own like state.
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(middleware.Identify(sessions))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public + session-scoped)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(auth chi.Router) {
			authHandler.RegisterRoutes(auth)
		})

		// Question routes (reads public, create admin) with nested solution,
		// comment, and like routes (authenticated)
		questionHandler := handler.NewQuestionHandler(stores)
		solutionHandler := handler.NewSolutionHandler(stores)
		v1.Route("/questions", func(q chi.Router) {
			questionHandler.RegisterRoutes(q)
			solutionHandler.RegisterRoutes(q)
		})
	})

	return r
}
