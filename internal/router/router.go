package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"caption-search-backend/internal/handlers"
	"caption-search-backend/internal/middleware"
	"caption-search-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	searchHandler *handlers.SearchHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Each search fans out to many YouTube requests (30 new searches/min per IP)
	createLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Search Routes ────
		r.Route("/searches", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.With(createLimiter.Middleware).Post("/", searchHandler.Create)
			r.Get("/", searchHandler.List)
			r.Get("/{id}", searchHandler.Get)
			r.Get("/{id}/hits", searchHandler.Hits)
			r.Get("/{id}/export.csv", searchHandler.Export)
			r.Delete("/{id}", searchHandler.Cancel)
		})

		// ──── WebSocket (auth via ?token=) ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
