package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ozgunk/social-feed-be/internal/api/handlers"
	"github.com/ozgunk/social-feed-be/internal/auth"
	"github.com/ozgunk/social-feed-be/internal/monitoring"
	"github.com/ozgunk/social-feed-be/internal/services"
	"github.com/ozgunk/social-feed-be/internal/websocket"
)

// RouterDeps carries everything the router wires into handlers.
type RouterDeps struct {
	Tokens       *auth.Service
	UserService  services.UserServiceProvider
	PostService  services.PostServiceProvider
	EventService services.EventServiceProvider
	StatUpdater  *monitoring.StatUpdater
	Hub          *websocket.Hub
	ImagesPath   string
	ProdMode     bool
	CookieTTL    time.Duration
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for the single-page client
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(deps.UserService, deps.Tokens, deps.ProdMode, deps.CookieTTL)
	feedHandler := handlers.NewFeedHandler(deps.PostService)
	eventHandler := handlers.NewEventHandler(deps.EventService)
	statusHandler := handlers.NewStatusHandler(deps.StatUpdater)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub)

	requireAuth := deps.Tokens.Middleware()

	r.Route("/auth", func(r chi.Router) {
		r.Put("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
	})

	r.Route("/feed", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/posts", feedHandler.GetPosts)
		r.Post("/post", feedHandler.CreatePost)
		r.Route("/post/{postId}", func(r chi.Router) {
			r.Get("/", feedHandler.GetPost)
			r.Put("/", feedHandler.UpdatePost)
			r.Delete("/", feedHandler.DeletePost)
		})
	})

	r.With(requireAuth).Get("/events", eventHandler.GetRecent)
	r.Get("/status", statusHandler.Get)
	r.Get("/ws", wsHandler.Serve)

	// Stored images are served as static files.
	fileServer := http.StripPrefix("/images/", http.FileServer(http.Dir(deps.ImagesPath)))
	r.Get("/images/*", fileServer.ServeHTTP)

	return r
}
