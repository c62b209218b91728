package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/insightdesk/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/insightdesk/internal/http/middleware"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Tables             *handlers.TablesHandler
	Vocabulary         *handlers.VocabularyHandler
	Dashboard          *handlers.DashboardHandler
	Live               *handlers.LiveHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		// Live sessions hijack the connection and outlive request timeouts.
		if cfg.Live != nil {
			api.Get("/live/{entity}", cfg.Live.Serve)
		}

		api.Group(func(rest chi.Router) {
			rest.Use(middleware.Compress(5))
			if cfg.RequestTimeout > 0 {
				rest.Use(middleware.Timeout(cfg.RequestTimeout))
			}
			if cfg.Tables != nil {
				rest.Get("/customers", cfg.Tables.ListCustomers)
				rest.Get("/customers/{id}", cfg.Tables.GetCustomer)
				rest.Get("/conversations", cfg.Tables.ListConversations)
				rest.Get("/conversations/{id}", cfg.Tables.GetConversation)
				rest.Get("/insights", cfg.Tables.ListInsights)
			}
			if cfg.Vocabulary != nil {
				rest.Get("/insights/categories", cfg.Vocabulary.ListCategories)
				rest.Get("/insights/topics", cfg.Vocabulary.ListTopics)
			}
			if cfg.Dashboard != nil {
				rest.Get("/dashboard", cfg.Dashboard.GetDashboard)
			}
		})
	})

	return r
}
