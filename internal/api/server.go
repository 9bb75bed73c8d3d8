package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mattsonlyattack/cons/internal/app"
	"github.com/mattsonlyattack/cons/internal/logging"
	"github.com/mattsonlyattack/cons/pkg/config"
)

// Server is the optional local REST surface over the same
// store/search/enrichment services the CLI uses.
type Server struct {
	router     *gin.Engine
	svc        *app.Services
	config     *config.Config
	httpServer *http.Server
	log        *logging.Logger
}

// NewServer builds the REST server from an already-open service graph.
func NewServer(svc *app.Services, cfg *config.Config) *Server {
	log := logging.GetLogger("api")

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.RestAPI.CORS {
		router.Use(cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
			MaxAge:          12 * time.Hour,
		}))
	}

	router.Use(MaxBodySizeMiddleware(DefaultBodyLimit))

	s := &Server{
		router: router,
		svc:    svc,
		config: cfg,
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/health", s.health)

		v1.POST("/notes", s.createNote)
		v1.GET("/notes", s.listNotes)
		v1.GET("/notes/:id", s.getNote)

		v1.GET("/search", s.search)
		v1.GET("/search/graph", s.graphSearch)

		v1.GET("/tags", s.listTags)
		v1.POST("/tags/:name/alias/:alias", s.createAlias)

		v1.POST("/hierarchy/populate", s.populateHierarchy)
		v1.GET("/tags/:name/hierarchy", s.tagHierarchy)

		v1.POST("/ask", s.ask)

		v1.GET("/stats", s.stats)
	}
}

func (s *Server) health(c *gin.Context) {
	SuccessResponse(c, "ok", gin.H{"status": "ok"})
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	addr := fmt.Sprintf("%s:%d", s.config.RestAPI.Host, s.config.RestAPI.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting REST API server", "address", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Router exposes the underlying Gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
