package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/chess-relay/util"
	"github.com/judgegodwins/chess-relay/ws"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type Server struct {
	config    *util.Config
	registry  *ws.Registry
	wsManager *ws.Manager
	router    *gin.Engine
	http      *http.Server
	logger    *zap.Logger
}

func NewServer(config *util.Config, registry *ws.Registry, logger *zap.Logger) *Server {
	router := gin.New()

	server := &Server{
		config:    config,
		registry:  registry,
		wsManager: ws.NewManager(config, registry, logger),
		router:    router,
		logger:    logger,
	}

	router.Use(server.RequestLogger, gin.Recovery())

	router.GET("/ws/:room/:slot", server.wsManager.ServeWS)
	router.GET("/create", server.CreateRoom)
	router.GET("/rooms/:id", server.CheckRoom)

	if config.StaticDir != "" {
		router.StaticFS("/static", http.Dir(config.StaticDir))
	}

	server.http = &http.Server{
		Addr:              config.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// Handler is the router wrapped in the CORS policy.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	})

	return c.Handler(s.router)
}

func (s *Server) Start() error {
	s.logger.Info("server started", zap.String("addr", s.http.Addr))

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting requests. Upgraded websocket connections are not
// tracked by net/http and end when the process exits.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
