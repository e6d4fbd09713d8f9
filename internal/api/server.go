package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abnzrdev/trainer/internal/common/http/middleware"
	"github.com/abnzrdev/trainer/internal/service"
	"github.com/abnzrdev/trainer/pkg/utils/response"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	Mode         string        `yaml:"mode"`
}

func (c *ServerConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8750
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.Mode == "" {
		c.Mode = gin.ReleaseMode
	}
}

// Server is the read-only status API.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the router and the underlying http.Server.
func NewServer(cfg ServerConfig, trainer *service.Trainer) *Server {
	cfg.applyDefaults()
	gin.SetMode(cfg.Mode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.TraceContext())

	registerRoutes(engine, NewTrainerController(trainer))

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

func registerRoutes(engine *gin.Engine, ctrl *TrainerController) {
	engine.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/contests", ctrl.ListContests)
		v1.GET("/contests/:contest/problems", ctrl.ListContestProblems)
		v1.GET("/problems/:id", ctrl.GetProblem)
		v1.GET("/problems/:id/status", ctrl.GetStatus)
		v1.GET("/problems/:id/attempts", ctrl.ListAttempts)
		v1.GET("/reviews/due", ctrl.ListDue)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr reports the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
