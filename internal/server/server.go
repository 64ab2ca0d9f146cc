package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wired-social/auth-service/internal/api"
	"github.com/wired-social/auth-service/internal/auth"
	"github.com/wired-social/auth-service/internal/config"
)

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	httpServer *http.Server
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
}

func NewServer(p Params) *Server {
	if os.Getenv("APP_ENV") == EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestLogger(p.Logger), gin.Recovery(), authGuard(p.AuthMiddleware))

	registerRoutes(router, p.AuthHandler)

	addr := fmt.Sprintf("%s:%s", p.Config.Server.Host, p.Config.Server.Port)

	return &Server{
		config: p.Config,
		log:    p.Logger,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  p.Config.Server.ReadTimeout,
			WriteTimeout: p.Config.Server.WriteTimeout,
		},
	}
}

func registerRoutes(router *gin.Engine, handler *auth.Handler) {
	router.GET(api.Health, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST(api.AuthRegister, handler.Register)
	router.POST(api.AuthLogin, handler.Login)
	router.POST(api.AuthForgotPassword, handler.ForgotPassword)
	router.POST(api.AuthResetPassword, handler.ResetPassword)

	router.GET(api.AuthProfile, handler.Profile)
}

// authGuard enforces bearer tokens on every route not listed in
// api.PublicEndpoints. Unknown routes are treated as protected.
func authGuard(m *auth.Middleware) gin.HandlerFunc {
	requireAuth := m.RequireAuth()
	return func(c *gin.Context) {
		if api.PublicEndpoints[c.FullPath()] {
			c.Next()
			return
		}
		requireAuth(c)
	}
}

// requestLogger logs one line per request with a generated request id.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if username, ok := auth.UsernameFromContext(c); ok {
			fields = append(fields, zap.String("user", username))
		}
		log.Info("request", fields...)
	}
}

func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		zap.String("address", s.httpServer.Addr),
		zap.Object("config", serverConfigToField(s.config)),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", os.Getenv("APP_ENV"))
		enc.AddString("host", config.Server.Host)
		enc.AddString("port", config.Server.Port)
		enc.AddInt("max_open_conns", config.Database.MaxOpenConns)
		return nil
	})
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")

	shutdownCtx := ctx
	if s.config.Server.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()
	}

	return s.httpServer.Shutdown(shutdownCtx)
}
