package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"eduseek/internal/files"
	"eduseek/internal/logger"
	"eduseek/internal/onq"
	"eduseek/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	echo     *echo.Echo
	host     *Host
	attempts *repository.AttemptRepository
	port     int
	stopCh   chan struct{}
}

func NewServer(host *Host, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Log.Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	s := &Server{
		echo:     e,
		host:     host,
		attempts: repository.NewAttemptRepository(),
		port:     port,
		stopCh:   make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.POST("/stop", s.handleStop)

	g := s.echo.Group("/sync")
	g.POST("/start", s.handleStart)
	g.POST("/close", s.handleClose)
	g.GET("/view", s.handleView)

	s.echo.GET("/notifications", s.handleNotifications)
	s.echo.GET("/files", s.handleFiles)
	s.echo.GET("/history", s.handleHistory)
}

func (s *Server) Start() {
	go func() {
		addr := "localhost:" + strconv.Itoa(s.port)
		logger.Log.Info("dashboard server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("dashboard server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	s.host.Shutdown()
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

type startRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleStart(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	creds := onq.Credentials{Username: req.Username, Password: req.Password}
	if err := s.host.Start(c.Request().Context(), creds); err != nil {
		if vErr, ok := errors.AsType[*onq.ValidationError](err); ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": vErr.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]string{"phase": string(s.host.View().Phase)})
}

func (s *Server) handleClose(c echo.Context) error {
	return c.JSON(http.StatusOK, toViewResponse(s.host.Close()))
}

func (s *Server) handleView(c echo.Context) error {
	return c.JSON(http.StatusOK, toViewResponse(s.host.View()))
}

func (s *Server) handleNotifications(c echo.Context) error {
	return c.JSON(http.StatusOK, s.host.Drain())
}

type filesResponse struct {
	Files     []files.File `json:"files"`
	FetchedAt *time.Time   `json:"fetched_at"`
}

func (s *Server) handleFiles(c echo.Context) error {
	list, at := s.host.Files()

	resp := filesResponse{Files: list}
	if !at.IsZero() {
		resp.FetchedAt = &at
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 {
			n = parsed
		}
	}

	attempts, err := s.attempts.GetRecent(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	stats, err := s.attempts.GetStats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"attempts": attempts,
		"stats":    stats,
	})
}
