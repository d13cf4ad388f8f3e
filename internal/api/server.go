package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"market-opportunity-scanner/internal/confirmation"
	"market-opportunity-scanner/internal/events"
	"market-opportunity-scanner/internal/scanner"
)

// Config holds the API server configuration.
type Config struct {
	Port      int
	JWTSecret string // Empty disables auth
}

// Server exposes the scanner's state over HTTP and streams signal
// lifecycle events over a websocket.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	scanner    *scanner.Scanner
	eventBus   *events.EventBus
	hub        *Hub
	config     Config
	logger     zerolog.Logger
}

// NewServer creates the API server and registers its routes.
func NewServer(config Config, sc *scanner.Scanner, eventBus *events.EventBus, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:   router,
		scanner:  sc,
		eventBus: eventBus,
		hub:      NewHub(logger),
		config:   config,
		logger:   logger,
	}

	s.registerRoutes()
	s.subscribeEvents()

	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	if s.config.JWTSecret != "" {
		api.Use(s.authMiddleware())
	}
	{
		api.GET("/scan/latest", s.handleLatestScan)
		api.GET("/opportunities", s.handleOpportunities)
		api.GET("/signals/pending", s.handlePendingSignals)
		api.GET("/signals/settled", s.handleSettledSignals)
		api.POST("/scan", s.handleTriggerScan)
	}
}

// subscribeEvents forwards signal lifecycle events to websocket
// clients.
func (s *Server) subscribeEvents() {
	forward := func(event events.Event) {
		s.hub.Broadcast(event)
	}
	s.eventBus.Subscribe(events.EventSignalGenerated, forward)
	s.eventBus.Subscribe(events.EventStageEvaluated, forward)
	s.eventBus.Subscribe(events.EventSignalConfirmed, forward)
	s.eventBus.Subscribe(events.EventSignalRejected, forward)
}

// Start runs the HTTP server in the background.
func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go s.hub.Run()
	go func() {
		s.logger.Info().Int("port", s.config.Port).Msg("API server started")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server failed")
		}
	}()
}

// Stop shuts the HTTP server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
}

func (s *Server) handleLatestScan(c *gin.Context) {
	result := s.scanner.GetLastResult()
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"status": "no scan completed yet"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleOpportunities(c *gin.Context) {
	result := s.scanner.GetLastResult()
	if result == nil {
		c.JSON(http.StatusOK, []scanner.Opportunity{})
		return
	}
	c.JSON(http.StatusOK, result.Opportunities)
}

// pendingView wraps a pending record with its bookkeeping fields.
type pendingView struct {
	confirmation.Record
	AgeSeconds float64 `json:"age_seconds"`
	NextStage  int     `json:"next_stage"`
}

func (s *Server) handlePendingSignals(c *gin.Context) {
	records := s.scanner.PendingRecords()
	views := make([]pendingView, 0, len(records))
	now := time.Now()
	for _, r := range records {
		views = append(views, pendingView{
			Record:     r,
			AgeSeconds: now.Sub(r.CreatedAt).Seconds(),
			NextStage:  r.NextStage(),
		})
	}
	c.JSON(http.StatusOK, views)
}

// settledView wraps a settled record with its outcome summary.
type settledView struct {
	confirmation.Record
	Recommendation string `json:"recommendation"`
}

func (s *Server) handleSettledSignals(c *gin.Context) {
	records := s.scanner.SettledRecords()
	status := c.Query("status")
	views := make([]settledView, 0, len(records))
	for _, r := range records {
		if status != "" && string(r.Status) != status {
			continue
		}
		views = append(views, settledView{
			Record:         r,
			Recommendation: r.Recommendation(),
		})
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleTriggerScan(c *gin.Context) {
	go s.scanner.Scan()
	c.JSON(http.StatusAccepted, gin.H{"status": "scan triggered"})
}
