package server

import (
	"fmt"
	"strings"
	"time"

	"floorsheet-observer/src/interfaces"
	"floorsheet-observer/src/logger"
	"floorsheet-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Server exposes the three floorsheet stores over a read-only REST API. It
// serves whatever the batch stages last wrote; there are no mutation
// endpoints.
// -----------------------------------------------------------------------------

type Server struct {
	Config *models.MConfig
	Logger *logger.Logger
	Store  interfaces.IFloorsheetStore
	engine *gin.Engine
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewServer(cfg *models.MConfig, store interfaces.IFloorsheetStore, logger *logger.Logger) *Server {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config: cfg,
		Logger: logger,
		Store:  store,
		engine: gin.Default(),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/transactions", s.getTransactions)
	s.engine.GET("/api/summary/dates", s.getDateSummaries)
	s.engine.GET("/api/summary/combined", s.getCombinedSummaries)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)
	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getTransactions(c *gin.Context) {
	rows, err := s.Store.LoadTransactions()
	if err != nil {
		s.Logger.Error("Failed to load transactions: %v", err)
		c.JSON(500, gin.H{"error": "failed to load transactions"})
		return
	}

	date := c.Query("date")
	symbol := c.Query("symbol")
	broker := c.Query("broker")

	out := rows[:0:0]
	for _, t := range rows {
		if date != "" && t.Date != date {
			continue
		}
		if symbol != "" && t.Symbol != symbol {
			continue
		}
		if broker != "" && t.BuyerID != broker && t.SellerID != broker {
			continue
		}
		out = append(out, t)
	}

	c.JSON(200, gin.H{"count": len(out), "transactions": out})
}

// -----------------------------------------------------------------------------

func (s *Server) getDateSummaries(c *gin.Context) {
	rows, err := s.Store.LoadDateSummaries()
	if err != nil {
		s.Logger.Error("Failed to load date summaries: %v", err)
		c.JSON(500, gin.H{"error": "failed to load date summaries"})
		return
	}

	date := c.Query("date")
	symbol := c.Query("symbol")
	broker := c.Query("broker")

	out := rows[:0:0]
	for _, r := range rows {
		if date != "" && r.Date != date {
			continue
		}
		if symbol != "" && r.Symbol != symbol {
			continue
		}
		if broker != "" && r.BrokerID != broker {
			continue
		}
		out = append(out, r)
	}

	c.JSON(200, gin.H{"count": len(out), "summaries": out})
}

// -----------------------------------------------------------------------------

func (s *Server) getCombinedSummaries(c *gin.Context) {
	rows, err := s.Store.LoadCombinedSummaries()
	if err != nil {
		s.Logger.Error("Failed to load combined summaries: %v", err)
		c.JSON(500, gin.H{"error": "failed to load combined summaries"})
		return
	}

	symbol := c.Query("symbol")
	broker := c.Query("broker")

	out := rows[:0:0]
	for _, r := range rows {
		if symbol != "" && r.Symbol != symbol {
			continue
		}
		if broker != "" && r.BrokerID != broker {
			continue
		}
		out = append(out, r)
	}

	c.JSON(200, gin.H{"count": len(out), "summaries": out})
}
