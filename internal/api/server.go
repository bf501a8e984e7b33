// Package api is the HTTP surface. It holds no business logic: handlers
// translate requests into admission pipeline calls and pipeline outcomes into
// status codes.
package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"presenz/internal/admission"
	"presenz/internal/killswitch"
	"presenz/pkg/interfaces"
	"presenz/pkg/types"
)

// Server wires the gin engine to the business components.
type Server struct {
	pipeline *admission.Pipeline
	sessions interfaces.SessionController
	store    interfaces.AttendanceStore
	ks       *killswitch.KillSwitch
	engine   *gin.Engine
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(pipeline *admission.Pipeline, sessions interfaces.SessionController, store interfaces.AttendanceStore, ks *killswitch.KillSwitch) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		pipeline: pipeline,
		sessions: sessions,
		store:    store,
		ks:       ks,
		engine:   gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())
	s.engine.Use(s.activityTracker())

	// There is no HTML front end; the root points at the health endpoint so
	// operators probing the base URL get a real response.
	s.engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/health")
	})

	attendance := s.engine.Group("/attendance")
	{
		attendance.POST("/submit", s.handleSubmit)
		attendance.GET("/records", s.handleRecords)
		attendance.GET("/watch", s.handleWatch)
	}
	s.engine.GET("/health", s.handleHealth)

	return s
}

// Handler returns the engine for the http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// requestLogger assigns a request id and logs each request with its outcome
// status.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		start := time.Now()

		c.Next()

		log.Printf("request id=%s method=%s path=%s status=%d duration=%s",
			requestID, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// activityTracker feeds the kill switch's inactivity monitor.
func (s *Server) activityTracker() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.ks.Touch()
		c.Next()
	}
}

// handleSubmit accepts one attendance submission and maps the pipeline
// outcome onto the response:
//
//	accepted  -> 200 {status: success}
//	closed    -> 200 {status: closed}
//	duplicate -> 409
//	invalid   -> 400 with the field-level reason
//	internal  -> 500 without internals
func (s *Server) handleSubmit(c *gin.Context) {
	var sub types.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "invalid", "message": "malformed request body"})
		return
	}

	result := s.pipeline.Submit(c.Request.Context(), sub)

	switch result.Outcome {
	case types.OutcomeAccepted:
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Attendance recorded successfully"})
	case types.OutcomeClosed:
		c.JSON(http.StatusOK, gin.H{"status": "closed", "message": "Attendance session closed"})
	case types.OutcomeDuplicate:
		c.JSON(http.StatusConflict, gin.H{"status": "duplicate", "message": "Roll number already submitted"})
	case types.OutcomeInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"status": "invalid", "message": result.Reason})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal server error"})
	}
}

// handleRecords returns the active session's committed records.
func (s *Server) handleRecords(c *gin.Context) {
	snap := s.sessions.Snapshot()
	if !snap.Active {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	records, err := s.store.FetchAll(c.Request.Context(), snap.TableName)
	if err != nil {
		log.Printf("Failed to fetch records: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"table":   snap.TableName,
		"records": records,
	})
}

// handleHealth reports store connectivity and the session snapshot.
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	httpStatus := http.StatusOK
	if err := s.store.HealthCheck(c.Request.Context()); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"session":   s.sessions.Snapshot(),
	})
}
