package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docquery/internal/models"
)

const maxUploadBytes = 32 << 20

// Service is the pipeline surface the HTTP layer depends on.
type Service interface {
	Ingest(ctx context.Context, tenantID, filename string, data []byte) (int, error)
	Ask(ctx context.Context, tenantID, question string) (string, error)
	Summary(ctx context.Context, tenantID string) (string, error)
	Flashcards(ctx context.Context, tenantID string) (string, error)
}

// Server exposes the pipeline over HTTP.
type Server struct {
	engine  *gin.Engine
	service Service
}

func NewServer(service Service) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), corsMiddleware())
	engine.MaxMultipartMemory = maxUploadBytes

	s := &Server{engine: engine, service: service}
	engine.GET("/health", s.healthHandler)
	engine.POST("/upload", s.uploadHandler)
	engine.POST("/ask", s.askHandler)
	engine.POST("/summary", s.summaryHandler)
	engine.POST("/flashcards", s.flashcardsHandler)
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Msg("http server listening")
	return s.engine.Run(addr)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) uploadHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file upload"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file upload"})
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds upload limit"})
		return
	}

	tenant := sessionFrom(c, c.PostForm("session_id"))
	chunks, err := s.service.Ingest(c.Request.Context(), tenant, fileHeader.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "File processed successfully",
		"chunks":  chunks,
	})
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

func (s *Server) askHandler(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question must not be empty"})
		return
	}

	answer, err := s.service.Ask(c.Request.Context(), sessionFrom(c, req.SessionID), req.Question)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": answer})
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) summaryHandler(c *gin.Context) {
	s.derivedHandler(c, "summary", s.service.Summary)
}

func (s *Server) flashcardsHandler(c *gin.Context) {
	s.derivedHandler(c, "flashcards", s.service.Flashcards)
}

func (s *Server) derivedHandler(c *gin.Context, key string, produce func(ctx context.Context, tenantID string) (string, error)) {
	var req sessionRequest
	// body is optional; the session may arrive via header alone
	_ = c.ShouldBindJSON(&req)

	answer, err := produce(c.Request.Context(), sessionFrom(c, req.SessionID))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: answer})
}

// sessionFrom resolves the tenant identifier: explicit request value first,
// then the X-Session-ID header.
func sessionFrom(c *gin.Context, fromRequest string) string {
	if fromRequest != "" {
		return fromRequest
	}
	return c.GetHeader("X-Session-ID")
}

func writeError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrUnsupportedFormat),
		errors.Is(err, models.ErrNoExtractableText),
		errors.Is(err, models.ErrEmptyChunkSet),
		errors.Is(err, models.ErrEmptyIndex):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrIndexNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmbeddingService),
		errors.Is(err, models.ErrGenerationService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Session-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
