// Package server exposes the announcer's HTTP API: artifact creation, voice
// enumeration, and a liveness probe, plus static delivery of the artifacts
// themselves.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/session-audio/announcer/internal/core"
	"github.com/session-audio/announcer/internal/publicurl"
	"github.com/session-audio/announcer/internal/service"
)

// API routes.
const (
	routeTTS    = "/api/tts"
	routeVoices = "/api/voices"
	routeHealth = "/"
)

// Error messages returned to clients.
const (
	errMissingParams = "Missing 'username' or 'action'."
)

// audioSubdir is the artifact directory's name under the static root.
const audioSubdir = "audio"

// EngineFactory constructs an ephemeral engine for a per-request override.
type EngineFactory func(variant, language, tld string) (core.SpeechEngine, error)

// Server wires the announcement service into a gin router.
type Server struct {
	svc           *service.Service
	resolver      *publicurl.Resolver
	publisher     core.Publisher
	engineFactory EngineFactory
	router        *gin.Engine
	log           zerolog.Logger
}

// New creates the HTTP server. publisher may be nil when event publishing is
// disabled; engineFactory may be nil to disable per-request engine overrides.
func New(
	svc *service.Service,
	resolver *publicurl.Resolver,
	publisher core.Publisher,
	engineFactory EngineFactory,
	staticRoot string,
	log zerolog.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		svc:           svc,
		resolver:      resolver,
		publisher:     publisher,
		engineFactory: engineFactory,
		router:        gin.New(),
		log:           log,
	}

	server.router.Use(gin.Recovery())
	server.router.Static(publicurl.StaticPrefix, staticRoot)
	server.router.GET(routeHealth, server.handleHealth)
	server.router.GET(routeTTS, server.handleTTS)
	server.router.GET(routeVoices, server.handleVoices)

	return server
}

// Router returns the underlying handler, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run blocks serving HTTP on the given address.
func (s *Server) Run(addr string) error {
	s.log.Info().Str("addr", addr).Msg("announcer listening")

	err := s.router.Run(addr)
	if err != nil {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func (s *Server) handleTTS(c *gin.Context) {
	username := c.Query("username")
	actionRaw := c.Query("action")

	if username == "" || actionRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingParams})

		return
	}

	action, err := core.ParseAction(actionRaw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	opts := service.CreateOptions{
		Force: isTruthy(c.Query("force")),
	}

	if variant := c.Query("engine"); variant != "" && s.engineFactory != nil {
		override, factoryErr := s.engineFactory(variant, c.Query("lang"), c.Query("tld"))
		if factoryErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": factoryErr.Error()})

			return
		}

		opts.Engine = override
	}

	result, err := s.svc.Create(c.Request.Context(), username, action, opts)
	if err != nil {
		if errors.Is(err, service.ErrIdentifierEmpty) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

			return
		}

		s.log.Error().Err(err).Str("username", username).Str("action", string(action)).Msg("announcement generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "TTS generation failed: " + err.Error()})

		return
	}

	fileURL := s.resolver.Resolve(
		audioSubdir+"/"+result.Filename,
		c.Query("base_url"),
		requestBase(c.Request),
	)

	s.publishCreated(c, result, fileURL, action)

	c.JSON(http.StatusOK, gin.H{
		"url":      fileURL,
		"filename": result.Filename,
		"engine":   result.Engine,
	})
}

// publishCreated emits an event for freshly created artifacts. Publish
// failures are logged, never surfaced to the client.
func (s *Server) publishCreated(c *gin.Context, result service.Result, fileURL string, action core.Action) {
	if s.publisher == nil || result.Cached {
		return
	}

	event := core.AnnouncementCreatedEvent{
		Filename:   result.Filename,
		URL:        fileURL,
		Identifier: c.Query("username"),
		Action:     action,
		Engine:     result.Engine,
		CreatedAt:  time.Now().UTC(),
	}

	err := s.publisher.AnnouncementCreated(c.Request.Context(), event)
	if err != nil {
		s.log.Warn().Err(err).Str("filename", result.Filename).Msg("failed to publish announcement event")
	}
}

func (s *Server) handleVoices(c *gin.Context) {
	engine := s.svc.Engine()

	// Cloud engines expose a language/domain descriptor instead of an
	// enumerable voice list.
	if describer, ok := engine.(core.Describer); ok {
		c.JSON(http.StatusOK, describer.Describe())

		return
	}

	voices, err := engine.Voices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list voices: " + err.Error()})

		return
	}

	c.JSON(http.StatusOK, voices)
}

func (s *Server) handleHealth(c *gin.Context) {
	// The probe also self-heals the artifact directory.
	err := s.svc.Store().EnsureDir()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to ensure artifact directory")
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// requestBase derives a base URL from the inbound request, the last tier of
// the override chain.
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return scheme + "://" + r.Host
}

// isTruthy interprets common boolean-ish query values.
func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
