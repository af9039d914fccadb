// Package server exposes the alignment pipeline over HTTP: a multipart align
// endpoint streaming back a zip of aligned frames, a progress WebSocket, and
// the usual health and metrics plumbing.
package server

import (
	"io"

	"github.com/MANISPIN/align-images-for-lenticular/internal/align"
	"github.com/MANISPIN/align-images-for-lenticular/internal/match"
	"github.com/MANISPIN/align-images-for-lenticular/internal/rotation"
)

// Server holds the HTTP server state and dependencies. The matcher is
// injected so tests run without ONNX runtime or model files.
type Server struct {
	matcher         align.Matcher
	filterCfg       match.FilterConfig
	rotationCfg     rotation.Config
	host            string
	port            int
	corsOrigin      string
	maxUploadMB     int64
	timeoutSec      int
	shutdownTimeout int
	cropToCommon    bool
	hub             *ProgressHub
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int
	TimeoutSec      int
	ShutdownTimeout int

	Filter       match.FilterConfig
	Rotation     rotation.Config
	CropToCommon bool
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ErrorResponse is the JSON error payload for failed requests.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates an alignment server around an injected matcher. A nil
// matcher still serves translation-only requests.
func NewServer(config Config, matcher align.Matcher) (*Server, error) {
	if err := config.Rotation.Validate(); err != nil {
		return nil, err
	}
	return &Server{
		matcher:         matcher,
		filterCfg:       config.Filter,
		rotationCfg:     config.Rotation,
		host:            config.Host,
		port:            config.Port,
		corsOrigin:      config.CORSOrigin,
		maxUploadMB:     int64(config.MaxUploadMB),
		timeoutSec:      config.TimeoutSec,
		shutdownTimeout: config.ShutdownTimeout,
		cropToCommon:    config.CropToCommon,
		hub:             NewProgressHub(),
	}, nil
}

// Close releases server resources, closing the matcher when it is closable.
func (s *Server) Close() error {
	if c, ok := s.matcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
