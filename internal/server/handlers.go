package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"gopkg.in/yaml.v3"

	"github.com/MANISPIN/align-images-for-lenticular/internal/align"
	"github.com/MANISPIN/align-images-for-lenticular/internal/export"
	"github.com/MANISPIN/align-images-for-lenticular/internal/region"
	"github.com/MANISPIN/align-images-for-lenticular/internal/version"
)

// healthHandler reports service liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := HealthResponse{
		Status:  "ok",
		Version: version.Info(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}

// alignHandler accepts a multipart upload of ordered frames plus their
// selected regions, runs the requested alignment passes, and streams back a
// zip of aligned PNGs with the manifest (or the manifest alone).
//
// Form fields:
//
//	frames  - two or more image files, in sequence order
//	regions - optional YAML list of {x, y, width, height}, by frame index;
//	          null entries mark frames without a selection
//	mode    - full (default), translation or rotation
//	step    - optional rotation search step override, degrees
//	crop    - optional bool, crop output to the common covered area
//	format  - zip (default) or manifest
func (s *Server) alignHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.ContentLength > 0 {
		uploadSizeBytes.Observe(float64(r.ContentLength))
	}

	if err := r.ParseMultipartForm(s.maxUploadMB << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse multipart form: %v", err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	mode := r.FormValue("mode")
	if mode == "" {
		mode = "full"
	}
	switch mode {
	case "full", "translation", "rotation":
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", mode))
		return
	}

	records, err := s.loadRecords(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rotCfg := s.rotationCfg
	if raw := r.FormValue("step"); raw != "" {
		step, err := strconv.ParseFloat(raw, 64)
		if err != nil || step <= 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid step %q", raw))
			return
		}
		rotCfg.Step = step
	}

	crop := s.cropToCommon
	if raw := r.FormValue("crop"); raw != "" {
		crop, err = strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid crop %q", raw))
			return
		}
	}

	aligner, err := align.New(align.Config{
		Filter:   s.filterCfg,
		Rotation: rotCfg,
		OnPairOutcome: func(o align.PairOutcome) {
			alignPairOutcomes.WithLabelValues(string(o.Stage), string(o.Status)).Inc()
			s.hub.Broadcast(o)
		},
	}, s.matcher)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.timeoutSec)*time.Second)
	defer cancel()

	start := time.Now()
	switch mode {
	case "full":
		err = aligner.Run(ctx, records)
	case "translation":
		err = aligner.RunTranslation(ctx, records)
	case "rotation":
		err = aligner.RunRotation(ctx, records)
	}
	duration := time.Since(start)

	if err != nil {
		alignRequestsTotal.WithLabelValues(mode, "error").Inc()
		switch {
		case errors.Is(err, align.ErrInsufficientImages):
			s.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, align.ErrNoMatcher):
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			s.writeError(w, http.StatusGatewayTimeout, "alignment timed out")
		default:
			slog.Error("alignment failed", "mode", mode, "error", err)
			s.writeError(w, http.StatusInternalServerError, "alignment failed")
		}
		return
	}

	alignRequestsTotal.WithLabelValues(mode, "success").Inc()
	alignProcessingDuration.WithLabelValues(mode).Observe(duration.Seconds())
	slog.Info("alignment completed",
		"mode", mode, "frames", len(records), "duration_ms", duration.Milliseconds())

	if r.FormValue("format") == "manifest" {
		s.writeManifest(w, records)
		return
	}
	s.writeZip(w, records, crop)
}

// loadRecords decodes the uploaded frames and attaches regions by index.
func (s *Server) loadRecords(r *http.Request) ([]*align.ImageRecord, error) {
	files := r.MultipartForm.File["frames"]
	if len(files) == 0 {
		return nil, errors.New("no frames uploaded")
	}

	var regions []*region.Region
	if raw := r.FormValue("regions"); raw != "" {
		if err := yaml.Unmarshal([]byte(raw), &regions); err != nil {
			return nil, fmt.Errorf("failed to parse regions: %w", err)
		}
	}

	records := make([]*align.ImageRecord, 0, len(files))
	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open frame %s: %w", fh.Filename, err)
		}
		img, err := imaging.Decode(f, imaging.AutoOrientation(true))
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode frame %s: %w", fh.Filename, err)
		}

		rec := align.NewImageRecord(fh.Filename, img)
		if i < len(regions) {
			rec.Region = regions[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Server) writeZip(w http.ResponseWriter, records []*align.ImageRecord, crop bool) {
	// Buffer the archive so encoding failures can still produce a clean
	// error status instead of a truncated download.
	var buf bytes.Buffer
	if err := export.WriteArchive(&buf, records, crop); err != nil {
		slog.Error("failed to build result archive", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to build result archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="aligned_frames.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write result archive", "error", err)
	}
}

func (s *Server) writeManifest(w http.ResponseWriter, records []*align.ImageRecord) {
	data, err := export.NewManifest(records).Marshal()
	if err != nil {
		slog.Error("failed to build manifest", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to build manifest")
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write manifest", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: msg}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
