package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/couchcryptid/hotspot-engine/internal/adapter/geojson"
	"github.com/couchcryptid/hotspot-engine/internal/adapter/samplefile"
	"github.com/couchcryptid/hotspot-engine/internal/config"
	"github.com/couchcryptid/hotspot-engine/internal/domain"
	"github.com/google/uuid"
)

const (
	maxRequestBytes = 32 << 20
	headerRequestID = "X-Request-Id"
	contentTypeCSV  = "text/csv"
)

// Response formats accepted by /v1/analyze.
const (
	formatJSON    = "json"
	formatGeoJSON = "geojson"
)

type profilesResponse struct {
	Profiles []config.Profile `json:"profiles"`
}

func (s *Server) handleProfiles(w http.ResponseWriter, _ *http.Request) {
	all := s.profiles.All()
	resp := profilesResponse{Profiles: make([]config.Profile, 0, len(all))}
	for _, name := range all.Names() {
		resp.Profiles = append(resp.Profiles, config.Profile{Name: name, Config: all[name]})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAnalyze runs one analysis synchronously. The body is a JSON analysis
// request, or a text/csv sample table whose profile comes from the query.
// The profile query parameter takes precedence over the body's.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = formatJSON
	}
	if format != formatJSON && format != formatGeoJSON {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
		return
	}

	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if p := r.URL.Query().Get("profile"); p != "" {
		req.Profile = p
	}
	if req.Profile == "" {
		writeError(w, http.StatusBadRequest, errors.New("profile is required"))
		return
	}
	if req.ID == "" {
		req.ID = r.Header.Get(headerRequestID)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	result, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		s.logger.Info("analysis rejected", "request_id", req.ID, "profile", req.Profile, "status", status, "error", err)
		writeError(w, status, err)
		return
	}

	s.logger.Info("analysis served",
		"request_id", req.ID,
		"profile", req.Profile,
		"hotspots", len(result.Hotspots),
		"clusters", len(result.Clusters),
		"format", format,
	)

	if format == formatGeoJSON {
		data, err := geojson.Encode(result.Result)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", geojson.ContentType)
		w.Header().Set(headerRequestID, req.ID)
		w.WriteHeader(http.StatusOK)
		w.Write(data) //nolint:errcheck // client may have gone away
		return
	}
	w.Header().Set(headerRequestID, req.ID)
	writeJSON(w, http.StatusOK, result)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (domain.AnalysisRequest, error) {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)

	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == contentTypeCSV {
		samples, err := samplefile.Read(body, samplefile.FormatCSV)
		if err != nil {
			return domain.AnalysisRequest{}, err
		}
		return domain.AnalysisRequest{Samples: samples}, nil
	}

	var req domain.AnalysisRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return domain.AnalysisRequest{}, err
	}
	return req, nil
}

func statusFor(err error) int {
	var insufficient *domain.InsufficientDataError
	var invalid *domain.InvalidConfigurationError
	switch {
	case errors.Is(err, domain.ErrUnknownProfile):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyInput),
		errors.As(err, &insufficient),
		errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
