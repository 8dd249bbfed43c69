package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hotspot-engine/internal/domain"
	"github.com/couchcryptid/hotspot-engine/internal/observability"
)

// ProfileResolver looks up the engine configuration for a named profile.
type ProfileResolver interface {
	Profile(name string) (domain.Config, bool)
}

// HotspotTransformer runs hotspot analyses with optional cluster labelling.
// It serves both the Kafka pipeline and the HTTP API.
type HotspotTransformer struct {
	profiles ProfileResolver
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates a HotspotTransformer. Pass a nil geocoder to leave
// cluster labels empty.
func NewTransformer(profiles ProfileResolver, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *HotspotTransformer {
	return &HotspotTransformer{
		profiles: profiles,
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// Transform parses a raw request message and analyzes it.
func (t *HotspotTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.AnalysisResult, error) {
	req, err := domain.ParseRawRequest(raw)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	return t.Analyze(ctx, req)
}

// Analyze resolves the request's profile and runs the engine over its samples.
func (t *HotspotTransformer) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	cfg, ok := t.profiles.Profile(req.Profile)
	if !ok {
		return domain.AnalysisResult{}, fmt.Errorf("%w %q", domain.ErrUnknownProfile, req.Profile)
	}

	start := time.Now()
	result, err := domain.Analyze(req.Samples, cfg)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("request %s: %w", req.ID, err)
	}
	t.metrics.AnalysisDuration.WithLabelValues(req.Profile).Observe(time.Since(start).Seconds())
	t.metrics.HotspotsPerAnalysis.Observe(float64(len(result.Hotspots)))
	t.metrics.ClustersPerAnalysis.Observe(float64(len(result.Clusters)))

	result, labelled := domain.LabelClusters(ctx, result, t.geocoder, t.logger)

	t.logger.Debug("analysis complete",
		"request_id", req.ID,
		"profile", req.Profile,
		"samples", result.SampleCount,
		"hotspots", len(result.Hotspots),
		"clusters", len(result.Clusters),
		"labelled", labelled,
	)

	return domain.AnalysisResult{
		RequestID: req.ID,
		Profile:   req.Profile,
		Result:    result,
	}, nil
}
