package imagery

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Service builds map layers and monthly series for a region on top of a QueryService.
type Service struct {
	query     QueryService
	catalog   Catalog
	startDate time.Time
	cache     MonthlyCache
	recorder  Recorder
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithCache enables caching of completed months.
func WithCache(c MonthlyCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithRecorder persists a record of every successful generation.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the time source used for the end of the analysis window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service. startDate is the fixed beginning of every analysis window.
func NewService(query QueryService, catalog Catalog, startDate time.Time, opts ...Option) *Service {
	s := &Service{
		query:     query,
		catalog:   catalog,
		startDate: truncateDay(startDate),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the active feature catalog.
func (s *Service) Catalog() Catalog {
	return s.catalog
}

// Generate builds the map layer and then the monthly series for roi and feature, over the
// window from the configured start date through today (UTC).
func (s *Service) Generate(ctx context.Context, rawROI json.RawMessage, feature string) (Generation, error) {
	roi, err := ParseROI(rawROI)
	if err != nil {
		return Generation{}, err
	}
	spec, err := s.catalog.Lookup(feature)
	if err != nil {
		return Generation{}, err
	}

	end := truncateDay(s.now())
	log.Printf("DEBUG: Generate called for roi %s feature %s window %s..%s",
		roi.Key(), spec.Feature, s.startDate.Format(DateLayout), end.Format(DateLayout))

	mapCfg, err := s.buildMap(ctx, roi, spec, s.startDate, end)
	if err != nil {
		return Generation{}, err
	}

	values, err := s.buildMonthlyValues(ctx, roi, spec, s.startDate, end)
	if err != nil {
		return Generation{}, err
	}

	s.record(ctx, roi, mapCfg, values)

	return Generation{MapConfig: mapCfg, MonthlyValues: values}, nil
}

func (s *Service) record(ctx context.Context, roi ROI, mapCfg MapConfig, values []MonthlyValue) {
	if s.recorder == nil {
		return
	}

	nulls := 0
	for _, v := range values {
		if v.Value == nil {
			nulls++
		}
	}
	rec := GenerationRecord{
		ROIKey:    roi.Key(),
		Bound:     roi.Bound(),
		Feature:   mapCfg.Feature,
		StartDate: mapCfg.StartDate,
		EndDate:   mapCfg.EndDate,
		MapID:     mapCfg.Visualization.MapID,
		Months:    len(values),
		NullCount: nulls,
		CreatedAt: s.now().UTC(),
	}
	if err := s.recorder.RecordGeneration(ctx, rec); err != nil {
		log.Printf("ERROR: failed to record generation for %s: %v", rec.ROIKey, err)
	}
}
