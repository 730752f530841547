package imagery

import (
	"context"
	"time"
)

// buildMap selects the representative image for the feature over [start, end] and mints a
// tile-serving descriptor for it.
func (s *Service) buildMap(ctx context.Context, roi ROI, spec FeatureSpec, start, end time.Time) (MapConfig, error) {
	window := Window{Start: start, End: end}
	source := CollectionQuery{Collection: spec.Collection, Region: roi, Window: window}

	n, err := s.query.CollectionSize(ctx, source)
	if err != nil {
		return MapConfig{}, upstream("collection size", err)
	}
	if n == 0 {
		return MapConfig{}, &ImageryUnavailableError{Feature: spec.Feature}
	}

	img := ImageQuery{
		Source:               source,
		NormalizedDifference: spec.NormalizedDifference,
		Bands:                spec.Bands,
		Composite:            spec.MapComposite,
		Conversion:           spec.MapConversion,
	}
	vis, err := s.query.MapTiles(ctx, img, spec.Palette)
	if err != nil {
		return MapConfig{}, upstream("map tiles", err)
	}

	return MapConfig{
		ROI:           roi.Raw,
		StartDate:     window.StartDate(),
		EndDate:       window.EndDate(),
		Feature:       spec.Feature,
		Visualization: vis,
	}, nil
}
