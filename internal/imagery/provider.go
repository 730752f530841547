package imagery

import (
	"context"
	"time"

	"github.com/paulmach/orb"
)

// CollectionQuery selects scenes of a named collection intersecting a region within a
// date window.
type CollectionQuery struct {
	Collection string
	Region     ROI
	Window     Window
}

// ImageQuery derives a single image from a collection: every scene goes through the band
// operation, the scenes are composited, and the conversion is applied to the composite.
type ImageQuery struct {
	Source               CollectionQuery
	NormalizedDifference bool
	Bands                []string
	Composite            Composite
	Conversion           Conversion
}

// Reduction parameters for an areal statistic over the region.
type Reduction struct {
	Region    ROI
	Scale     float64
	MaxPixels float64
}

// QueryService is the remote imagery analysis backend.
type QueryService interface {
	CollectionSize(ctx context.Context, q CollectionQuery) (int, error)
	ReduceRegion(ctx context.Context, img ImageQuery, r Reduction) (map[string]*float64, error)
	MapTiles(ctx context.Context, img ImageQuery, p Palette) (Visualization, error)
}

// MonthlyCache keeps monthly values of completed months.
type MonthlyCache interface {
	Get(key string) (MonthlyValue, bool)
	Put(key string, v MonthlyValue)
}

// GenerationRecord is what the recorder persists about a successful generation.
type GenerationRecord struct {
	ROIKey    string
	Bound     orb.Bound
	Feature   Feature
	StartDate string
	EndDate   string
	MapID     string
	Months    int
	NullCount int
	CreatedAt time.Time
}

// Recorder persists generation records.
type Recorder interface {
	RecordGeneration(ctx context.Context, rec GenerationRecord) error
}
