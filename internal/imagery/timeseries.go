package imagery

import (
	"context"
	"log"
	"time"
)

const (
	reduceScale     = 1000
	reduceMaxPixels = 1e9
)

// MonthlyWindows returns one window per calendar month from start through end. Each window
// spans the first through the last day of its month; the final window is not clamped to end.
func MonthlyWindows(start, end time.Time) []Window {
	start = truncateDay(start)
	end = truncateDay(end)

	var windows []Window
	for cur := start; !cur.After(end); {
		next := time.Date(cur.Year(), cur.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		windows = append(windows, Window{Start: cur, End: next.AddDate(0, 0, -1)})
		cur = next
	}
	return windows
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// buildMonthlyValues computes one aggregate per month for the feature over roi.
func (s *Service) buildMonthlyValues(ctx context.Context, roi ROI, spec FeatureSpec, start, end time.Time) ([]MonthlyValue, error) {
	windows := MonthlyWindows(start, end)
	values := make([]MonthlyValue, 0, len(windows))
	today := truncateDay(s.now())
	roiKey := roi.Key()

	for _, w := range windows {
		cacheKey := monthlyCacheKey(roiKey, spec.Feature, w)
		if s.cache != nil {
			if v, ok := s.cache.Get(cacheKey); ok {
				values = append(values, v)
				continue
			}
		}

		v, err := s.monthlyValue(ctx, roi, spec, w)
		if err != nil {
			return nil, err
		}
		values = append(values, v)

		// The current month can still gain scenes.
		if s.cache != nil && w.End.Before(today) {
			s.cache.Put(cacheKey, v)
		}
	}
	return values, nil
}

func (s *Service) monthlyValue(ctx context.Context, roi ROI, spec FeatureSpec, w Window) (MonthlyValue, error) {
	source := CollectionQuery{Collection: spec.Collection, Region: roi, Window: w}
	mv := MonthlyValue{Date: w.StartDate()}

	if spec.SkipEmptyMonths {
		n, err := s.query.CollectionSize(ctx, source)
		if err != nil {
			return MonthlyValue{}, upstream("collection size", err)
		}
		if n == 0 {
			log.Printf("ERROR: No %s data available for the date range: %s to %s", spec.Feature, w.StartDate(), w.EndDate())
			return mv, nil
		}
	}

	img := ImageQuery{
		Source:               source,
		NormalizedDifference: spec.NormalizedDifference,
		Bands:                spec.Bands,
		Composite:            CompositeMean,
		Conversion:           spec.SeriesConversion,
	}
	reduced, err := s.query.ReduceRegion(ctx, img, Reduction{
		Region:    roi,
		Scale:     reduceScale,
		MaxPixels: reduceMaxPixels,
	})
	if err != nil {
		return MonthlyValue{}, upstream("reduce region", err)
	}

	mv.Value = reduced[spec.ValueKey]
	return mv, nil
}

func monthlyCacheKey(roiKey string, f Feature, w Window) string {
	return roiKey + "|" + string(f) + "|" + w.StartDate()
}
