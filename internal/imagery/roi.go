package imagery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// roiNamespace scopes ROI keys generated with uuid.NewSHA1.
var roiNamespace = uuid.MustParse("6f1c2a4e-8d0b-4c1e-9a57-3b2f0e9d7c41")

// ROI is a caller-supplied polygon. Raw keeps the exact JSON so it can be echoed back.
type ROI struct {
	Raw     json.RawMessage
	Polygon orb.Polygon
}

// ParseROI accepts polygon rings, a single ring, or a GeoJSON Polygon geometry.
func ParseROI(raw json.RawMessage) (ROI, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ROI{}, &ValidationError{Message: "ROI is required"}
	}

	var (
		poly orb.Polygon
		err  error
	)
	if trimmed[0] == '{' {
		poly, err = polygonFromGeoJSON(trimmed)
	} else {
		poly, err = polygonFromCoordinates(trimmed)
	}
	if err != nil {
		return ROI{}, &ValidationError{Message: "ROI must be a polygon: " + err.Error()}
	}

	return ROI{Raw: append(json.RawMessage(nil), trimmed...), Polygon: poly}, nil
}

func polygonFromGeoJSON(raw []byte) (orb.Polygon, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, err
	}
	poly, ok := g.Coordinates.(orb.Polygon)
	if !ok {
		return nil, fmt.Errorf("geometry type %s is not supported", g.Type)
	}
	return poly, validatePolygon(poly)
}

func polygonFromCoordinates(raw []byte) (orb.Polygon, error) {
	var rings [][][]float64
	if err := json.Unmarshal(raw, &rings); err != nil {
		var ring [][]float64
		if err2 := json.Unmarshal(raw, &ring); err2 != nil {
			return nil, fmt.Errorf("expected an array of [lon, lat] rings")
		}
		rings = [][][]float64{ring}
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("no rings")
	}

	poly := make(orb.Polygon, 0, len(rings))
	for i, coords := range rings {
		ring := make(orb.Ring, 0, len(coords)+1)
		for j, c := range coords {
			if len(c) < 2 {
				return nil, fmt.Errorf("ring %d position %d has %d coordinates", i, j, len(c))
			}
			ring = append(ring, orb.Point{c[0], c[1]})
		}
		poly = append(poly, ring)
	}
	return poly, validatePolygon(poly)
}

func validatePolygon(poly orb.Polygon) error {
	if len(poly) == 0 {
		return fmt.Errorf("no rings")
	}
	for i, ring := range poly {
		if distinctPositions(ring) < 3 {
			return fmt.Errorf("ring %d needs at least 3 distinct positions", i)
		}
		for _, p := range ring {
			if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
				return fmt.Errorf("ring %d has a non-finite coordinate", i)
			}
		}
	}
	return nil
}

func distinctPositions(ring orb.Ring) int {
	seen := make(map[orb.Point]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// Coordinates returns the rings as nested float arrays, the form the imagery service expects.
func (r ROI) Coordinates() [][][]float64 {
	out := make([][][]float64, 0, len(r.Polygon))
	for _, ring := range r.Polygon {
		coords := make([][]float64, 0, len(ring))
		for _, p := range ring {
			coords = append(coords, []float64{p[0], p[1]})
		}
		out = append(out, coords)
	}
	return out
}

// Key is a deterministic identifier for the polygon, independent of input formatting.
func (r ROI) Key() string {
	var buf bytes.Buffer
	for _, ring := range r.Polygon {
		buf.WriteByte('[')
		for _, p := range ring {
			buf.WriteString(strconv.FormatFloat(p[0], 'g', -1, 64))
			buf.WriteByte(',')
			buf.WriteString(strconv.FormatFloat(p[1], 'g', -1, 64))
			buf.WriteByte(';')
		}
		buf.WriteByte(']')
	}
	return uuid.NewSHA1(roiNamespace, buf.Bytes()).String()
}

// Bound is the polygon's bounding box.
func (r ROI) Bound() orb.Bound {
	return r.Polygon.Bound()
}
