package imagery

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseROIForms(t *testing.T) {
	rings := `[[[10,20],[11,20],[11,21],[10,21],[10,20]]]`
	ring := `[[10,20],[11,20],[11,21],[10,21],[10,20]]`
	geo := `{"type":"Polygon","coordinates":[[[10,20],[11,20],[11,21],[10,21],[10,20]]]}`

	var keys []string
	for _, raw := range []string{rings, ring, geo} {
		roi, err := ParseROI(json.RawMessage(raw))
		if err != nil {
			t.Fatalf("ParseROI(%s): %v", raw, err)
		}
		if len(roi.Polygon) != 1 || len(roi.Polygon[0]) != 5 {
			t.Errorf("ParseROI(%s): unexpected polygon %v", raw, roi.Polygon)
		}
		if string(roi.Raw) != raw {
			t.Errorf("raw input not preserved: %s", roi.Raw)
		}
		keys = append(keys, roi.Key())
	}

	if keys[0] != keys[1] || keys[1] != keys[2] {
		t.Errorf("expected identical keys for the same polygon, got %v", keys)
	}

	b := mustROI(t, rings).Bound()
	if b.Min[0] != 10 || b.Max[1] != 21 {
		t.Errorf("unexpected bound %v", b)
	}
}

func TestParseROIKeyDiffers(t *testing.T) {
	a := mustROI(t, `[[[10,20],[11,20],[11,21],[10,20]]]`)
	b := mustROI(t, `[[[10,20],[11,20],[11,22],[10,20]]]`)
	if a.Key() == b.Key() {
		t.Error("expected different keys for different polygons")
	}
}

func TestParseROICoordinates(t *testing.T) {
	roi := mustROI(t, `[[[1.5,2.5,100],[3,2.5],[3,4]]]`)
	coords := roi.Coordinates()
	if len(coords) != 1 || len(coords[0]) != 3 {
		t.Fatalf("unexpected coordinates %v", coords)
	}
	if coords[0][0][0] != 1.5 || coords[0][0][1] != 2.5 || len(coords[0][0]) != 2 {
		t.Errorf("expected altitude to be dropped, got %v", coords[0][0])
	}
}

func TestParseROIInvalid(t *testing.T) {
	cases := []string{
		``,
		`"not a polygon"`,
		`[]`,
		`[[[1,2],[3,4],[1,2]]]`,
		`[[[1,2],[3,4],[3,4],[1,2]]]`,
		`[[[10,20],[11,20],[11,21],[10,21],[10,20]],[[1,2],[3,4],[1,2]]]`,
		`[[[1],[3,4],[5,6]]]`,
		`{"type":"Point","coordinates":[1,2]}`,
		`{"type":"Polygon"`,
	}
	for _, raw := range cases {
		_, err := ParseROI(json.RawMessage(raw))
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("ParseROI(%q): expected ValidationError, got %v", raw, err)
		}
	}
}

func mustROI(t *testing.T, raw string) ROI {
	t.Helper()
	roi, err := ParseROI(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("ParseROI(%s): %v", raw, err)
	}
	return roi
}
