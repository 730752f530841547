package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/geo-feature-maps/internal/imagery"
)

type stubQuery struct {
	size     int
	value    float64
	tilesErr error
}

func (s *stubQuery) CollectionSize(context.Context, imagery.CollectionQuery) (int, error) {
	return s.size, nil
}

func (s *stubQuery) ReduceRegion(context.Context, imagery.ImageQuery, imagery.Reduction) (map[string]*float64, error) {
	v := s.value
	return map[string]*float64{"nd": &v}, nil
}

func (s *stubQuery) MapTiles(context.Context, imagery.ImageQuery, imagery.Palette) (imagery.Visualization, error) {
	if s.tilesErr != nil {
		return imagery.Visualization{}, s.tilesErr
	}
	return imagery.Visualization{
		MapID:     "projects/p/maps/m1",
		Token:     "m1",
		URLFormat: "https://earthengine.googleapis.com/v1/projects/p/maps/m1/tiles/{z}/{x}/{y}",
	}, nil
}

func newTestApp(q imagery.QueryService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return time.Date(2023, 6, 10, 12, 0, 0, 0, time.UTC) }
	svc := imagery.NewService(q, imagery.DefaultCatalog(), start, imagery.WithClock(clock))
	RegisterRoutes(app, svc)
	return app
}

func postJSON(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate_map", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("response is not JSON: %s", raw)
	}
	return resp.StatusCode, out
}

const validROI = `[[[-121.9,37.3],[-121.8,37.3],[-121.8,37.4],[-121.9,37.3]]]`

// TestGenerateMapValidation verifies the fixed messages for missing inputs.
func TestGenerateMapValidation(t *testing.T) {
	app := newTestApp(&stubQuery{size: 1})

	cases := []struct {
		body string
		want string
	}{
		{`{"feature": "NDVI"}`, "ROI is required"},
		{`{"roi": null, "feature": "NDVI"}`, "ROI is required"},
		{`{"roi": [], "feature": "NDVI"}`, "ROI is required"},
		{`{}`, "ROI is required"},
		{`{"roi": ` + validROI + `}`, "Feature is required"},
		{`{"roi": ` + validROI + `, "feature": ""}`, "Feature is required"},
		{`not json`, "Invalid request body"},
		{`{"roi": ` + validROI + `, "feature": "EVI"}`, "Unsupported feature: EVI (expected one of LST, NDVI, SM)"},
	}
	for _, tc := range cases {
		status, out := postJSON(t, app, tc.body)
		if status != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", tc.body, http.StatusBadRequest, status)
		}
		if out["error"] != tc.want {
			t.Errorf("%s: expected error %q, got %v", tc.body, tc.want, out["error"])
		}
	}
}

func TestGenerateMapImageryUnavailable(t *testing.T) {
	app := newTestApp(&stubQuery{size: 0})

	status, out := postJSON(t, app, `{"roi": `+validROI+`, "feature": "LST"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, status)
	}
	if out["error"] != "No LST data available for the given ROI and date range." {
		t.Errorf("unexpected error %v", out["error"])
	}
}

func TestGenerateMapUpstreamFailure(t *testing.T) {
	app := newTestApp(&stubQuery{size: 1, tilesErr: errors.New("dial tcp: timeout")})

	status, out := postJSON(t, app, `{"roi": `+validROI+`, "feature": "NDVI"}`)
	if status != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, status)
	}
	if out["error"] != "imagery service request failed" {
		t.Errorf("unexpected error %v", out["error"])
	}
}

func TestGenerateMapSuccess(t *testing.T) {
	app := newTestApp(&stubQuery{size: 3, value: 0.61})

	status, out := postJSON(t, app, `{"roi": `+validROI+`, "feature": "NDVI"}`)
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%v)", http.StatusOK, status, out)
	}

	mc, ok := out["map_config"].(map[string]any)
	if !ok {
		t.Fatalf("missing map_config: %v", out)
	}
	if mc["feature"] != "NDVI" || mc["start_date"] != "2023-01-01" || mc["end_date"] != "2023-06-10" {
		t.Errorf("unexpected map_config %v", mc)
	}
	if _, ok := mc["roi"].([]any); !ok {
		t.Errorf("roi should be echoed as an array, got %T", mc["roi"])
	}
	vis, _ := mc["visualization"].(map[string]any)
	for _, k := range []string{"mapid", "token", "url_format"} {
		if s, _ := vis[k].(string); s == "" {
			t.Errorf("visualization.%s should be a non-empty string, got %v", k, vis[k])
		}
	}

	values, ok := out["monthly_values"].([]any)
	if !ok || len(values) != 6 {
		t.Fatalf("expected 6 monthly values, got %v", out["monthly_values"])
	}
	first := values[0].(map[string]any)
	if first["date"] != "2023-01-01" || first["value"] != 0.61 {
		t.Errorf("unexpected first value %v", first)
	}
	last := values[5].(map[string]any)
	if last["date"] != "2023-06-01" {
		t.Errorf("unexpected last date %v", last["date"])
	}
}

func TestListFeatures(t *testing.T) {
	app := newTestApp(&stubQuery{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/features", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var out struct {
		Features []imagery.FeatureSpec `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Features) != 3 || out.Features[1].Feature != imagery.FeatureNDVI {
		t.Errorf("unexpected features %+v", out.Features)
	}
}
