package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/geo-feature-maps/internal/imagery"
)

// DefaultBaseURL is the public Earth Engine REST endpoint.
const DefaultBaseURL = "https://earthengine.googleapis.com"

// Client implements imagery.QueryService on top of the Earth Engine REST API.
type Client struct {
	baseURL string
	project string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

var _ imagery.QueryService = (*Client)(nil)

// NewClient creates a Client. client must already attach service-account credentials.
func NewClient(client *http.Client, project, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "earthengine",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		project: project,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// WithBackoff replaces the retry policy.
func (c *Client) WithBackoff(b BackoffConfig) *Client {
	c.httpCfg.Backoff = b
	return c
}

// CollectionSize counts the scenes matching q.
func (c *Client) CollectionSize(ctx context.Context, q imagery.CollectionQuery) (int, error) {
	var out struct {
		Result *float64 `json:"result"`
	}
	if err := c.compute(ctx, sizeExpression(q), &out); err != nil {
		return 0, fmt.Errorf("collection size of %s: %w", q.Collection, err)
	}
	if out.Result == nil {
		return 0, fmt.Errorf("collection size of %s: response has no result", q.Collection)
	}
	return int(*out.Result), nil
}

// ReduceRegion computes the mean of img over the reduction region. Bands without a value
// come back as nil.
func (c *Client) ReduceRegion(ctx context.Context, img imagery.ImageQuery, r imagery.Reduction) (map[string]*float64, error) {
	var out struct {
		Result map[string]*float64 `json:"result"`
	}
	if err := c.compute(ctx, reduceExpression(img, r), &out); err != nil {
		return nil, fmt.Errorf("reduce region of %s: %w", img.Source.Collection, err)
	}
	if out.Result == nil {
		return nil, fmt.Errorf("reduce region of %s: response has no result", img.Source.Collection)
	}
	return out.Result, nil
}

// MapTiles creates a map resource for the visualized image and returns its tile descriptor.
func (c *Client) MapTiles(ctx context.Context, img imagery.ImageQuery, p imagery.Palette) (imagery.Visualization, error) {
	body := struct {
		Expression Expression `json:"expression"`
		FileFormat string     `json:"fileFormat"`
	}{
		Expression: visualizeExpression(img, p),
		FileFormat: "AUTO_JPEG_PNG",
	}

	var out struct {
		Name string `json:"name"`
	}
	if err := c.post(ctx, c.projectURL("maps"), body, &out); err != nil {
		return imagery.Visualization{}, fmt.Errorf("create map for %s: %w", img.Source.Collection, err)
	}
	if out.Name == "" {
		return imagery.Visualization{}, fmt.Errorf("create map for %s: response has no map name", img.Source.Collection)
	}

	return imagery.Visualization{
		MapID:     out.Name,
		Token:     out.Name[strings.LastIndex(out.Name, "/")+1:],
		URLFormat: fmt.Sprintf("%s/v1/%s/tiles/{z}/{x}/{y}", c.baseURL, out.Name),
	}, nil
}

func (c *Client) projectURL(method string) string {
	return fmt.Sprintf("%s/v1/projects/%s/%s", c.baseURL, c.project, method)
}

func (c *Client) compute(ctx context.Context, expr Expression, out any) error {
	body := struct {
		Expression Expression `json:"expression"`
	}{Expression: expr}
	return c.post(ctx, c.projectURL("value:compute"), body, out)
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
