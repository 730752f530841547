package imagery

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

// Feature selects which satellite product a request is about.
type Feature string

const (
	FeatureNDVI Feature = "NDVI"
	FeatureSM   Feature = "SM"
	FeatureLST  Feature = "LST"
)

// Composite describes how a filtered collection collapses into a single image.
type Composite string

const (
	// CompositeLatest takes the most recent scene by system:time_start.
	CompositeLatest Composite = "latest"
	// CompositeMean takes the per-pixel mean across all scenes.
	CompositeMean Composite = "mean"
)

// Conversion is applied to a composite image: first multiplied by Scale (when non-zero),
// then Offset is subtracted (when non-zero).
type Conversion struct {
	Scale  float64 `yaml:"scale" json:"scale,omitempty"`
	Offset float64 `yaml:"offset" json:"offset,omitempty"`
}

// IsZero reports whether the conversion leaves values untouched.
func (c Conversion) IsZero() bool {
	return c.Scale == 0 && c.Offset == 0
}

// Palette is a min/max stretch with a list of colors, as accepted by the tile service.
type Palette struct {
	Min    float64  `yaml:"min" json:"min"`
	Max    float64  `yaml:"max" json:"max"`
	Colors []string `yaml:"colors" json:"colors"`
}

// FeatureSpec holds everything the builders need to know about one feature.
type FeatureSpec struct {
	Feature    Feature `json:"feature"`
	Collection string  `json:"collection"`

	// NormalizedDifference computes (Bands[0]-Bands[1])/(Bands[0]+Bands[1]) per scene;
	// otherwise Bands[0] is selected as-is.
	NormalizedDifference bool     `json:"normalized_difference"`
	Bands                []string `json:"bands"`

	MapComposite     Composite  `json:"map_composite"`
	MapConversion    Conversion `json:"map_conversion"`
	SeriesConversion Conversion `json:"series_conversion"`

	// ValueKey is the key read from the reduced dictionary for the monthly series.
	ValueKey string  `json:"value_key"`
	Palette  Palette `json:"palette"`

	// SkipEmptyMonths emits a null monthly value without reducing when a month has no scenes.
	SkipEmptyMonths bool `json:"skip_empty_months"`
}

// Catalog maps features to their definitions.
type Catalog map[Feature]FeatureSpec

// DefaultCatalog returns the built-in feature definitions.
func DefaultCatalog() Catalog {
	return Catalog{
		FeatureNDVI: {
			Feature:              FeatureNDVI,
			Collection:           "COPERNICUS/S2_SR",
			NormalizedDifference: true,
			Bands:                []string{"B8", "B4"},
			MapComposite:         CompositeLatest,
			ValueKey:             "nd",
			Palette: Palette{
				Min:    -1,
				Max:    1,
				Colors: []string{"red", "yellow", "green"},
			},
		},
		FeatureSM: {
			Feature:      FeatureSM,
			Collection:   "NASA/SMAP/SPL3SMP_E/006",
			Bands:        []string{"soil_moisture_am"},
			MapComposite: CompositeMean,
			ValueKey:     "sm",
			Palette: Palette{
				Min:    0,
				Max:    1,
				Colors: []string{"0300ff", "418504", "efff07", "efff07", "ff0303"},
			},
			SkipEmptyMonths: true,
		},
		FeatureLST: {
			Feature:      FeatureLST,
			Collection:   "MODIS/061/MOD21A1D",
			Bands:        []string{"LST_1KM"},
			MapComposite: CompositeMean,
			// Map view applies the product scale factor; the monthly series does not.
			MapConversion:    Conversion{Scale: 0.02, Offset: 273.15},
			SeriesConversion: Conversion{Offset: 273.15},
			ValueKey:         "LST_1KM",
			Palette: Palette{
				Min:    -10,
				Max:    40,
				Colors: []string{"blue", "white", "red"},
			},
			SkipEmptyMonths: true,
		},
	}
}

// Lookup resolves a raw feature name against the catalog.
func (c Catalog) Lookup(name string) (FeatureSpec, error) {
	spec, ok := c[Feature(name)]
	if !ok {
		return FeatureSpec{}, &ValidationError{
			Message: fmt.Sprintf("Unsupported feature: %s (expected one of %s)", name, strings.Join(c.Names(), ", ")),
		}
	}
	return spec, nil
}

// Names returns the catalog's feature names in a stable order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for f := range c {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// Specs returns the catalog entries sorted by feature name.
func (c Catalog) Specs() []FeatureSpec {
	specs := make([]FeatureSpec, 0, len(c))
	for _, name := range c.Names() {
		specs = append(specs, c[Feature(name)])
	}
	return specs
}

// catalogOverride mirrors FeatureSpec with optional fields so a file only needs to name
// what it changes.
type catalogOverride struct {
	Collection           *string     `yaml:"collection"`
	NormalizedDifference *bool       `yaml:"normalized_difference"`
	Bands                []string    `yaml:"bands"`
	MapComposite         *Composite  `yaml:"map_composite"`
	MapConversion        *Conversion `yaml:"map_conversion"`
	SeriesConversion     *Conversion `yaml:"series_conversion"`
	ValueKey             *string     `yaml:"value_key"`
	Palette              *Palette    `yaml:"palette"`
	SkipEmptyMonths      *bool       `yaml:"skip_empty_months"`
}

type catalogFile struct {
	Features map[string]catalogOverride `yaml:"features"`
}

// LoadCatalog returns the default catalog with overrides from the YAML file at path applied.
// An empty path returns the defaults.
func LoadCatalog(path string) (Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feature catalog: %w", err)
	}
	return ApplyCatalogYAML(catalog, raw)
}

// ApplyCatalogYAML applies a YAML override document to catalog and returns the result.
func ApplyCatalogYAML(catalog Catalog, raw []byte) (Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse feature catalog: %w", err)
	}

	for name, o := range file.Features {
		spec, ok := catalog[Feature(name)]
		if !ok {
			return nil, fmt.Errorf("feature catalog: unknown feature %q", name)
		}
		if o.Collection != nil {
			spec.Collection = *o.Collection
		}
		if o.NormalizedDifference != nil {
			spec.NormalizedDifference = *o.NormalizedDifference
		}
		if len(o.Bands) > 0 {
			spec.Bands = o.Bands
		}
		if o.MapComposite != nil {
			spec.MapComposite = *o.MapComposite
		}
		if o.MapConversion != nil {
			spec.MapConversion = *o.MapConversion
		}
		if o.SeriesConversion != nil {
			spec.SeriesConversion = *o.SeriesConversion
		}
		if o.ValueKey != nil {
			spec.ValueKey = *o.ValueKey
		}
		if o.Palette != nil {
			spec.Palette = *o.Palette
		}
		if o.SkipEmptyMonths != nil {
			spec.SkipEmptyMonths = *o.SkipEmptyMonths
		}
		if err := spec.validate(); err != nil {
			return nil, fmt.Errorf("feature catalog: %s: %w", name, err)
		}
		catalog[Feature(name)] = spec
	}
	return catalog, nil
}

func (s FeatureSpec) validate() error {
	switch {
	case s.Collection == "":
		return fmt.Errorf("collection is required")
	case s.NormalizedDifference && len(s.Bands) != 2:
		return fmt.Errorf("normalized difference needs exactly 2 bands, got %d", len(s.Bands))
	case !s.NormalizedDifference && len(s.Bands) != 1:
		return fmt.Errorf("band selection needs exactly 1 band, got %d", len(s.Bands))
	case s.MapComposite != CompositeLatest && s.MapComposite != CompositeMean:
		return fmt.Errorf("unknown map composite %q", s.MapComposite)
	case s.ValueKey == "":
		return fmt.Errorf("value key is required")
	case len(s.Palette.Colors) == 0:
		return fmt.Errorf("palette needs at least one color")
	}
	return nil
}
