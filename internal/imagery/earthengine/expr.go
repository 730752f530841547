package earthengine

import (
	"strconv"

	"github.com/i474232898/geo-feature-maps/internal/imagery"
)

// value is one node of an Earth Engine expression graph. Exactly one field is set.
type value struct {
	ConstantValue           any                 `json:"constantValue,omitempty"`
	ValueReference          string              `json:"valueReference,omitempty"`
	ArgumentReference       string              `json:"argumentReference,omitempty"`
	FunctionInvocationValue *functionInvocation `json:"functionInvocationValue,omitempty"`
	FunctionDefinitionValue *functionDefinition `json:"functionDefinitionValue,omitempty"`
}

type functionInvocation struct {
	FunctionName string            `json:"functionName"`
	Arguments    map[string]*value `json:"arguments,omitempty"`
}

type functionDefinition struct {
	ArgumentNames []string `json:"argumentNames"`
	Body          string   `json:"body"`
}

// Expression is the request form of a value graph: a table of named nodes and the name of
// the node whose value is the result.
type Expression struct {
	Values map[string]*value `json:"values"`
	Result string            `json:"result"`
}

// graph accumulates nodes into an Expression.
type graph struct {
	values map[string]*value
}

func newGraph() *graph {
	return &graph{values: make(map[string]*value)}
}

// add stores v in the table and returns a reference to it.
func (g *graph) add(v *value) *value {
	key := strconv.Itoa(len(g.values))
	g.values[key] = v
	return &value{ValueReference: key}
}

func (g *graph) expression(result *value) Expression {
	key := strconv.Itoa(len(g.values))
	g.values[key] = result
	return Expression{Values: g.values, Result: key}
}

func constant(v any) *value {
	return &value{ConstantValue: v}
}

func call(name string, args map[string]*value) *value {
	return &value{FunctionInvocationValue: &functionInvocation{FunctionName: name, Arguments: args}}
}

func polygon(roi imagery.ROI) *value {
	return call("GeometryConstructors.Polygon", map[string]*value{
		"coordinates": constant(roi.Coordinates()),
		"evenOdd":     constant(true),
	})
}

// filteredCollection is ImageCollection.load(id).filterBounds(region).filterDate(start, end).
func (g *graph) filteredCollection(q imagery.CollectionQuery) *value {
	coll := call("ImageCollection.load", map[string]*value{
		"id": constant(q.Collection),
	})
	coll = call("Collection.filter", map[string]*value{
		"collection": coll,
		"filter": call("Filter.intersects", map[string]*value{
			"leftField":  constant(".all"),
			"rightValue": polygon(q.Region),
		}),
	})
	coll = call("Collection.filter", map[string]*value{
		"collection": coll,
		"filter": call("Filter.dateRangeContains", map[string]*value{
			"leftValue": call("DateRange", map[string]*value{
				"start": constant(q.Window.StartDate()),
				"end":   constant(q.Window.EndDate()),
			}),
			"rightField": constant("system:time_start"),
		}),
	})
	return g.add(coll)
}

const mappingVar = "_MAPPING_VAR_0_0"

// sceneOp maps the per-scene band operation over coll.
func (g *graph) sceneOp(coll *value, q imagery.ImageQuery) *value {
	scene := &value{ArgumentReference: mappingVar}

	var body *value
	if q.NormalizedDifference {
		body = call("Image.normalizedDifference", map[string]*value{
			"input":     scene,
			"bandNames": constant(q.Bands),
		})
	} else {
		body = call("Image.select", map[string]*value{
			"input":         scene,
			"bandSelectors": constant(q.Bands),
		})
	}
	bodyRef := g.add(body)

	return call("Collection.map", map[string]*value{
		"collection": coll,
		"baseAlgorithm": {FunctionDefinitionValue: &functionDefinition{
			ArgumentNames: []string{mappingVar},
			Body:          bodyRef.ValueReference,
		}},
	})
}

// image builds the composite described by q.
func (g *graph) image(q imagery.ImageQuery) *value {
	coll := g.filteredCollection(q.Source)

	var img *value
	switch q.Composite {
	case imagery.CompositeLatest:
		sorted := call("Collection.limit", map[string]*value{
			"collection": coll,
			"key":        constant("system:time_start"),
			"ascending":  constant(false),
		})
		first := call("Collection.first", map[string]*value{"collection": sorted})
		if q.NormalizedDifference {
			img = call("Image.normalizedDifference", map[string]*value{
				"input":     first,
				"bandNames": constant(q.Bands),
			})
		} else {
			img = call("Image.select", map[string]*value{
				"input":         first,
				"bandSelectors": constant(q.Bands),
			})
		}
	default:
		img = call("reduce.mean", map[string]*value{"collection": g.sceneOp(coll, q)})
	}

	if q.Conversion.Scale != 0 {
		img = call("Image.multiply", map[string]*value{
			"image1": img,
			"image2": call("Image.constant", map[string]*value{"value": constant(q.Conversion.Scale)}),
		})
	}
	if q.Conversion.Offset != 0 {
		img = call("Image.subtract", map[string]*value{
			"image1": img,
			"image2": call("Image.constant", map[string]*value{"value": constant(q.Conversion.Offset)}),
		})
	}
	return g.add(img)
}

func sizeExpression(q imagery.CollectionQuery) Expression {
	g := newGraph()
	coll := g.filteredCollection(q)
	return g.expression(call("Collection.size", map[string]*value{"collection": coll}))
}

func reduceExpression(q imagery.ImageQuery, r imagery.Reduction) Expression {
	g := newGraph()
	img := g.image(q)
	return g.expression(call("Image.reduceRegion", map[string]*value{
		"image":     img,
		"reducer":   call("Reducer.mean", nil),
		"geometry":  polygon(r.Region),
		"scale":     constant(r.Scale),
		"maxPixels": constant(r.MaxPixels),
	}))
}

func visualizeExpression(q imagery.ImageQuery, p imagery.Palette) Expression {
	g := newGraph()
	img := g.image(q)
	return g.expression(call("Image.visualize", map[string]*value{
		"image":   img,
		"min":     constant(p.Min),
		"max":     constant(p.Max),
		"palette": constant(p.Colors),
	}))
}
