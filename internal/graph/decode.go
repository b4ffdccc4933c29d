// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kaptinlin/jsonrepair"

	"github.com/pdiddy/notegraph/pkg/types"
)

// Reason classifies why model output could not become a graph.
type Reason string

const (
	// ReasonMalformed means the output is not JSON text.
	ReasonMalformed Reason = "malformed_json"

	// ReasonSchemaMismatch means the output is JSON but not a graph: wrong
	// top-level type, wrong field types or missing required fields.
	ReasonSchemaMismatch Reason = "schema_mismatch"
)

// DecodeError reports model output that was rejected by Decode.
type DecodeError struct {
	Reason Reason
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// The wire types use pointers so that a missing field can be told apart
// from an empty string. Only presence is validated; the json tags name the
// fields in validation messages.
type wireNode struct {
	ID    *string `json:"id" validate:"required"`
	Label *string `json:"label" validate:"required"`
}

type wireEdge struct {
	Source *string `json:"source" validate:"required"`
	Target *string `json:"target" validate:"required"`
	Label  *string `json:"label" validate:"required"`
}

type wireGraph struct {
	Nodes []wireNode `json:"nodes" validate:"dive"`
	Edges []wireEdge `json:"edges" validate:"dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decoder turns the text of a completion into a KnowledgeGraph.
type Decoder struct {
	// Repair runs jsonrepair once over output that fails to parse.
	Repair bool
}

// Decode parses and validates model output. On success the graph is returned
// exactly as the model produced it. On failure it returns an empty graph and
// a *DecodeError.
func (d Decoder) Decode(content string) (types.KnowledgeGraph, error) {
	data := []byte(content)

	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		if !d.Repair {
			return types.EmptyGraph(), &DecodeError{Reason: ReasonMalformed, Err: err}
		}
		fixed, rerr := jsonrepair.JSONRepair(content)
		if rerr != nil {
			return types.EmptyGraph(), &DecodeError{Reason: ReasonMalformed, Err: err}
		}
		data = []byte(fixed)
		if err := json.Unmarshal(data, &top); err != nil {
			return types.EmptyGraph(), &DecodeError{Reason: ReasonMalformed, Err: err}
		}
	}

	obj, ok := top.(map[string]any)
	if !ok {
		return types.EmptyGraph(), mismatch(fmt.Errorf("top-level value is %s, want object", jsonKind(top)))
	}

	wg, err := wireFromObject(obj)
	if err != nil {
		return types.EmptyGraph(), mismatch(err)
	}
	if err := validate.Struct(wg); err != nil {
		return types.EmptyGraph(), mismatch(formatValidationError(err))
	}

	return wg.toGraph(), nil
}

func mismatch(err error) *DecodeError {
	return &DecodeError{Reason: ReasonSchemaMismatch, Err: err}
}

// wireFromObject reads the graph out of a decoded JSON object. Keys match
// exactly: "ID" does not stand in for "id". Absent keys leave nil fields for
// the validator to report.
func wireFromObject(obj map[string]any) (wireGraph, error) {
	var wg wireGraph

	nodes, err := objectList(obj, "nodes")
	if err != nil {
		return wireGraph{}, err
	}
	for i, m := range nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		var n wireNode
		if n.ID, err = stringField(m, path, "id"); err != nil {
			return wireGraph{}, err
		}
		if n.Label, err = stringField(m, path, "label"); err != nil {
			return wireGraph{}, err
		}
		wg.Nodes = append(wg.Nodes, n)
	}

	edges, err := objectList(obj, "edges")
	if err != nil {
		return wireGraph{}, err
	}
	for i, m := range edges {
		path := fmt.Sprintf("edges[%d]", i)
		var e wireEdge
		if e.Source, err = stringField(m, path, "source"); err != nil {
			return wireGraph{}, err
		}
		if e.Target, err = stringField(m, path, "target"); err != nil {
			return wireGraph{}, err
		}
		if e.Label, err = stringField(m, path, "label"); err != nil {
			return wireGraph{}, err
		}
		wg.Edges = append(wg.Edges, e)
	}
	return wg, nil
}

// objectList returns obj[key] as a list of objects. A missing key is an
// empty list; null or any other type is an error.
func objectList(obj map[string]any, key string) ([]map[string]any, error) {
	v, ok := obj[key]
	if !ok {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s is %s, want array", key, jsonKind(v))
	}
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is %s, want object", key, i, jsonKind(item))
		}
		out = append(out, m)
	}
	return out, nil
}

func stringField(m map[string]any, path, key string) (*string, error) {
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%s.%s is %s, want string", path, key, jsonKind(v))
	}
	return &s, nil
}

func (wg wireGraph) toGraph() types.KnowledgeGraph {
	g := types.KnowledgeGraph{
		Nodes: make([]types.Node, 0, len(wg.Nodes)),
		Edges: make([]types.Edge, 0, len(wg.Edges)),
	}
	for _, n := range wg.Nodes {
		g.Nodes = append(g.Nodes, types.Node{ID: *n.ID, Label: *n.Label})
	}
	for _, e := range wg.Edges {
		g.Edges = append(g.Edges, types.Edge{Source: *e.Source, Target: *e.Target, Label: *e.Label})
	}
	return g
}

// formatValidationError lists the missing fields by their JSON path,
// e.g. "nodes[0].id is required".
func formatValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		msgs = append(msgs, fmt.Sprintf("%s is %s", path, fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
