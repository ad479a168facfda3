package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/curricula/pkg/curriculum"
	errs "github.com/matzehuels/curricula/pkg/errors"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// UnmarshalGraph decodes and validates a backend graph document.
// Shape mismatches return an error with code INVALID_GRAPH.
func UnmarshalGraph(data []byte) (Graph, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Graph{}, errs.Wrap(errs.ErrCodeInvalidGraph, err, "graph must be a JSON object")
	}
	if top == nil {
		return Graph{}, errs.New(errs.ErrCodeInvalidGraph, "graph must be a JSON object, got null")
	}

	var g Graph
	if err := decodeArray(top["nodes"], "nodes", &g.Nodes); err != nil {
		return Graph{}, err
	}
	if err := decodeArray(top["edges"], "edges", &g.Edges); err != nil {
		return Graph{}, err
	}
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}

	if err := g.Validate(); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// ReadGraph decodes and validates a graph document from r.
func ReadGraph(r io.Reader) (Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Graph{}, fmt.Errorf("read graph: %w", err)
	}
	return UnmarshalGraph(data)
}

// MarshalGraph encodes g as JSON.
func MarshalGraph(g Graph) ([]byte, error) {
	return json.Marshal(g)
}

// Validate checks field-level constraints that JSON decoding cannot.
func (g Graph) Validate() error {
	for i, n := range g.Nodes {
		if n.ID == "" {
			return errs.New(errs.ErrCodeInvalidGraph, "nodes[%d]: missing id", i)
		}
		if strings.Contains(n.ID, curriculum.IdentitySep) || strings.Contains(n.Program, curriculum.IdentitySep) {
			return errs.New(errs.ErrCodeInvalidGraph, "nodes[%d]: id and carrera must not contain %q", i, curriculum.IdentitySep)
		}
	}
	for i, e := range g.Edges {
		if e.Source == "" || e.Target == "" {
			return errs.New(errs.ErrCodeInvalidGraph, "edges[%d]: missing source or target", i)
		}
		if strings.Contains(e.Source, curriculum.IdentitySep) || strings.Contains(e.Target, curriculum.IdentitySep) {
			return errs.New(errs.ErrCodeInvalidGraph, "edges[%d]: source and target must not contain %q", i, curriculum.IdentitySep)
		}
		if e.Kind != "" && !curriculum.EdgeKind(e.Kind).Valid() {
			return errs.New(errs.ErrCodeInvalidGraph, "edges[%d]: unknown tipo %q", i, e.Kind)
		}
	}
	return nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

// decodeArray decodes raw into v, requiring a JSON array. Missing or null
// fields leave v untouched.
func decodeArray(raw json.RawMessage, field string, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '[' {
		return errs.New(errs.ErrCodeInvalidGraph, "%s must be an array", field)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidGraph, err, "decode %s", field)
	}
	return nil
}
