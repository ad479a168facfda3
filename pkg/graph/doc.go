// Package graph provides the wire formats for curriculum graphs and layouts.
//
// This package sits at the system boundary. The recommendation backend
// answers GET /grafo with a node-link document keyed by bare course codes:
//
//	{
//	  "nodes": [{"id": "CS101", "label": "Intro", "nivel": 1, "carrera": "CS"}],
//	  "edges": [{"source": "CS101", "target": "CS201", "tipo": "COURSE"}]
//	}
//
// [UnmarshalGraph] and [ReadGraph] decode that document and validate its
// shape before anything else sees it: the top level must be an object,
// "nodes" and "edges" must be arrays when present, every node needs an id
// and every edge both endpoints. A mismatch fails with an INVALID_GRAPH
// error instead of being coerced. Missing arrays decode as empty.
//
// [ToDataset] hands a validated graph to the normalizer. [FromDataset]
// goes the other way, exporting a normalized, laid-out dataset as a
// [Layout] document for API responses and the CLI:
//
//	g, err := graph.UnmarshalGraph(body)
//	ds, report := graph.ToDataset(g, transform.NormalizeOptions{Program: "CS"})
//	layout.Assign(ds, layout.DefaultOptions())
//	data, err := graph.MarshalLayout(graph.FromDataset(ds, overlay.State{}))
package graph
