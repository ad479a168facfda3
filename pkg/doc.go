// Package pkg provides the libraries behind curricula, a prerequisite map
// and term planner for university curricula.
//
// # Overview
//
// Curricula reads a curriculum graph from the recommendation backend, keys
// every course by code and program, lays the courses out in level columns,
// and serves the result to the web app and the CLI. Approved-course
// histories are edited as drafts and written back in one save.
//
//	backend (/api/grafo)
//	         ↓
//	    [graph] decode and validate
//	         ↓
//	    [curriculum/transform] identities, duplicates, unresolved edges
//	         ↓
//	    [curriculum/layout] pinned level columns
//	         ↓
//	    [overlay] hover, selection, camera
//	         ↓
//	    [graph] layout JSON or [render/nodelink] DOT/SVG
//
// # Quick Start
//
//	client, _ := backend.NewClient(backend.DefaultBaseURL)
//	l := loader.New(client, nil, loader.Options{})
//	snap, _ := l.Load(ctx, "Ingenieria de Software")
//	layout := graph.FromDataset(snap.Dataset, overlay.State{})
//
// # Main Packages
//
// ## Domain
//
// [curriculum] - Courses, prerequisite edges, and the dataset keyed by
// composite identity. [curriculum/transform] normalizes raw graphs and
// [curriculum/layout] positions them.
//
// [overlay] - The interaction state machine (hover, select, focus) and the
// camera that follows it, plus node and edge styling.
//
// [loader] - Serializes dataset loads so only the newest one is published.
//
// [history] - Draft editing of approved courses, the explicit history cache,
// and the syncer that writes drafts back.
//
// ## Infrastructure
//
// [backend] - Rate-limited, retrying, cached client for the recommendation
// backend.
//
// [cache] - File, Redis, and null byte caches with shared key naming.
//
// [session] - Sessions from auth-provider JWTs, stored in memory, Redis, or
// files.
//
// [plans] - Archive of planner answers in MongoDB or memory.
//
// [server] - The HTTP API the web app talks to.
//
// [config] - TOML/YAML configuration with environment overrides.
//
// [errors] - Coded errors with user-facing messages and HTTP statuses.
//
// [observability] - Hooks for load, cache, and HTTP events.
package pkg
