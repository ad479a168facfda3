// Package loader fetches curriculum graphs and publishes laid-out datasets.
//
// A [Loader] owns the "current" dataset shown by the map. Each call to
// [Loader.Load] starts a new generation and cancels the previous in-flight
// load. A load publishes its result only if its generation is still the
// newest when it finishes; otherwise it returns [ErrSuperseded] and the
// newer load's result stands. This holds even for sources that ignore
// cancellation.
//
// Fetch failures do not fail a load: they are logged, the dataset degrades
// to empty, and the failure is kept in [Snapshot.Err].
package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/curricula/pkg/curriculum"
	"github.com/matzehuels/curricula/pkg/curriculum/layout"
	"github.com/matzehuels/curricula/pkg/curriculum/transform"
	"github.com/matzehuels/curricula/pkg/graph"
	"github.com/matzehuels/curricula/pkg/observability"
)

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load started before it finished.
var ErrSuperseded = errors.New("load superseded by a newer load")

// Source provides curriculum graphs.
type Source interface {
	Graph(ctx context.Context, program string) (graph.Graph, error)
}

// ProgramSource additionally lists programs.
type ProgramSource interface {
	Source
	Programs(ctx context.Context) ([]string, error)
}

// Options configures normalization and layout.
type Options struct {
	Policy transform.Policy
	Layout layout.Options
}

// Snapshot is a published load result.
type Snapshot struct {
	Program    string
	Generation uint64
	Dataset    *curriculum.Dataset
	Report     transform.Report
	Programs   []string
	LoadedAt   time.Time

	// Err is the fetch failure that degraded Dataset to empty, if any.
	Err error
}

// Loader serializes dataset loads. It is safe for concurrent use.
type Loader struct {
	src    Source
	opts   Options
	logger *log.Logger

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current Snapshot
}

// New creates a loader. The initial snapshot is an empty dataset at
// generation 0.
func New(src Source, logger *log.Logger, opts Options) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		src:     src,
		opts:    opts,
		logger:  logger,
		current: Snapshot{Dataset: curriculum.NewDataset(""), Programs: []string{}},
	}
}

// Current returns the last published snapshot.
func (l *Loader) Current() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Generation returns the newest started generation.
func (l *Loader) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Load fetches the graph for program ("" for all programs), normalizes and
// lays it out, and publishes it. The program list of the current snapshot
// is carried over.
func (l *Loader) Load(ctx context.Context, program string) (Snapshot, error) {
	gen, ctx, cancel := l.begin(ctx)
	defer cancel()

	start := time.Now()
	observability.Load().OnLoadStart(ctx, program, gen)

	g, err := l.src.Graph(ctx, program)
	return l.finish(ctx, program, gen, g, err, nil, start)
}

// LoadWithPrograms is Load that also refreshes the program list. The list
// and the graph are fetched concurrently. A failed list fetch keeps the
// previous list.
func (l *Loader) LoadWithPrograms(ctx context.Context, program string) (Snapshot, error) {
	gen, ctx, cancel := l.begin(ctx)
	defer cancel()

	start := time.Now()
	observability.Load().OnLoadStart(ctx, program, gen)

	var (
		g        graph.Graph
		graphErr error
		programs []string
	)
	var eg errgroup.Group
	eg.Go(func() error {
		g, graphErr = l.src.Graph(ctx, program)
		return nil
	})
	if ps, ok := l.src.(ProgramSource); ok {
		eg.Go(func() error {
			list, err := ps.Programs(ctx)
			if err != nil {
				if ctx.Err() == nil {
					l.logger.Warn("program list fetch failed", "error", err)
				}
				return nil
			}
			programs = list
			return nil
		})
	}
	_ = eg.Wait()

	return l.finish(ctx, program, gen, g, graphErr, programs, start)
}

// begin starts a new generation, cancelling the previous load.
func (l *Loader) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.cancel = cancel
	return l.gen, ctx, cancel
}

func (l *Loader) stale(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen != gen
}

func (l *Loader) finish(ctx context.Context, program string, gen uint64, g graph.Graph, fetchErr error, programs []string, start time.Time) (Snapshot, error) {
	if l.stale(gen) {
		observability.Load().OnLoadSuperseded(ctx, program, gen)
		return Snapshot{}, ErrSuperseded
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if fetchErr != nil {
		l.logger.Warn("graph fetch failed, showing an empty map", "program", program, "error", fetchErr)
		g = graph.Graph{}
	}

	ds, report := graph.ToDataset(g, transform.NormalizeOptions{Program: program, Policy: l.opts.Policy})
	ds.Generation = gen
	layout.Assign(ds, l.opts.Layout)
	if report.Ambiguous != nil {
		l.logger.Debug("ambiguous course codes", "program", program, "codes", report.Ambiguous)
	}

	snap := Snapshot{
		Program:    program,
		Generation: gen,
		Dataset:    ds,
		Report:     report,
		Programs:   programs,
		LoadedAt:   time.Now(),
		Err:        fetchErr,
	}

	l.mu.Lock()
	if l.gen != gen {
		l.mu.Unlock()
		observability.Load().OnLoadSuperseded(ctx, program, gen)
		return Snapshot{}, ErrSuperseded
	}
	if snap.Programs == nil {
		snap.Programs = l.current.Programs
	}
	l.current = snap
	l.mu.Unlock()

	observability.Load().OnLoadComplete(ctx, program, gen, ds.NodeCount(), time.Since(start), fetchErr)
	l.logger.Debug("dataset published", "program", program, "generation", gen, "nodes", ds.NodeCount(), "edges", ds.EdgeCount())
	return snap, nil
}
