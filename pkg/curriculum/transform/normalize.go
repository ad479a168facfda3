package transform

import (
	"slices"

	"github.com/matzehuels/curricula/pkg/curriculum"
)

// Policy selects which identity an ambiguous bare code resolves to when no
// program preference applies.
type Policy int

const (
	// ResolveLastSeen resolves to the last node read with the code.
	ResolveLastSeen Policy = iota
	// ResolveFirstSeen resolves to the first node read with the code.
	ResolveFirstSeen
)

// String returns the policy name used in config files.
func (p Policy) String() string {
	if p == ResolveFirstSeen {
		return "first"
	}
	return "last"
}

// ParsePolicy converts a config value to a Policy. Unknown values map to
// ResolveLastSeen.
func ParsePolicy(s string) Policy {
	if s == "first" {
		return ResolveFirstSeen
	}
	return ResolveLastSeen
}

// NormalizeOptions configures [Normalize].
type NormalizeOptions struct {
	// Program is the program filter the data was fetched for; "" means the
	// whole catalog.
	Program string
	// Policy breaks ties between programs sharing a code.
	Policy Policy
}

// Report summarizes what Normalize had to repair.
type Report struct {
	Nodes      int      // nodes in the output
	Edges      int      // edges in the output
	Duplicates int      // raw nodes that overwrote an earlier node with the same identity
	Unresolved int      // edge endpoints that fell back to a raw code
	Ambiguous  []string // codes shared by more than one program, sorted
}

// Normalize builds a dataset keyed by composite identity from raw records.
func Normalize(nodes []curriculum.RawNode, edges []curriculum.RawEdge, opts NormalizeOptions) (*curriculum.Dataset, Report) {
	ds := curriculum.NewDataset(opts.Program)
	var report Report

	idx := newIndex()
	for _, raw := range nodes {
		id := curriculum.MakeIdentity(raw.Code, raw.Program)
		if ds.AddNode(nodeFromRaw(id, raw)) {
			report.Duplicates++
		}
		idx.add(raw.Code, id)
	}

	r := resolver{idx: idx, opts: opts}
	for _, raw := range edges {
		src, tgt, unresolved := r.endpoints(raw.Source, raw.Target)
		report.Unresolved += unresolved
		ds.AddEdge(edgeFromRaw(src, tgt, raw))
	}

	report.Nodes = ds.NodeCount()
	report.Edges = ds.EdgeCount()
	report.Ambiguous = idx.ambiguous()
	return ds, report
}

func nodeFromRaw(id curriculum.Identity, raw curriculum.RawNode) curriculum.Node {
	n := curriculum.Node{
		ID:                     id,
		Code:                   raw.Code,
		Program:                raw.Program,
		Label:                  raw.Label,
		CreditsRequiredGeneral: raw.CreditsRequiredGeneral,
	}
	if raw.Level != nil {
		n.Level = *raw.Level
	}
	if raw.Credits != nil {
		n.Credits = *raw.Credits
	}
	return n
}

func edgeFromRaw(src, tgt curriculum.Identity, raw curriculum.RawEdge) curriculum.Edge {
	e := curriculum.Edge{Source: src, Target: tgt, Kind: kindOf(raw)}
	if e.Kind == curriculum.KindCreditThreshold {
		e.CreditsRequired = raw.CreditsRequired
	}
	return e
}

// kindOf maps "tipo" to an edge kind. A missing tipo with a positive
// credit requirement is a credit threshold.
func kindOf(raw curriculum.RawEdge) curriculum.EdgeKind {
	switch curriculum.EdgeKind(raw.Kind) {
	case curriculum.KindCreditThreshold:
		return curriculum.KindCreditThreshold
	case curriculum.KindDirect:
		return curriculum.KindDirect
	}
	if raw.Kind == "" && raw.CreditsRequired != nil && *raw.CreditsRequired > 0 {
		return curriculum.KindCreditThreshold
	}
	return curriculum.KindDirect
}

// index maps a bare code to the distinct identities carrying it, in read order.
type index struct {
	byCode map[string][]curriculum.Identity
}

func newIndex() *index {
	return &index{byCode: make(map[string][]curriculum.Identity)}
}

func (x *index) add(code string, id curriculum.Identity) {
	ids := x.byCode[code]
	if slices.Contains(ids, id) {
		// A duplicate identity moves to the end so last-seen tracks the overwrite.
		ids = slices.DeleteFunc(ids, func(v curriculum.Identity) bool { return v == id })
	}
	x.byCode[code] = append(ids, id)
}

func (x *index) ambiguous() []string {
	var codes []string
	for code, ids := range x.byCode {
		if len(ids) > 1 {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return codes
}

type resolver struct {
	idx  *index
	opts NormalizeOptions
}

// endpoints resolves both ends of an edge and returns how many fell back
// to a raw code.
func (r resolver) endpoints(source, target string) (src, tgt curriculum.Identity, unresolved int) {
	srcIDs, tgtIDs := r.idx.byCode[source], r.idx.byCode[target]

	if len(srcIDs) > 1 && len(tgtIDs) == 1 {
		tgt = tgtIDs[0]
		src = r.pick(source, srcIDs, tgt.Program())
		return src, tgt, 0
	}

	src, ok := r.resolve(source, srcIDs, "")
	if !ok {
		unresolved++
	}
	prefer := ""
	if ok {
		prefer = src.Program()
	}
	tgt, ok = r.resolve(target, tgtIDs, prefer)
	if !ok {
		unresolved++
	}
	return src, tgt, unresolved
}

func (r resolver) resolve(code string, ids []curriculum.Identity, prefer string) (curriculum.Identity, bool) {
	switch len(ids) {
	case 0:
		return curriculum.Identity(code), false
	case 1:
		return ids[0], true
	}
	return r.pick(code, ids, prefer), true
}

func (r resolver) pick(code string, ids []curriculum.Identity, prefer string) curriculum.Identity {
	for _, program := range []string{prefer, r.opts.Program} {
		if program == "" {
			continue
		}
		if id := curriculum.MakeIdentity(code, program); slices.Contains(ids, id) {
			return id
		}
	}
	if r.opts.Policy == ResolveFirstSeen {
		return ids[0]
	}
	return ids[len(ids)-1]
}
