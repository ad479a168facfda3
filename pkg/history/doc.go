// Package history manages a student's approved-course history.
//
// A [Draft] is the working copy edited locally; it remembers the state it
// was loaded from so [Draft.Diff] can compute what to send. A [Store] caches
// the last known backend state explicitly: [Store.Load] serves the cache,
// [Store.Reload] always refetches and replaces it, and [Store.Invalidate]
// drops it. A [Syncer] writes a draft back to the backend:
//
//	snap, _ := store.Load(ctx, userID, program)
//	d := history.NewDraft(snap.Entries)
//	d.Add(history.Entry{Code: "CS102", Program: program, Level: 2})
//	res, err := history.NewSyncer(client, store, logger).Save(ctx, userID, program, d)
//
// Entries are keyed by (code, program); the same code may appear once per
// program.
package history
