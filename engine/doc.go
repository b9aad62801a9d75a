// Package engine is the cube-flattening core of the pcaxis server.
//
// Given a cube described by an ordered set of dimensions, one of which is
// time, it produces rows keyed by normalized calendar year with one column
// per combination of the remaining dimensions, optionally appending
// synthetic columns derived from other columns by per-dataset rules.
//
// Routing picks one of four strategies:
//
//   - a dataset-specific processor registered under the name configured for
//     the dataset, bypassing generic routing entirely
//   - single-series for cubes whose only dimension is time
//   - two-dimension for one categorical dimension, keyed by human label
//     (unless the dataset's indexed_keys flag forces numeric keys)
//   - multi-dimension with the full cartesian product and numeric-string
//     series keys
//
// The engine performs no I/O, holds no mutable state beyond a bounded
// memoization cache keyed by immutable inputs, and is safe for concurrent
// reentrant use. Work is not self-limited: callers bound the cartesian
// product via Cardinality against the dataset's configured ceiling before
// invoking Flatten on untrusted configuration.
package engine
