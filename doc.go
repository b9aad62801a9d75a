// Package pcaxis is a statistics service over PX-Web data cubes: it fetches
// multi-dimensional tables from a PC-Axis API, flattens them into chart-ready
// tabular JSON, and serves them over HTTP alongside static rivers/lakes
// reference tables.
//
// Layout:
//
//   - cube: canonical in-memory cube model
//   - dataset: declarative per-dataset configuration (processors, key policy,
//     time overrides, derivation rules) with a YAML overlay
//   - engine: the flattening core (time normalization, dimension combination,
//     strategy routing, derivations, row assembly)
//   - pxclient: PX-Web API client and boundary normalization
//   - waterdata: rivers/lakes CSV and XLSX loaders
//   - gateway/http: public HTTP API
//   - config, errors, health, metric, pkg/cache, pkg/retry: ambient
//     infrastructure
//   - cmd/pcaxis-server: entry point
package pcaxis
