// Package pxclient fetches statistical tables from a PX-Web API and converts
// them into the canonical cube model.
//
// Upstream responses are inconsistent across deployments: the same endpoint
// may return the payload raw, wrapped in a "results" or "data" envelope, or
// as a single-element array. All of that tolerance lives here, at the
// boundary; everything past this package sees one canonical cube shape.
// Missing observations are encoded upstream as sentinel strings ("..", "-",
// "...", empty); those become absent cells, which the engine later surfaces
// as nulls.
package pxclient
