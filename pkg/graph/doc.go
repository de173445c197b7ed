// Package graph holds the geometry description: named materials, solids,
// logical parts and rotations, and the placements that position copies of
// logical parts inside one another. The placements form a DAG rooted at the
// world volume. Store is the in-memory Registry that construction
// algorithms write into; Validate and ValidateAll check the result.
package graph
