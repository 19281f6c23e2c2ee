// Package types contains the shared result types and error taxonomy used
// across the indexing and recall pipeline.
package types
