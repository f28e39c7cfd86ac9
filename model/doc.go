// Package model defines the core data types of the recognition engine:
// embedding records, similarity results and recognition outcomes.
package model
