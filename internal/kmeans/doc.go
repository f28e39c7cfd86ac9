// Package kmeans implements the clustering pass used to partition the
// embedding corpus for inverted-file search.
package kmeans
