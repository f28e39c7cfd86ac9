// Package blobstore abstracts the storage of immutable blobs: store
// snapshots and classifier artifacts. Backends exist for the local file
// system, memory (tests), S3 and MinIO.
package blobstore
