// Package facade recognizes buildings in photos.
//
// A recognition request embeds the photo with an external vision encoder,
// searches a vector store of labeled reference embeddings and aggregates
// the candidate matches into a single outcome: a building label with a
// confidence, the explicit "Unknown" no-match result, or a typed failure.
//
// Alongside the similarity path, a supervised strategy classifies the
// embedding with a softmax model trained offline from the same photo
// corpus and published as a versioned artifact.
package facade
