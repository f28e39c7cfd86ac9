package model

import (
	"encoding/json"
)

// RecordID is the opaque, stable identifier of an embedding record.
type RecordID string

// EmbeddingRecord is one reference embedding in the corpus.
//
// Embedding has the store-wide fixed dimension and is unit-norm, so cosine
// similarity reduces to a dot product. Label is free form and not unique:
// in the per-image build mode a building owns one record per reference
// image, in the centroid mode exactly one record whose vector is the
// renormalized mean of its per-image embeddings.
//
// Records are never mutated in place. Correction means delete-and-reinsert.
type EmbeddingRecord struct {
	ID            RecordID  `json:"id"`
	Label         string    `json:"label"`
	Embedding     []float32 `json:"embedding"`
	Description   string    `json:"description,omitempty"`
	ReferencePath string    `json:"reference_path,omitempty"`
}

// SimilarityResult is one match produced by a similarity query.
// It is transient and never persisted.
type SimilarityResult struct {
	Label         string
	Description   string
	ReferencePath string
	Similarity    float32
}

// FailureKind classifies a failed recognition.
type FailureKind int

const (
	// FailureNone means the outcome is a successful match or the explicit
	// "Unknown" no-match result.
	FailureNone FailureKind = iota

	// FailureValidation covers malformed input: wrong embedding dimension,
	// non-finite values, undecodable image payloads. Never retryable.
	FailureValidation

	// FailureStorageUnavailable means the backing store could not be
	// searched. Distinct from "no match"; callers may retry with backoff.
	FailureStorageUnavailable

	// FailureEmbedderTimeout means the external embedder did not answer
	// within its deadline.
	FailureEmbedderTimeout

	// FailureEmbedder covers any other embedder misbehavior.
	FailureEmbedder
)

// Code returns the stable wire code for the failure kind.
func (k FailureKind) Code() string {
	switch k {
	case FailureNone:
		return ""
	case FailureValidation:
		return "VALIDATION_ERROR"
	case FailureStorageUnavailable:
		return "STORAGE_UNAVAILABLE"
	case FailureEmbedderTimeout:
		return "EMBEDDER_TIMEOUT"
	case FailureEmbedder:
		return "EMBEDDER_FAILURE"
	default:
		return "UNKNOWN_FAILURE"
	}
}

func (k FailureKind) String() string {
	if k == FailureNone {
		return "none"
	}
	return k.Code()
}

// UnknownLabel is the label reported when nothing clears the similarity
// threshold. It is a success, not a failure.
const UnknownLabel = "Unknown"

// RecognitionOutcome is the single result type of a recognition request.
//
// Exactly one of the following holds:
//   - a successful (Label, Confidence) pair with Failure == FailureNone
//   - the explicit no-match outcome (Label == UnknownLabel, Confidence == 0)
//   - a failure with Failure != FailureNone
type RecognitionOutcome struct {
	Label         string
	Confidence    float32
	Description   string
	ReferencePath string
	Failure       FailureKind
}

// Unknown returns the explicit no-match outcome.
func Unknown() RecognitionOutcome {
	return RecognitionOutcome{Label: UnknownLabel, Confidence: 0}
}

// Failed returns a failure outcome of the given kind.
func Failed(kind FailureKind) RecognitionOutcome {
	return RecognitionOutcome{Failure: kind}
}

// IsUnknown reports whether the outcome is the explicit no-match result.
func (o RecognitionOutcome) IsUnknown() bool {
	return o.Failure == FailureNone && o.Label == UnknownLabel
}

// Failed reports whether the outcome carries a failure.
func (o RecognitionOutcome) Failed() bool {
	return o.Failure != FailureNone
}

// outcomeWire is the cross-process serialized form of an outcome.
type outcomeWire struct {
	Building    string  `json:"building"`
	Confidence  float32 `json:"confidence"`
	Description string  `json:"description,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// MarshalJSON renders the wire form: building, confidence, optional
// description and error code.
func (o RecognitionOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(outcomeWire{
		Building:    o.Label,
		Confidence:  o.Confidence,
		Description: o.Description,
		Error:       o.Failure.Code(),
	})
}

// UnmarshalJSON parses the wire form.
func (o *RecognitionOutcome) UnmarshalJSON(data []byte) error {
	var w outcomeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = RecognitionOutcome{
		Label:       w.Building,
		Confidence:  w.Confidence,
		Description: w.Description,
		Failure:     failureFromCode(w.Error),
	}
	return nil
}

func failureFromCode(code string) FailureKind {
	switch code {
	case "":
		return FailureNone
	case "VALIDATION_ERROR":
		return FailureValidation
	case "STORAGE_UNAVAILABLE":
		return FailureStorageUnavailable
	case "EMBEDDER_TIMEOUT":
		return FailureEmbedderTimeout
	default:
		return FailureEmbedder
	}
}
