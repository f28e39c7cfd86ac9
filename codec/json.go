package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// The most portable option: any JSON implementation can read snapshots
// written with it.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used for snapshots.
//
// Persisted files are self-describing (they store the codec name in their
// header), so changing the default never breaks existing files.
var Default Codec = GoJSON{}
