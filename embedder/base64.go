package embedder

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodePayload decodes a base64 image payload. A data-URL header
// ("data:image/jpeg;base64,...") is stripped before decoding.
func DecodePayload(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedImage)
	}
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedImage)
	}
	return data, nil
}

// EncodePayload encodes image bytes as a plain base64 string.
func EncodePayload(image []byte) string {
	return base64.StdEncoding.EncodeToString(image)
}
