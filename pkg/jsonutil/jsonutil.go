// Package jsonutil wraps github.com/go-json-experiment/json behind the
// small surface the reporters need. It is noticeably faster than
// encoding/json and the API below matches the standard library, so the
// rest of the codebase never imports the experiment module directly.
package jsonutil

import (
	"io"

	"github.com/go-json-experiment/json"
)

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Encoder is a streaming JSONL encoder: one value per line.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates an encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the JSON encoding of v followed by a newline.
func (e *Encoder) Encode(v any) error {
	if err := json.MarshalWrite(e.w, v); err != nil {
		return err
	}
	_, err := e.w.Write([]byte{'\n'})
	return err
}
