// Package event decodes object creation notifications.
package event

import (
	"encoding/base64"
	"fmt"

	"github.com/tidwall/gjson"
)

// dataPath is where the envelope carries the encoded notification
const dataPath = "message.data"

// FileEvent is a single object creation notification
type FileEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// URL returns the fully qualified file url used for matching and reporting
func (e FileEvent) URL(prefix string) string {
	return prefix + e.Bucket + "/" + e.Name
}

// DecodingError reports a malformed trigger payload
type DecodingError struct {
	Reason string
	Err    error
}

func (e *DecodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decoding error: %s", e.Reason)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// Payload returns the decoded notification carried by an envelope
func Payload(raw []byte) ([]byte, error) {

	if !gjson.ValidBytes(raw) {
		return nil, &DecodingError{Reason: "envelope is not valid JSON"}
	}

	data := gjson.GetBytes(raw, dataPath)
	if !data.Exists() {
		return nil, &DecodingError{Reason: fmt.Sprintf("missing %v in envelope", dataPath)}
	}
	if data.Type != gjson.String {
		return nil, &DecodingError{Reason: fmt.Sprintf("%v is not a string", dataPath)}
	}

	pld, err := base64.StdEncoding.DecodeString(data.Str)
	if err != nil {
		return nil, &DecodingError{Reason: "failed to decode base64 payload", Err: err}
	}

	if !gjson.ValidBytes(pld) {
		return nil, &DecodingError{Reason: "payload is not valid JSON"}
	}
	return pld, nil
}

// Decode extracts the file event from a raw envelope
func Decode(raw []byte) (FileEvent, error) {

	pld, err := Payload(raw)
	if err != nil {
		return FileEvent{}, err
	}
	return Parse(pld)
}

// Parse reads the bucket and object name out of a decoded notification
func Parse(pld []byte) (FileEvent, error) {

	var fe FileEvent
	fields := []struct {
		path string
		dst  *string
	}{
		{path: "bucket", dst: &fe.Bucket},
		{path: "name", dst: &fe.Name},
	}

	for _, f := range fields {
		value := gjson.GetBytes(pld, f.path)
		if !value.Exists() {
			return FileEvent{}, &DecodingError{Reason: fmt.Sprintf("missing value in payload: %v", f.path)}
		}
		if value.Type != gjson.String || value.Str == "" {
			return FileEvent{}, &DecodingError{Reason: fmt.Sprintf("invalid value in payload: %v", f.path)}
		}
		*f.dst = value.Str
	}
	return fe, nil
}
