package dto

import (
	"bytes"
	"encoding/json"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Stage   string `json:"stage,omitempty"`
}

// RawAnswer is the unprocessed LLM completion for one field
type RawAnswer struct {
	Field FieldName `json:"field"`
	Text  string    `json:"text"`
}

// CleanAnswer is the normalized value for one field
type CleanAnswer struct {
	Field FieldName `json:"field"`
	Value string    `json:"value"`
}

// FieldFailure reports a field whose LLM call failed. Its value in the
// result is the empty string.
type FieldFailure struct {
	Field   FieldName `json:"field"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
}

// OrderedFields serializes as a JSON object whose keys keep slice order
type OrderedFields []CleanAnswer

func (o OrderedFields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(entry.Field))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ExtractionResult holds one clean value per catalog field, in catalog order.
// It serializes as the flat ordered field object; the request id and
// failures travel beside it (response headers, FileExtractionResult).
type ExtractionResult struct {
	RequestID string
	Entries   OrderedFields
	Failed    []FieldFailure
	Raw       []RawAnswer
}

func (r ExtractionResult) MarshalJSON() ([]byte, error) {
	return r.Entries.MarshalJSON()
}

// Value returns the clean value extracted for field
func (r *ExtractionResult) Value(field FieldName) (string, bool) {
	for _, e := range r.Entries {
		if e.Field == field {
			return e.Value, true
		}
	}
	return "", false
}

// Map flattens the entries into a map keyed by display name
func (r *ExtractionResult) Map() map[string]string {
	out := make(map[string]string, len(r.Entries))
	for _, e := range r.Entries {
		out[string(e.Field)] = e.Value
	}
	return out
}

// HasFailures reports whether any field fell back to an empty value
func (r *ExtractionResult) HasFailures() bool {
	return len(r.Failed) > 0
}

// FailedFieldNames lists the fields whose LLM call failed, in catalog order
func (r *ExtractionResult) FailedFieldNames() []string {
	names := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		names = append(names, string(f.Field))
	}
	return names
}

// FileExtractionResult is one entry of a multi-file extraction response
type FileExtractionResult struct {
	Filename  string         `json:"filename"`
	RequestID string         `json:"request_id,omitempty"`
	Fields    OrderedFields  `json:"fields,omitempty"`
	Failed    []FieldFailure `json:"failed_fields,omitempty"`
	Error     *ErrorResponse `json:"error,omitempty"`
}

// NewFileExtractionResult flattens result into a batch entry for filename
func NewFileExtractionResult(filename string, result *ExtractionResult) FileExtractionResult {
	return FileExtractionResult{
		Filename:  filename,
		RequestID: result.RequestID,
		Fields:    result.Entries,
		Failed:    result.Failed,
	}
}
