package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsCatalogOrder(t *testing.T) {
	assert.Equal(t, []FieldName{
		FieldDocumentNumber,
		FieldDocumentDate,
		FieldValidityTillDate,
		FieldDocumentCurrency,
		FieldDocumentValue,
		FieldDocumentSubtype,
	}, FieldNames())

	seen := map[FieldName]bool{}
	for _, f := range Fields() {
		assert.False(t, seen[f.Name], "duplicate field %s", f.Name)
		assert.NotEmpty(t, f.Instruction)
		seen[f.Name] = true
	}
}

func TestFieldsReturnsCopy(t *testing.T) {
	fields := Fields()
	fields[0].Instruction = "changed"

	assert.NotEqual(t, "changed", Fields()[0].Instruction)
}

func TestDetectKind(t *testing.T) {
	kind, err := DetectKind("scan.PDF")
	require.NoError(t, err)
	assert.Equal(t, KindPDF, kind)

	for _, name := range []string{"a.png", "b.JPG", "/tmp/c.jpeg"} {
		kind, err = DetectKind(name)
		require.NoError(t, err)
		assert.Equal(t, KindImage, kind)
	}

	_, err = DetectKind("notes.txt")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Equal(t, StageFormat, StageOf(err))

	_, err = DetectKind("no-extension")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractionRequestValidate(t *testing.T) {
	var nilReq *ExtractionRequest
	assert.ErrorIs(t, nilReq.Validate(), ErrFileRequired)
	assert.ErrorIs(t, (&ExtractionRequest{}).Validate(), ErrFileRequired)

	req := &ExtractionRequest{Filename: "invoice.pdf", Path: "/tmp/upload-123.pdf"}
	assert.NoError(t, req.Validate())
	assert.Equal(t, "/tmp/upload-123.pdf", req.SourcePath())
	assert.Equal(t, "invoice.pdf", req.Name())

	req = &ExtractionRequest{Path: "/data/bill.png"}
	assert.Equal(t, "bill.png", req.Name())
}

func TestExtractionResultJSONKeepsCatalogOrder(t *testing.T) {
	result := &ExtractionResult{
		RequestID: "req-1",
		Entries: OrderedFields{
			{Field: FieldDocumentNumber, Value: "INV-1"},
			{Field: FieldDocumentDate, Value: "07-03-2024"},
			{Field: FieldValidityTillDate, Value: ""},
			{Field: FieldDocumentCurrency, Value: "INR"},
			{Field: FieldDocumentValue, Value: "23124.40"},
			{Field: FieldDocumentSubtype, Value: "Export"},
		},
		Failed: []FieldFailure{{Field: FieldValidityTillDate, Stage: StageLLM, Message: "timeout"}},
		Raw:    []RawAnswer{{Field: FieldDocumentNumber, Text: "The number is INV-1"}},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	assert.Equal(t,
		`{"Document Number":"INV-1","Document Date":"07-03-2024",`+
			`"Validity Till Date":"","Document Currency":"INR","Document Value (Amount)":"23124.40",`+
			`"Document Subtype":"Export"}`,
		string(data))

	var top map[string]any
	require.NoError(t, json.Unmarshal(data, &top))
	assert.Equal(t, "INV-1", top["Document Number"])
	assert.Len(t, top, 6)

	v, ok := result.Value(FieldDocumentCurrency)
	assert.True(t, ok)
	assert.Equal(t, "INR", v)
	assert.Len(t, result.Map(), 6)
	assert.True(t, result.HasFailures())
	assert.Equal(t, []string{"Validity Till Date"}, result.FailedFieldNames())
}

func TestFileExtractionResultJSON(t *testing.T) {
	result := &ExtractionResult{
		RequestID: "req-2",
		Entries: OrderedFields{
			{Field: FieldDocumentNumber, Value: "INV-2"},
			{Field: FieldDocumentSubtype, Value: ""},
		},
		Failed: []FieldFailure{{Field: FieldDocumentSubtype, Stage: StageLLM, Message: "timeout"}},
	}

	data, err := json.Marshal([]FileExtractionResult{
		NewFileExtractionResult("a.pdf", result),
		{Filename: "b.txt", Error: &ErrorResponse{Error: "UNSUPPORTED_FORMAT", Message: "bad", Code: 400}},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`[{"filename":"a.pdf","request_id":"req-2","fields":{"Document Number":"INV-2","Document Subtype":""},`+
			`"failed_fields":[{"field":"Document Subtype","stage":"llm","message":"timeout"}]},`+
			`{"filename":"b.txt","error":{"error":"UNSUPPORTED_FORMAT","message":"bad","code":400}}]`,
		string(data))
}

func TestStageError(t *testing.T) {
	err := &StageError{Stage: StageOCR, Err: ErrOCRFailure}

	assert.Equal(t, "ocr stage: ocr failure", err.Error())
	assert.ErrorIs(t, err, ErrOCRFailure)
	assert.Equal(t, "", StageOf(errors.New("plain")))
}
