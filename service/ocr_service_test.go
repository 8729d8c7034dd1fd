package service

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/Aashish23092/doc-field-extraction/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	text      string
	pageTexts []string
	err       error
	pageCalls int
}

func (s *stubEngine) ExtractText(filePath string) (string, error) {
	return s.text, s.err
}

func (s *stubEngine) ExtractTextFromBytes(data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	idx := s.pageCalls
	s.pageCalls++
	if idx < len(s.pageTexts) {
		return s.pageTexts[idx], nil
	}
	return "", nil
}

type stubPDF struct {
	text      string
	textErr   error
	images    []image.Image
	imagesErr error
}

func (s *stubPDF) ExtractText(pdfData []byte) (string, error) {
	return s.text, s.textErr
}

func (s *stubPDF) ExtractImages(pdfData []byte) ([]image.Image, error) {
	return s.images, s.imagesErr
}

type stubQR struct {
	payload string
}

func (s *stubQR) Decode(img image.Image) (string, error) {
	if s.payload == "" {
		return "", errors.New("no qr code")
	}
	return s.payload, nil
}

func (s *stubQR) DecodeFile(path string) (string, error) {
	return s.Decode(nil)
}

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o600))
	return path
}

func pages(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = image.NewGray(image.Rect(0, 0, 4, 4))
	}
	return out
}

func TestRecognizeImage(t *testing.T) {
	svc := NewOCRService(&stubEngine{text: "Invoice No: INV-7"}, &stubPDF{}, nil, 0, nil)

	text, err := svc.Recognize(context.Background(), "scan.png", dto.KindImage)
	require.NoError(t, err)
	assert.Equal(t, "Invoice No: INV-7", text)
}

func TestRecognizeImageAppendsQRPayload(t *testing.T) {
	svc := NewOCRService(&stubEngine{text: "Invoice No: INV-7"}, &stubPDF{}, &stubQR{payload: "DocNo:INV-7"}, 0, nil)

	text, err := svc.Recognize(context.Background(), "scan.png", dto.KindImage)
	require.NoError(t, err)
	assert.Equal(t, "Invoice No: INV-7\nQR: DocNo:INV-7", text)
}

func TestRecognizePDFUsesTextLayer(t *testing.T) {
	engine := &stubEngine{}
	pdf := &stubPDF{text: "TAX INVOICE\nInvoice No: INV-2024/0098\n"}
	svc := NewOCRService(engine, pdf, nil, 0, nil)

	text, err := svc.Recognize(context.Background(), writeTempFile(t, "invoice.pdf"), dto.KindPDF)
	require.NoError(t, err)
	assert.Equal(t, "TAX INVOICE\nInvoice No: INV-2024/0098", text)
	assert.Equal(t, 0, engine.pageCalls)
}

func TestRecognizeScannedPDFFallsBackToOCR(t *testing.T) {
	engine := &stubEngine{pageTexts: []string{"page one", "page two"}}
	pdf := &stubPDF{text: "  \n", images: pages(2)}
	svc := NewOCRService(engine, pdf, nil, 0, nil)

	text, err := svc.Recognize(context.Background(), writeTempFile(t, "scan.pdf"), dto.KindPDF)
	require.NoError(t, err)
	assert.Equal(t, "page one\npage two", text)
	assert.Equal(t, 2, engine.pageCalls)
}

func TestRecognizeScannedPDFWithoutImages(t *testing.T) {
	svc := NewOCRService(&stubEngine{}, &stubPDF{}, nil, 0, nil)

	_, err := svc.Recognize(context.Background(), writeTempFile(t, "empty.pdf"), dto.KindPDF)
	require.Error(t, err)
	assert.ErrorIs(t, err, dto.ErrOCRFailure)
	assert.Equal(t, dto.StageOCR, dto.StageOf(err))
}

func TestRecognizeEngineFailure(t *testing.T) {
	svc := NewOCRService(&stubEngine{err: errors.New("tesseract crashed")}, &stubPDF{}, nil, 0, nil)

	_, err := svc.Recognize(context.Background(), "scan.jpg", dto.KindImage)
	require.Error(t, err)
	assert.ErrorIs(t, err, dto.ErrOCRFailure)
	assert.Contains(t, err.Error(), "tesseract crashed")
}

func TestRecognizeEmptyText(t *testing.T) {
	svc := NewOCRService(&stubEngine{text: " \n\t"}, &stubPDF{}, nil, 0, nil)

	_, err := svc.Recognize(context.Background(), "blank.jpeg", dto.KindImage)
	assert.ErrorIs(t, err, dto.ErrOCRFailure)
}

func TestRecognizeMissingPDF(t *testing.T) {
	svc := NewOCRService(&stubEngine{}, &stubPDF{}, nil, 0, nil)

	_, err := svc.Recognize(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"), dto.KindPDF)
	assert.ErrorIs(t, err, dto.ErrOCRFailure)
}

func TestRecognizeStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &stubEngine{pageTexts: []string{"page one"}}
	svc := NewOCRService(engine, &stubPDF{images: pages(1)}, nil, 0, nil)

	_, err := svc.Recognize(ctx, writeTempFile(t, "scan.pdf"), dto.KindPDF)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, engine.pageCalls)
}

func TestRecognizeUnknownKind(t *testing.T) {
	svc := NewOCRService(&stubEngine{}, &stubPDF{}, nil, 0, nil)

	_, err := svc.Recognize(context.Background(), "a.docx", dto.DocumentKind("docx"))
	assert.ErrorIs(t, err, dto.ErrUnsupportedFormat)
}
