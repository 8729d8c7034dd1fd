package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Aashish23092/doc-field-extraction/dto"
	"github.com/Aashish23092/doc-field-extraction/utils"
)

// DocumentRecognizer turns a PDF or image on disk into plain text
type DocumentRecognizer interface {
	Recognize(ctx context.Context, path string, kind dto.DocumentKind) (string, error)
}

// TextRecognizer is the OCR engine used for images and scanned pages
type TextRecognizer interface {
	ExtractText(filePath string) (string, error)
	ExtractTextFromBytes(data []byte) (string, error)
}

// QRDecoder reads QR payloads printed on documents
type QRDecoder interface {
	Decode(img image.Image) (string, error)
	DecodeFile(path string) (string, error)
}

// DefaultMinEmbeddedTextLength is the embedded PDF text length below which
// a PDF is treated as scanned
const DefaultMinEmbeddedTextLength = 20

// OCRService recognizes text in PDFs and images. Text-layer PDFs are read
// directly; scanned PDFs and images go through the OCR engine. When a QR
// decoder is configured, QR payloads are appended to the text.
type OCRService struct {
	engine          TextRecognizer
	pdfProcessor    PDFProcessor
	qr              QRDecoder
	minEmbeddedText int
	logger          *slog.Logger
}

func NewOCRService(engine TextRecognizer, pdfProcessor PDFProcessor, qr QRDecoder, minEmbeddedText int, logger *slog.Logger) *OCRService {
	if minEmbeddedText <= 0 {
		minEmbeddedText = DefaultMinEmbeddedTextLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRService{
		engine:          engine,
		pdfProcessor:    pdfProcessor,
		qr:              qr,
		minEmbeddedText: minEmbeddedText,
		logger:          logger,
	}
}

// Recognize returns the document text with blank lines removed. Errors wrap
// dto.ErrOCRFailure.
func (s *OCRService) Recognize(ctx context.Context, path string, kind dto.DocumentKind) (string, error) {
	start := time.Now()

	var text string
	var err error
	switch kind {
	case dto.KindPDF:
		text, err = s.recognizePDF(ctx, path)
	case dto.KindImage:
		text, err = s.recognizeImage(path)
	default:
		return "", &dto.StageError{Stage: dto.StageFormat, Err: fmt.Errorf("%w: kind %q", dto.ErrUnsupportedFormat, kind)}
	}
	if err != nil {
		s.logger.Error("ocr.failed", "path", path, "kind", kind, "error", err)
		return "", ocrFailure(err)
	}
	text = utils.CleanOCRText(text)
	if text == "" {
		s.logger.Error("ocr.empty", "path", path, "kind", kind)
		return "", ocrFailure(errors.New("no text could be extracted from the document"))
	}

	s.logger.Info("ocr.done",
		"path", path,
		"kind", kind,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (s *OCRService) recognizeImage(path string) (string, error) {
	text, err := s.engine.ExtractText(path)
	if err != nil {
		return "", fmt.Errorf("image OCR failed: %w", err)
	}
	if s.qr != nil {
		if payload, qrErr := s.qr.DecodeFile(path); qrErr == nil {
			text = appendQR(text, payload)
		} else {
			s.logger.Debug("ocr.qr.none", "path", path, "error", qrErr)
		}
	}
	return text, nil
}

func (s *OCRService) recognizePDF(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	text, err := s.pdfProcessor.ExtractText(data)
	if err != nil {
		s.logger.Warn("ocr.pdf.text_layer_failed", "path", path, "error", err)
	}
	if len(strings.TrimSpace(text)) >= s.minEmbeddedText {
		return text, nil
	}

	s.logger.Info("ocr.pdf.scanned", "path", path, "text_layer_chars", len(strings.TrimSpace(text)))

	images, err := s.pdfProcessor.ExtractImages(data)
	if err != nil {
		return "", fmt.Errorf("failed to extract images from PDF: %w", err)
	}
	if len(images) == 0 {
		return "", errors.New("no images found in PDF")
	}

	var combined strings.Builder
	var qrPayloads []string
	for idx, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		buf := new(bytes.Buffer)
		if err := png.Encode(buf, img); err != nil {
			s.logger.Warn("ocr.pdf.page_encode_failed", "page", idx+1, "error", err)
			continue
		}
		pageText, err := s.engine.ExtractTextFromBytes(buf.Bytes())
		if err != nil {
			s.logger.Warn("ocr.pdf.page_failed", "page", idx+1, "error", err)
			continue
		}
		combined.WriteString(pageText)
		combined.WriteString("\n")

		if s.qr != nil {
			if payload, qrErr := s.qr.Decode(img); qrErr == nil {
				qrPayloads = append(qrPayloads, payload)
			}
		}
	}

	out := combined.String()
	for _, payload := range qrPayloads {
		out = appendQR(out, payload)
	}
	return out, nil
}

func appendQR(text, payload string) string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return text
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text + "QR: " + payload + "\n"
}

func ocrFailure(err error) error {
	if errors.Is(err, dto.ErrOCRFailure) {
		return &dto.StageError{Stage: dto.StageOCR, Err: err}
	}
	return &dto.StageError{Stage: dto.StageOCR, Err: fmt.Errorf("%w: %w", dto.ErrOCRFailure, err)}
}
