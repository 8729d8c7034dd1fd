package dto

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DocumentKind tells the OCR collaborator how to load a document
type DocumentKind string

const (
	KindPDF   DocumentKind = "pdf"
	KindImage DocumentKind = "image"
)

var extensionKinds = map[string]DocumentKind{
	".pdf":  KindPDF,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
}

// DetectKind maps a filename extension to its DocumentKind
func DetectKind(filename string) (DocumentKind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	kind, ok := extensionKinds[ext]
	if !ok {
		return "", &StageError{
			Stage: StageFormat,
			Err:   fmt.Errorf("%w: %q (supported: .pdf, .png, .jpg, .jpeg)", ErrUnsupportedFormat, ext),
		}
	}
	return kind, nil
}

// ExtractionRequest is one document handed to the extraction pipeline.
// Filename carries the extension used for kind detection; Path is where the
// bytes live on disk and defaults to Filename.
type ExtractionRequest struct {
	Filename string
	Path     string
}

// Validate validates the extraction request
func (r *ExtractionRequest) Validate() error {
	if r == nil || (r.Filename == "" && r.Path == "") {
		return ErrFileRequired
	}
	return nil
}

// SourcePath returns the on-disk location of the document
func (r *ExtractionRequest) SourcePath() string {
	if r.Path != "" {
		return r.Path
	}
	return r.Filename
}

// Name returns the name used for kind detection and reporting
func (r *ExtractionRequest) Name() string {
	if r.Filename != "" {
		return r.Filename
	}
	return filepath.Base(r.Path)
}
