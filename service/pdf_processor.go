package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/tiff"
)

type PDFProcessor interface {
	ExtractText(pdfData []byte) (string, error)
	ExtractImages(pdfData []byte) ([]image.Image, error)
}

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

// ExtractText returns the embedded text layer, one line per text row.
// Scanned PDFs yield little or nothing.
func (p *pdfProcessor) ExtractText(pdfData []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var textBuilder bytes.Buffer
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			for _, word := range row.Content {
				textBuilder.WriteString(word.S)
			}
			textBuilder.WriteString("\n")
		}
	}
	return textBuilder.String(), nil
}

// ExtractImages decodes the images embedded in the PDF, in page order.
// Scanned documents carry one image per page. Images in formats that cannot
// be decoded (JPEG 2000) are skipped.
func (p *pdfProcessor) ExtractImages(pdfData []byte) ([]image.Image, error) {
	var images []image.Image
	digest := func(img model.Image, singleImgPerPage bool, maxPageDigits int) error {
		decoded, _, err := image.Decode(img)
		if err != nil {
			return nil
		}
		images = append(images, decoded)
		return nil
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImages(bytes.NewReader(pdfData), nil, digest, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}
	return images, nil
}
