package client

import (
	"fmt"
	"log/slog"

	"github.com/otiai10/gosseract/v2"
)

type TesseractClient struct {
	dataPath string
	language string
	logger   *slog.Logger
}

func NewTesseractClient(dataPath, language string, logger *slog.Logger) *TesseractClient {
	if language == "" {
		language = "eng"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractClient{
		dataPath: dataPath,
		language: language,
		logger:   logger,
	}
}

// ExtractText runs Tesseract on an image file
func (tc *TesseractClient) ExtractText(filePath string) (string, error) {
	client, err := tc.newClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetImage(filePath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	return tc.text(client)
}

// ExtractTextFromBytes runs Tesseract on encoded image bytes (PNG, JPEG)
func (tc *TesseractClient) ExtractTextFromBytes(data []byte) (string, error) {
	client, err := tc.newClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	return tc.text(client)
}

// newClient returns a configured gosseract client. Callers must Close it;
// gosseract clients are not safe for concurrent use so each call gets its own.
func (tc *TesseractClient) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage(tc.language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return client, nil
}

func (tc *TesseractClient) text(client *gosseract.Client) (string, error) {
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	tc.logger.Debug("tesseract.text", "chars", len(text), "lang", tc.language)
	return text, nil
}

// Close performs cleanup
func (tc *TesseractClient) Close() {
	tc.logger.Info("tesseract client closed")
}
