package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Aashish23092/doc-field-extraction/client"
	"github.com/Aashish23092/doc-field-extraction/config"
	"github.com/Aashish23092/doc-field-extraction/service"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Extract key fields from business documents with OCR and a local LLM",
	Long: `docextract reads a PDF or image, recognizes its text and asks a local
language model for six fields: document number, document date, validity
date, currency, total value and subtype (import or export).

Configuration comes from defaults, an optional --config file and
environment variables such as LLM_BASE_URL or TESSDATA_PREFIX.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (yaml, json or toml)",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(extractCmd)
}

// pipeline holds the collaborators shared by serve and extract
type pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	tesseract *client.TesseractClient
	llm       *client.LLMClient
	extractor *service.ExtractionService
}

func (p *pipeline) Close() {
	p.tesseract.Close()
}

func newPipeline() (*pipeline, error) {
	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	tesseract := client.NewTesseractClient(cfg.OCR.TesseractDataPath, cfg.OCR.Language, logger)

	var qr service.QRDecoder
	if cfg.OCR.EnableQR {
		qr = client.NewQRReader()
	}
	ocr := service.NewOCRService(tesseract, service.NewPDFProcessor(), qr, cfg.OCR.MinEmbeddedTextLength, logger)

	llm := client.NewLLMClient(client.LLMConfig{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
	}, logger)

	extractor := service.NewExtractionService(ocr, llm, service.ExtractionOptions{
		MaxTokens:   cfg.LLM.MaxTokens,
		Stop:        cfg.LLM.Stop,
		CallTimeout: cfg.LLM.CallTimeout,
		Concurrency: cfg.LLM.Concurrency,
	}, logger)

	return &pipeline{
		cfg:       cfg,
		logger:    logger,
		tesseract: tesseract,
		llm:       llm,
		extractor: extractor,
	}, nil
}
