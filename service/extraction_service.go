package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Aashish23092/doc-field-extraction/dto"
	"github.com/Aashish23092/doc-field-extraction/utils"
)

// Completer is the LLM collaborator
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, stop []string) (string, error)
}

// ExtractionOptions tunes how fields are requested from the LLM
type ExtractionOptions struct {
	MaxTokens   int
	Stop        []string
	CallTimeout time.Duration // per field, measured once the call holds an LLM slot
	Concurrency int           // LLM calls in flight across all documents
}

// DefaultCallTimeout bounds one field's LLM call when no timeout is configured
const DefaultCallTimeout = 90 * time.Second

func (o ExtractionOptions) withDefaults() ExtractionOptions {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 128
	}
	if o.Stop == nil {
		o.Stop = []string{utils.StopMarker}
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	return o
}

// ExtractionService runs OCR once per document, then asks the LLM for every
// catalog field and normalizes the answers.
type ExtractionService struct {
	ocr    DocumentRecognizer
	llm    Completer
	slots  *semaphore.Weighted
	opts   ExtractionOptions
	logger *slog.Logger
}

func NewExtractionService(ocr DocumentRecognizer, llm Completer, opts ExtractionOptions, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()
	return &ExtractionService{
		ocr:    ocr,
		llm:    llm,
		slots:  semaphore.NewWeighted(int64(opts.Concurrency)),
		opts:   opts,
		logger: logger,
	}
}

// Extract processes one document. Format and OCR errors are fatal and come
// back as *dto.StageError; a field whose LLM call fails is left empty and
// listed in the result's Failed entries.
func (s *ExtractionService) Extract(ctx context.Context, req *dto.ExtractionRequest) (*dto.ExtractionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	kind, err := dto.DetectKind(req.Name())
	if err != nil {
		return nil, err
	}

	rid := uuid.NewString()
	logger := s.logger.With("req_id", rid, "file", req.Name())
	start := time.Now()
	logger.Info("extraction.start", "kind", kind)

	text, err := s.ocr.Recognize(ctx, req.SourcePath(), kind)
	if err != nil {
		logger.Error("extraction.ocr.failed", "error", err)
		return nil, asOCRError(err)
	}

	fields := dto.Fields()
	raw := make([]dto.RawAnswer, len(fields))
	errs := make([]error, len(fields))

	var wg sync.WaitGroup
	for i, field := range fields {
		wg.Add(1)
		go func(i int, field dto.FieldDefinition) {
			defer wg.Done()
			answer, err := s.extractField(ctx, logger, field, text)
			raw[i] = dto.RawAnswer{Field: field.Name, Text: answer}
			errs[i] = err
		}(i, field)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn("extraction.cancelled", "error", err)
		return nil, err
	}

	result := &dto.ExtractionResult{
		RequestID: rid,
		Entries:   utils.NormalizeAll(raw),
		Raw:       raw,
	}
	for i, field := range fields {
		if errs[i] != nil {
			result.Entries[i].Value = ""
			result.Failed = append(result.Failed, dto.FieldFailure{
				Field:   field.Name,
				Stage:   dto.StageLLM,
				Message: errs[i].Error(),
			})
		}
		logger.Debug("extraction.field", "field", field.Name, "raw", raw[i].Text, "clean", result.Entries[i].Value)
	}

	logger.Info("extraction.done",
		"fields", len(result.Entries),
		"failed", len(result.Failed),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// extractField asks the LLM for one field. The call timeout starts once a
// slot is held so queued fields are not charged for waiting.
func (s *ExtractionService) extractField(ctx context.Context, logger *slog.Logger, field dto.FieldDefinition, documentText string) (string, error) {
	prompt := utils.BuildPrompt(field.Instruction, documentText)

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.slots.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	answer, err := s.llm.Complete(callCtx, prompt, s.opts.MaxTokens, s.opts.Stop)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: call timed out after %s", dto.ErrModelFailure, s.opts.CallTimeout)
		}
		logger.Warn("extraction.field.failed", "field", field.Name, "error", err)
		return "", err
	}

	logger.Debug("extraction.field.answered",
		"field", field.Name,
		"answer_chars", len(answer),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return answer, nil
}

func asOCRError(err error) error {
	if dto.StageOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return ocrFailure(err)
}
