package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aashish23092/doc-field-extraction/dto"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Extractor runs the extraction pipeline on one stored document
type Extractor interface {
	Extract(ctx context.Context, req *dto.ExtractionRequest) (*dto.ExtractionResult, error)
}

// DefaultBatchConcurrency bounds how many uploads of one KIE request are
// processed at once. LLM calls are gated separately by the extractor.
const DefaultBatchConcurrency = 4

// MaxBatchFiles caps the uploads of one KIE request
const MaxBatchFiles = 16

// multipartOverhead is the body allowance for multipart boundaries and part headers
const multipartOverhead = 64 << 10

// Response headers carrying what the flat field object cannot
const (
	HeaderRequestID    = "X-Request-ID"
	HeaderFailedFields = "X-Failed-Fields"
)

type ExtractionHandler struct {
	extractor        Extractor
	uploadDir        string
	maxFileSize      int64
	batchConcurrency int
	logger           *slog.Logger
}

func NewExtractionHandler(extractor Extractor, uploadDir string, maxFileSize int64, logger *slog.Logger) *ExtractionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionHandler{
		extractor:        extractor,
		uploadDir:        uploadDir,
		maxFileSize:      maxFileSize,
		batchConcurrency: DefaultBatchConcurrency,
		logger:           logger,
	}
}

// Extract handles POST /api/v1/extract with a single multipart "file"
func (h *ExtractionHandler) Extract(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, uploadError(err, "file"))
		return
	}

	result, err := h.process(c.Request.Context(), file)
	if err != nil {
		h.sendError(c, err)
		return
	}

	c.Header(HeaderRequestID, result.RequestID)
	if result.HasFailures() {
		c.Header(HeaderFailedFields, strings.Join(result.FailedFieldNames(), ", "))
	}
	c.JSON(http.StatusOK, result)
}

// KIE handles POST /api/v1/kie with one or more multipart "files". Each
// upload gets its own entry, in upload order; a failing file does not
// fail the batch.
func (h *ExtractionHandler) KIE(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, uploadError(err, "files"))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		h.sendError(c, fmt.Errorf("%w: multipart field \"files\"", dto.ErrFileRequired))
		return
	}
	if len(files) > MaxBatchFiles {
		h.sendError(c, fmt.Errorf("%w: %d files, limit is %d", dto.ErrFileTooLarge, len(files), MaxBatchFiles))
		return
	}

	h.logger.Info("kie.start", "files", len(files))

	results := make([]dto.FileExtractionResult, len(files))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(h.batchConcurrency)
	for i, file := range files {
		g.Go(func() error {
			result, err := h.process(ctx, file)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				status, body := errorBody(err)
				h.logger.Warn("kie.file.failed", "file", file.Filename, "status", status, "error", err)
				results[i] = dto.FileExtractionResult{Filename: file.Filename, Error: &body}
				return nil
			}
			results[i] = dto.NewFileExtractionResult(file.Filename, result)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// process stores the upload under uploadDir with its original extension,
// runs the extractor on it and removes it afterwards.
func (h *ExtractionHandler) process(ctx context.Context, file *multipart.FileHeader) (*dto.ExtractionResult, error) {
	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", dto.ErrFileTooLarge, file.Filename, file.Size, h.maxFileSize)
	}
	// reject before touching disk
	if _, err := dto.DetectKind(file.Filename); err != nil {
		return nil, err
	}

	path, err := h.saveUpload(file)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	return h.extractor.Extract(ctx, &dto.ExtractionRequest{
		Filename: file.Filename,
		Path:     path,
	})
}

func (h *ExtractionHandler) saveUpload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	dst, err := os.CreateTemp(h.uploadDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return dst.Name(), nil
}

// LimitBody rejects request bodies larger than limit before the multipart
// form is parsed or spooled to disk
func LimitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			status, body := errorBody(fmt.Errorf("%w: request body is %d bytes, limit is %d",
				dto.ErrFileTooLarge, c.Request.ContentLength, limit))
			c.AbortWithStatusJSON(status, body)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// singleUploadLimit is the body limit of /extract
func (h *ExtractionHandler) singleUploadLimit() int64 {
	if h.maxFileSize <= 0 {
		return 0
	}
	return h.maxFileSize + multipartOverhead
}

// batchUploadLimit is the body limit of /kie
func (h *ExtractionHandler) batchUploadLimit() int64 {
	if h.maxFileSize <= 0 {
		return 0
	}
	return MaxBatchFiles*h.maxFileSize + multipartOverhead
}

func uploadError(err error, field string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: request body exceeds %d bytes", dto.ErrFileTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: multipart field %q: %v", dto.ErrFileRequired, field, err)
}

// sendError sends a structured error response
func (h *ExtractionHandler) sendError(c *gin.Context, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("http.request.failed", "path", c.FullPath(), "status", status, "error", err)
	} else {
		h.logger.Warn("http.request.rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, body)
}

func errorBody(err error) (int, dto.ErrorResponse) {
	status, code := http.StatusInternalServerError, "EXTRACTION_FAILED"
	switch {
	case errors.Is(err, dto.ErrFileRequired):
		status, code = http.StatusBadRequest, "FILE_REQUIRED"
	case errors.Is(err, dto.ErrUnsupportedFormat):
		status, code = http.StatusBadRequest, "UNSUPPORTED_FORMAT"
	case errors.Is(err, dto.ErrFileTooLarge):
		status, code = http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"
	case errors.Is(err, dto.ErrOCRFailure):
		status, code = http.StatusUnprocessableEntity, "OCR_FAILED"
	}
	return status, dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Code:    status,
		Stage:   dto.StageOf(err),
	}
}
