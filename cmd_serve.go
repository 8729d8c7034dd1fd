package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Aashish23092/doc-field-extraction/handler"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction HTTP API",
	Long: `Start the extraction HTTP API.

Endpoints:
  GET  /health          - service health
  POST /api/v1/extract  - multipart "file", returns the six fields
  POST /api/v1/kie      - multipart "files", returns one entry per upload

Examples:
  docextract serve
  docextract serve --port 3000
  LLM_BASE_URL=http://gpu-box:8081/v1 docextract serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := newPipeline()
		if err != nil {
			return err
		}
		defer p.Close()

		port := p.cfg.ServerPort
		if servePort != "" {
			port = servePort
		}

		if err := p.llm.HealthCheck(ctx); err != nil {
			p.logger.Warn("llm.unreachable", "base_url", p.cfg.LLM.BaseURL, "error", err)
		}

		if strings.EqualFold(p.cfg.LogLevel, "debug") {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		h := handler.NewExtractionHandler(p.extractor, p.cfg.UploadDir, p.cfg.MaxFileSize, p.logger)
		router := handler.NewRouter(h, p.cfg.MaxFileSize, p.logger)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: router,
		}

		errCh := make(chan error, 1)
		go func() {
			p.logger.Info("server.start", "port", port, "model", p.cfg.LLM.Model)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			p.logger.Info("shutdown signal received")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		p.logger.Info("server.stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (overrides SERVER_PORT)")
}
