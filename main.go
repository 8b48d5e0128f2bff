package main

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"PDFMarkup/internal/config"
	"PDFMarkup/internal/document"
	"PDFMarkup/internal/editor"
	"PDFMarkup/internal/ui"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	session := editor.NewSession(cfg, document.NewFitzRasterizer(logger), logger)
	if err := session.Init(); err != nil {
		logger.Fatal("Failed to initialize editor", zap.Error(err))
	}

	logger.Info("Starting PDF Markup",
		zap.String("environment", cfg.Environment),
		zap.Float64("export_scale", cfg.ExportScale),
	)
	ui.RunApp(cfg, session, logger)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
