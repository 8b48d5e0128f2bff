package editor

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "PDFMarkup/pkg/errors"
)

// ExportResult is a finished export, ready to be written wherever the user chooses.
type ExportResult struct {
	Name  string
	Data  []byte
	Pages int
}

// Export burns every page's operations into a new PDF. Only one export runs at a time;
// a second call while one is in flight fails with a conflict error. The operations are
// snapshotted when the export starts, so edits made meanwhile are not included.
// A failed export yields no data and leaves all edits in place.
func (s *Session) Export(ctx context.Context) (ExportResult, error) {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ExportResult{}, ErrNoDocument
	}
	if s.exporting {
		s.mu.Unlock()
		return ExportResult{}, apperrors.NewConflictError("An export is already in progress.")
	}
	s.exporting = true
	doc := s.acquireLocked()
	edits := s.edits.Snapshot()
	name := s.cfg.OutputPrefix + s.fileName
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.exporting = false
		s.mu.Unlock()
		doc.readers.Done()
	}()

	start := time.Now()
	s.logger.Info("export started",
		zap.String("file", name),
		zap.Int("pages", doc.NumPages()),
		zap.Int("operations", edits.OperationCount()),
	)

	data, err := s.pipeline.Run(ctx, doc, edits)
	if err != nil {
		s.logger.Error("export failed", zap.String("file", name), zap.Error(err))
		return ExportResult{}, err
	}

	s.logger.Info("export ready", zap.String("file", name), zap.Duration("elapsed", time.Since(start)))
	return ExportResult{Name: name, Data: data, Pages: doc.NumPages()}, nil
}
