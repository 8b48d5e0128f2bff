package editor

import (
	"go.uber.org/zap"

	"PDFMarkup/internal/geometry"
	"PDFMarkup/internal/state"
)

// Begin starts a gesture with the active tool at p, given in page reference coordinates.
// Presses outside the page are ignored. BeginAwaitingText means the caller must prompt
// for text and answer with ResolveText.
func (s *Session) Begin(p geometry.Point) state.BeginOutcome {
	s.mu.Lock()
	page := geometry.Box{Width: s.pageSize.Width, Height: s.pageSize.Height}
	if s.doc == nil || !page.Contains(p) {
		s.mu.Unlock()
		return state.BeginIgnored
	}

	outcome, flushed := s.capture.Begin(s.tool, s.settings, p)
	if flushed != nil {
		s.commitLocked(*flushed)
	}
	repaint := flushed != nil || outcome == state.BeginCapturing
	if repaint {
		s.showPendingLocked()
	}
	surface, notify := s.surface, s.onOverlayChanged
	s.mu.Unlock()

	if repaint {
		s.emit(notify, surface)
	}
	return outcome
}

// Continue extends the stroke in progress and repaints the overlay.
func (s *Session) Continue(p geometry.Point) {
	s.mu.Lock()
	if !s.capture.Continue(p) {
		s.mu.Unlock()
		return
	}
	s.showPendingLocked()
	surface, notify := s.surface, s.onOverlayChanged
	s.mu.Unlock()

	s.emit(notify, surface)
}

// End finishes the stroke in progress and stores it on the current page.
// It is also the right call when the pointer leaves the page.
func (s *Session) End() {
	s.mu.Lock()
	committed := s.commitPendingLocked()
	surface, notify := s.surface, s.onOverlayChanged
	s.mu.Unlock()

	if committed {
		s.emit(notify, surface)
	}
}

// ResolveText answers a pending text prompt. Cancelled or blank text stores nothing.
func (s *Session) ResolveText(r state.TextResult) bool {
	s.mu.Lock()
	op, ok := s.capture.ResolveText(r)
	if ok {
		s.commitLocked(op)
		s.showPendingLocked()
	}
	surface, notify := s.surface, s.onOverlayChanged
	s.mu.Unlock()

	if ok {
		s.emit(notify, surface)
	}
	return ok
}

// commitPendingLocked ends an in-progress stroke, if any, and reports whether one was stored.
func (s *Session) commitPendingLocked() bool {
	op, ok := s.capture.End()
	if !ok {
		return false
	}
	s.commitLocked(op)
	s.showPendingLocked()
	return true
}

// commitLocked stores op on the current page and draws it onto the committed layer.
// Drawing in commit order keeps the layer identical to a full replay.
func (s *Session) commitLocked(op state.EditOperation) {
	if err := s.edits.Append(s.page, op); err != nil {
		s.logger.Warn("operation discarded", zap.String("id", op.ID), zap.Error(err))
		return
	}
	if s.committed != nil {
		if err := s.overlay.Draw(s.committed, op); err != nil {
			s.logger.Error("drawing committed operation", zap.String("id", op.ID), zap.Error(err))
		}
	}
	s.logger.Debug("operation committed",
		zap.String("id", op.ID),
		zap.String("tool", string(op.Type)),
		zap.Int("page", s.page),
		zap.Int("points", len(op.Points)),
	)
}

// surfaceSize is the overlay's intrinsic size, used to map pointer positions.
func (s *Session) surfaceSize() geometry.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface == nil {
		return geometry.Size{}
	}
	b := s.surface.Bounds()
	return geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// MapPointer converts a pointer position inside a widget of the given box and displayed size
// into page reference coordinates.
func (s *Session) MapPointer(raw geometry.Point, box geometry.Box, displayed geometry.Size) geometry.Point {
	return geometry.Map(raw, box, s.surfaceSize(), displayed)
}
