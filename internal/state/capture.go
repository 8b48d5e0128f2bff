package state

import "time"

// CaptureState is the lifecycle position of the gesture being drawn.
type CaptureState int

const (
	Idle CaptureState = iota
	Capturing
	// AwaitingText means a text anchor was placed and the caller owes a TextResult.
	AwaitingText
)

func (s CaptureState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case AwaitingText:
		return "awaiting-text"
	}
	return "unknown"
}

// BeginOutcome tells the caller what Begin did.
type BeginOutcome int

const (
	// BeginIgnored: nothing was started (select tool, or a text prompt is still open).
	BeginIgnored BeginOutcome = iota
	// BeginCapturing: a stroke started; feed it with Continue and finish with End.
	BeginCapturing
	// BeginAwaitingText: prompt the user and answer with ResolveText.
	BeginAwaitingText
)

// TextResult is the answer to a text prompt.
type TextResult struct {
	Text      string
	Cancelled bool
}

// Entered is the result of a prompt the user confirmed.
func Entered(text string) TextResult { return TextResult{Text: text} }

// Cancelled is the result of a prompt the user dismissed.
func Cancelled() TextResult { return TextResult{Cancelled: true} }

// Capture turns pointer gestures into committed operations.
// It owns the in-progress operation until End or ResolveText hands it back to the caller.
type Capture struct {
	state   CaptureState
	pending *EditOperation
	now     func() time.Time
}

// NewCapture returns an idle capture.
func NewCapture() *Capture {
	return &Capture{now: time.Now}
}

// State returns the current lifecycle state.
func (c *Capture) State() CaptureState {
	return c.state
}

// Pending returns a copy of the in-progress operation, if any.
func (c *Capture) Pending() (EditOperation, bool) {
	if c.pending == nil {
		return EditOperation{}, false
	}
	return c.pending.Clone(), true
}

// Begin starts a gesture at p with tool, snapshotting settings into the new operation.
// A stroke already in progress is committed first and returned as flushed.
func (c *Capture) Begin(tool Tool, settings ToolSettings, p Point) (outcome BeginOutcome, flushed *EditOperation) {
	if c.state == AwaitingText {
		return BeginIgnored, nil
	}
	if c.state == Capturing {
		if op, ok := c.End(); ok {
			flushed = &op
		}
	}

	props, ok := settings.Snapshot(tool)
	if !ok {
		return BeginIgnored, flushed
	}

	now := c.now()
	c.pending = &EditOperation{
		ID:         NewOperationID(now),
		Type:       tool,
		Points:     []Point{p},
		Properties: props,
		Timestamp:  now,
	}

	if tool == ToolText {
		c.state = AwaitingText
		return BeginAwaitingText, flushed
	}
	c.state = Capturing
	return BeginCapturing, flushed
}

// Continue appends p to the stroke in progress. It reports false when nothing is being captured.
func (c *Capture) Continue(p Point) bool {
	if c.state != Capturing {
		return false
	}
	c.pending.Points = append(c.pending.Points, p)
	return true
}

// End finishes the stroke in progress and hands it to the caller for commit.
// Pointer-up and pointer-leave both end up here.
func (c *Capture) End() (EditOperation, bool) {
	if c.state != Capturing {
		return EditOperation{}, false
	}
	op := *c.pending
	c.reset()
	return op, true
}

// ResolveText answers the prompt opened by Begin. Confirmed non-empty text yields a committed
// one-point text operation; anything else aborts back to Idle with no operation.
func (c *Capture) ResolveText(r TextResult) (EditOperation, bool) {
	if c.state != AwaitingText {
		return EditOperation{}, false
	}
	op := *c.pending
	c.reset()

	if r.Cancelled || r.Text == "" {
		return EditOperation{}, false
	}
	props := op.Properties.(TextProps)
	props.Text = r.Text
	op.Properties = props
	return op, true
}

// Cancel drops whatever is in progress without committing it.
func (c *Capture) Cancel() {
	c.reset()
}

func (c *Capture) reset() {
	c.state = Idle
	c.pending = nil
}
