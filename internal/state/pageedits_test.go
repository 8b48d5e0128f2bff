package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blurOp(points ...Point) EditOperation {
	return EditOperation{
		ID:         NewOperationID(time.Now()),
		Type:       ToolBlur,
		Points:     points,
		Properties: BlurProps{Intensity: 5, BrushSize: 20},
		Timestamp:  time.Now(),
	}
}

func TestPageEditSet_AppendKeepsOrder(t *testing.T) {
	s := NewPageEditSet()
	first := blurOp(Point{X: 1})
	second := blurOp(Point{X: 2})
	require.NoError(t, s.Append(2, first))
	require.NoError(t, s.Append(2, second))

	ops := s.Operations(2)
	require.Len(t, ops, 2)
	assert.Equal(t, first.ID, ops[0].ID)
	assert.Equal(t, second.ID, ops[1].ID)
	assert.Nil(t, s.Operations(1))
}

func TestPageEditSet_RejectsInvalid(t *testing.T) {
	s := NewPageEditSet()
	assert.ErrorIs(t, s.Append(0, blurOp(Point{})), ErrInvalidPage)
	assert.ErrorIs(t, s.Append(1, blurOp()), ErrEmptyOperation)
	assert.Equal(t, 0, s.Len())
}

func TestPageEditSet_ClearTouchesOnlyThatPage(t *testing.T) {
	s := NewPageEditSet()
	for page := 1; page <= 3; page++ {
		require.NoError(t, s.Append(page, blurOp(Point{X: float64(page)})))
	}

	assert.True(t, s.Clear(2))
	assert.False(t, s.Clear(2))
	assert.Equal(t, []int{1, 3}, s.Pages())
	assert.Len(t, s.Operations(1), 1)
	assert.Len(t, s.Operations(3), 1)
}

func TestPageEditSet_ResetAndCounts(t *testing.T) {
	s := NewPageEditSet()
	for page := 10; page >= 1; page-- {
		require.NoError(t, s.Append(page, blurOp(Point{})))
	}
	require.NoError(t, s.Append(1, blurOp(Point{})))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, s.Pages())
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, 11, s.OperationCount())

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Pages())
}

func TestPageEditSet_SnapshotIsIndependent(t *testing.T) {
	s := NewPageEditSet()
	require.NoError(t, s.Append(1, blurOp(Point{X: 1}, Point{X: 2})))

	snap := s.Snapshot()
	require.NoError(t, s.Append(1, blurOp(Point{X: 3})))
	s.Clear(1)

	ops := snap.Operations(1)
	require.Len(t, ops, 1)
	assert.Len(t, ops[0].Points, 2)
}

func TestPageEditSet_OperationsAreCopies(t *testing.T) {
	s := NewPageEditSet()
	require.NoError(t, s.Append(1, blurOp(Point{X: 1})))

	ops := s.Operations(1)
	ops[0].Points[0] = Point{X: 42}
	assert.Equal(t, Point{X: 1}, s.Operations(1)[0].Points[0])
}

func TestNewOperationID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a := NewOperationID(now)
	b := NewOperationID(now)
	assert.Regexp(t, `^op_1700000000123_[0-9a-f]{8}$`, a)
	assert.NotEqual(t, a, b)
}
