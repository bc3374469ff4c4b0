package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktally/worktally-backend/pkg/errors"
)

func ptrInt64(v int64) *int64 { return &v }

func TestResolveSpans(t *testing.T) {
	svc := newTestService(t)

	t.Run("recomputes seconds server side", func(t *testing.T) {
		updates, err := svc.resolveSpans([]EditChange{
			{
				SerialID: 1,
				TaskID:   10,
				New: EditSpan{
					StartISO: "2025-06-01T10:00:00Z",
					EndISO:   "2025-06-01T11:30:00Z",
					Seconds:  ptrInt64(999), // client figure is ignored
				},
			},
		})
		require.NoError(t, err)
		require.Len(t, updates, 1)
		assert.Equal(t, int64(5400), updates[0].Seconds)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		_, err := svc.resolveSpans(nil)
		assert.True(t, errors.Is(err, errors.ErrValidation))
	})

	t.Run("missing seconds rejected", func(t *testing.T) {
		_, err := svc.resolveSpans([]EditChange{
			{SerialID: 1, TaskID: 10, New: EditSpan{StartISO: "2025-06-01T10:00:00Z", EndISO: "2025-06-01T11:00:00Z"}},
		})
		assert.True(t, errors.Is(err, errors.ErrValidation))
	})

	t.Run("bad start timestamp rejected", func(t *testing.T) {
		_, err := svc.resolveSpans([]EditChange{
			{SerialID: 1, TaskID: 10, New: EditSpan{StartISO: "yesterday", EndISO: "2025-06-01T11:00:00Z", Seconds: ptrInt64(3600)}},
		})
		assert.True(t, errors.Is(err, errors.ErrValidation))
	})

	t.Run("end before start rejected", func(t *testing.T) {
		_, err := svc.resolveSpans([]EditChange{
			{SerialID: 1, TaskID: 10, New: EditSpan{StartISO: "2025-06-01T11:00:00Z", EndISO: "2025-06-01T10:00:00Z", Seconds: ptrInt64(3600)}},
		})
		assert.True(t, errors.Is(err, errors.ErrValidation))
	})

	t.Run("one bad change rejects the whole batch", func(t *testing.T) {
		_, err := svc.resolveSpans([]EditChange{
			{SerialID: 1, TaskID: 10, New: EditSpan{StartISO: "2025-06-01T10:00:00Z", EndISO: "2025-06-01T11:00:00Z", Seconds: ptrInt64(3600)}},
			{SerialID: 2, TaskID: 10, New: EditSpan{StartISO: "bogus", EndISO: "2025-06-01T11:00:00Z", Seconds: ptrInt64(3600)}},
		})
		assert.True(t, errors.Is(err, errors.ErrValidation))
	})

	t.Run("zero length span rejected", func(t *testing.T) {
		_, err := svc.resolveSpans([]EditChange{
			{SerialID: 1, TaskID: 10, New: EditSpan{StartISO: "2025-06-01T10:00:00Z", EndISO: "2025-06-01T10:00:00Z", Seconds: ptrInt64(0)}},
		})
		assert.True(t, errors.Is(err, errors.ErrValidation))
	})
}

func TestPreviewEdits(t *testing.T) {
	svc := newTestService(t)

	rows, err := svc.PreviewEdits([]EditChange{
		{
			SerialID: 7,
			TaskID:   42,
			New: EditSpan{
				StartISO: "2025-06-01T10:00:00Z",
				EndISO:   "2025-06-01T11:01:01Z",
				Seconds:  ptrInt64(3661),
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, int64(7), rows[0].SerialID)
	assert.Equal(t, int64(42), rows[0].TaskID)
	assert.Equal(t, int64(3661), rows[0].Seconds)
	assert.Equal(t, "1h 01m 01s", rows[0].Elapsed)
	// Rendered in the service timezone (UTC+6)
	assert.Equal(t, "01/06/2025, 16:00:00", rows[0].Start)
	assert.Equal(t, "01/06/2025, 17:01:01", rows[0].End)
}

func TestPreviewEditsRejectsInvalidBatch(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.PreviewEdits([]EditChange{
		{SerialID: 1, TaskID: 10, New: EditSpan{StartISO: "2025-06-01T12:00:00Z", EndISO: "2025-06-01T09:00:00Z", Seconds: ptrInt64(3600)}},
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
