package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10, "chunks")

	tracker.Start()
	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
	output := buf.String()
	assert.Contains(t, output, "100/100")
	assert.Contains(t, output, "100.0%")
	assert.Contains(t, output, "chunks/s")
}

func TestProgressTracker_Finish(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10, "documents")

	tracker.Start()
	tracker.Update(75)
	tracker.Finish()

	output := buf.String()
	assert.Contains(t, output, "100/100", "finish should set to total")
	assert.True(t, strings.HasSuffix(output, "\n"), "finish should end the line")
}

func TestProgressTracker_Bounds(t *testing.T) {
	t.Run("zero total", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 0, 10, "chunks")
		tracker.Start()
		tracker.Finish()
		assert.Contains(t, buf.String(), "0/0")
	})

	t.Run("increment beyond total", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 100, 10, "chunks")
		tracker.Start()
		tracker.Increment(150)
		assert.Contains(t, buf.String(), "100/100")
		assert.NotContains(t, buf.String(), "150/100")
	})

	t.Run("not started", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 100, 10, "chunks")
		tracker.Increment(10)
		tracker.Finish()
		assert.Empty(t, buf.String())
		assert.Zero(t, tracker.Elapsed())
	})

	t.Run("defaults", func(t *testing.T) {
		tracker := NewProgressTracker(nil, 10, 0, "")
		tracker.Start()
		tracker.Increment(1)
		tracker.Finish()
		assert.Equal(t, "items", tracker.unit)
		assert.Equal(t, 1, tracker.reportInterval)
	})
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 1000, 100, "chunks")
	tracker.Start()

	tracker.Update(50)
	assert.Empty(t, buf.String(), "should not print under interval")

	tracker.Update(100)
	assert.NotEmpty(t, buf.String(), "should print at interval")

	buf.Reset()
	tracker.Update(150)
	assert.Empty(t, buf.String(), "interval is measured from the last report")

	tracker.Update(250)
	assert.NotEmpty(t, buf.String())
}
