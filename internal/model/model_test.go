package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPendingEvent_Complete(t *testing.T) {
	start := time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC)

	assert.False(t, PendingEvent{}.Complete())
	assert.False(t, PendingEvent{Title: "Dentista"}.Complete())
	assert.False(t, PendingEvent{Start: start}.Complete())
	assert.True(t, PendingEvent{Title: "Dentista", Start: start}.Complete())
}

func TestPendingEvent_EffectiveEnd(t *testing.T) {
	start := time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC)

	ev := PendingEvent{Start: start}
	assert.Equal(t, start.Add(60*time.Minute), ev.EffectiveEnd(60))
	assert.Zero(t, ev.DurationMinutes, "default must not be written back")

	ev.DurationMinutes = 45
	assert.Equal(t, start.Add(45*time.Minute), ev.EffectiveEnd(60))

	ev.End = start.Add(2 * time.Hour)
	assert.Equal(t, ev.End, ev.EffectiveEnd(60))
}

func TestTimeRange_HalfOpen(t *testing.T) {
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	r := TimeRange{Start: day, End: day.AddDate(0, 0, 1)}

	assert.True(t, r.Contains(day))
	assert.False(t, r.Contains(r.End))
	assert.True(t, r.Contains(r.End.Add(-time.Nanosecond)))

	// Ends exactly at range start: boundary artifact, not included.
	assert.False(t, r.Overlaps(day.Add(-time.Hour), day))
	assert.True(t, r.Overlaps(day.Add(-time.Hour), day.Add(time.Minute)))
	assert.False(t, r.Overlaps(r.End, r.End.Add(time.Hour)))
}

func TestIntent_String(t *testing.T) {
	assert.Equal(t, "create", IntentCreateEvent.String())
	assert.Equal(t, "list_date", IntentListDate.String())
	assert.Equal(t, "unknown", Intent(99).String())
	assert.True(t, IntentListWeek.IsList())
	assert.False(t, IntentCreateEvent.IsList())
}
