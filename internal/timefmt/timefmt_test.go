package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "0 min", FormatMinutes(0))
	assert.Equal(t, "45 min", FormatMinutes(45))
	assert.Equal(t, "59 min", FormatMinutes(59))
	assert.Equal(t, "1h", FormatMinutes(60))
	assert.Equal(t, "1h 30min", FormatMinutes(90))
	assert.Equal(t, "2h", FormatMinutes(120))
	assert.Equal(t, "25h 1min", FormatMinutes(1501))
}

func TestParseMinutes(t *testing.T) {
	assert.Equal(t, 0, ParseMinutes(""))
	assert.Equal(t, 0, ParseMinutes("---"))
	assert.Equal(t, 15, ParseMinutes("15 min"))
	assert.Equal(t, 60, ParseMinutes("1h"))
	assert.Equal(t, 90, ParseMinutes("1h 30min"))
	assert.Equal(t, 1501, ParseMinutes("25h 1min"))
}

func TestMinutesRoundTrip(t *testing.T) {
	for m := 0; m <= 3000; m++ {
		assert.Equal(t, m, ParseMinutes(FormatMinutes(m)), "minutes=%d", m)
	}
}

func TestElapsed(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	// floor at one minute, even for instant completions
	assert.Equal(t, "1 min", Elapsed(now, now))
	assert.Equal(t, "1 min", Elapsed(now.Add(-30*time.Second), now))

	assert.Equal(t, "15 min", Elapsed(now.Add(-15*time.Minute), now))
	assert.Equal(t, "1h", Elapsed(now.Add(-time.Hour), now))
	assert.Equal(t, "1h 30min", Elapsed(now.Add(-90*time.Minute), now))
}
