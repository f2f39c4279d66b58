package demo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rehabit/internal/models"
)

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(1, 14, 42)
	b := Generate(1, 14, 42)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].ActivityType, b[i].ActivityType)
		assert.Equal(t, a[i].DurationMinutes, b[i].DurationMinutes)
		assert.Equal(t, a[i].ProductivityScore, b[i].ProductivityScore)
	}

	c := Generate(1, 14, 7)
	assert.NotEqual(t, a, c)
}

func TestGenerateShape(t *testing.T) {
	records := Generate(3, 14, 42)
	require.NotEmpty(t, records)

	types := make(map[models.ActivityType]int)
	for _, rec := range records {
		assert.Equal(t, int64(3), rec.UserID)
		assert.True(t, models.ValidActivityType(rec.ActivityType))
		assert.True(t, models.ValidFocusLevel(rec.FocusLevel))
		assert.GreaterOrEqual(t, rec.ProductivityScore, 1)
		assert.LessOrEqual(t, rec.ProductivityScore, 10)
		assert.Positive(t, rec.DurationMinutes)
		types[rec.ActivityType]++
	}
	assert.Positive(t, types[models.ActivityWork])
	assert.Positive(t, types[models.ActivityBreak])
}

func TestGenerateMorningPersonShape(t *testing.T) {
	records := Generate(1, 14, 42)

	// Every day present carries the fixed morning block, so 9 AM work
	// dominates and scores there beat the post-lunch dip.
	var morningSum, morningCount, afternoonSum, afternoonCount int
	for _, rec := range records {
		if rec.ActivityType != models.ActivityWork {
			continue
		}
		switch rec.Timestamp.Hour() {
		case 9:
			morningSum += rec.ProductivityScore
			morningCount++
		case 14:
			afternoonSum += rec.ProductivityScore
			afternoonCount++
		}
	}
	require.Positive(t, morningCount)
	require.Positive(t, afternoonCount)
	assert.Greater(t,
		float64(morningSum)/float64(morningCount),
		float64(afternoonSum)/float64(afternoonCount))
}

func TestGenerateCoversRequestedRange(t *testing.T) {
	days := 14
	records := Generate(1, days, 42)
	require.NotEmpty(t, records)

	first := records[0].Timestamp
	last := records[len(records)-1].Timestamp
	assert.True(t, last.After(first))
	assert.LessOrEqual(t, last.Sub(first), time.Duration(days)*24*time.Hour)
}
