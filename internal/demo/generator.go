package demo

import (
	"math/rand"
	"time"

	"rehabit/internal/models"
)

// Generate produces a deterministic, realistic activity history for a
// demo user: a morning person whose 9 AM sessions run hot, with a
// post-lunch dip, occasional afternoon meetings, and exercise on some
// weekdays. Weekends are mostly skipped. The same seed always yields
// the same history.
func Generate(userID int64, days int, seed int64) []models.ActivityRecord {
	rng := rand.New(rand.NewSource(seed))
	start := time.Now().AddDate(0, 0, -days)

	var records []models.ActivityRecord
	for day := 0; day < days; day++ {
		date := start.AddDate(0, 0, day)

		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday
		if weekend && rng.Float64() > 0.3 {
			continue
		}

		quality := dayQuality(rng)

		var morningScore, morningDuration int
		switch quality {
		case "good":
			morningScore = randRange(rng, 8, 10)
			morningDuration = randRange(rng, 100, 149)
		case "normal":
			morningScore = randRange(rng, 7, 8)
			morningDuration = randRange(rng, 80, 119)
		default:
			morningScore = randRange(rng, 5, 7)
			morningDuration = randRange(rng, 60, 89)
		}

		records = append(records,
			activity(userID, at(date, 9, 0), models.ActivityWork, morningDuration,
				min(10, morningScore), focusFor(morningScore), "Morning deep work session"),
			activity(userID, at(date, 10, 45), models.ActivityBreak, 15,
				5, models.FocusLow, "Coffee break"),
			activity(userID, at(date, 11, 0), models.ActivityWork, randRange(rng, 60, 89),
				max(5, morningScore-1), focusFor(morningScore), "Continued work before lunch"),
			activity(userID, at(date, 12, 30), models.ActivityBreak, randRange(rng, 45, 74),
				4, models.FocusLow, "Lunch break"),
		)

		afternoonScore := randRange(rng, 4, 6)
		afternoonFocus := models.FocusLow
		if afternoonScore >= 6 {
			afternoonFocus = models.FocusMedium
		}
		records = append(records,
			activity(userID, at(date, 14, 0), models.ActivityWork, randRange(rng, 60, 89),
				afternoonScore, afternoonFocus, "Post-lunch session"))

		if rng.Float64() > 0.4 {
			kind := models.ActivityWork
			notes := "Late afternoon work"
			if rng.Float64() > 0.5 {
				kind = models.ActivityMeeting
				notes = "Team meeting"
			}
			records = append(records,
				activity(userID, at(date, 16, 0), kind, randRange(rng, 30, 89),
					randRange(rng, 5, 6), models.FocusMedium, notes))
		}

		if !weekend && rng.Float64() > 0.4 {
			records = append(records,
				activity(userID, at(date, 17, 30), models.ActivityExercise, randRange(rng, 30, 59),
					6, models.FocusMedium, "Gym / Exercise session"))
		}
	}
	return records
}

// dayQuality draws good/normal/bad with 30/50/20 weights.
func dayQuality(rng *rand.Rand) string {
	switch r := rng.Float64(); {
	case r < 0.3:
		return "good"
	case r < 0.8:
		return "normal"
	default:
		return "bad"
	}
}

func focusFor(score int) models.FocusLevel {
	if score >= 7 {
		return models.FocusHigh
	}
	return models.FocusMedium
}

func at(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

func randRange(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func activity(userID int64, ts time.Time, kind models.ActivityType, duration, score int, focus models.FocusLevel, notes string) models.ActivityRecord {
	return models.ActivityRecord{
		UserID:            userID,
		Timestamp:         ts,
		ActivityType:      kind,
		DurationMinutes:   duration,
		ProductivityScore: score,
		FocusLevel:        focus,
		Notes:             notes,
	}
}
