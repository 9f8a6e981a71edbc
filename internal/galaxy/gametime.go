package galaxy

import "time"

// gameEpoch is game time zero. Game time counts seconds from here.
var gameEpoch = time.Date(3200, time.January, 1, 0, 0, 0, 0, time.UTC)

// GameTime converts a calendar date into game seconds.
func GameTime(t time.Time) float64 {
	return float64(t.Unix() - gameEpoch.Unix())
}

// GameDate converts game seconds back into a calendar date.
func GameDate(seconds float64) time.Time {
	return time.Unix(gameEpoch.Unix()+int64(seconds), 0).UTC()
}

// PackDate folds a game time into day (5 bits), month (4 bits) and year.
func PackDate(seconds float64) int32 {
	d := GameDate(seconds)
	return int32(d.Day()) | int32(d.Month())<<5 | int32(d.Year())<<9
}

// UnpackDate reverses PackDate to midnight of the packed day.
func UnpackDate(packed int32) float64 {
	year := int(packed >> 9)
	month := time.Month((packed >> 5) & 0xf)
	day := int(packed & 0x1f)
	return GameTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}
