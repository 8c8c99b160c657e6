// Package behavior models point-in-time readings of how the user uses the
// device and derives typed signals from them when they are recorded.
package behavior

import "time"

// Unknown marks a reading that could not be determined.
const Unknown = "None"

// IsUnknown reports whether a display value stands for "could not be
// determined" rather than a real reading.
func IsUnknown(v string) bool {
	return v == "" || v == Unknown
}

// Snapshot is one recorded set of usage readings. The string fields are the
// display renderings; Signals carries the values parsed from them.
type Snapshot struct {
	ID           int64     `json:"id"`
	ScreenUsage  string    `json:"screen_usage"`
	Battery      string    `json:"battery"`
	Memory       string    `json:"memory"`
	UsagePeriod  string    `json:"usage_period"`
	GalleryRatio string    `json:"gallery_ratio"`
	GameTime     string    `json:"game_time"`
	NightPhoto   string    `json:"night_photo"`
	Signals      *Signals  `json:"signals,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Resolved returns the snapshot's signals, inferring them from the display
// strings when they were never set.
func (s *Snapshot) Resolved() Signals {
	if s.Signals != nil {
		return *s.Signals
	}
	return Infer(*s)
}

// Focus is the app category dominating screen time.
type Focus string

const (
	FocusUnknown Focus = ""
	FocusGaming  Focus = "gaming"
	FocusSocial  Focus = "social"
	FocusVideo   Focus = "video"
)

// Period is the part of the day the phone is mostly used in.
type Period string

const (
	PeriodUnknown Period = ""
	PeriodNight   Period = "night"
	PeriodDay     Period = "day"
)

// Frequency describes how often night photos are taken.
type Frequency string

const (
	FrequencyUnknown    Frequency = ""
	FrequencyOften      Frequency = "often"
	FrequencyOccasional Frequency = "occasional"
	FrequencyRare       Frequency = "rare"
)

// Signals are the structured values behind a snapshot. A nil pointer or an
// empty enum means the reading is unknown.
type Signals struct {
	Focus          Focus     `json:"focus,omitempty"`
	BatteryPercent *int      `json:"battery_percent,omitempty"`
	MemoryRatio    *float64  `json:"memory_ratio,omitempty"`
	Period         Period    `json:"period,omitempty"`
	GalleryPercent *float64  `json:"gallery_percent,omitempty"`
	GameHours      *float64  `json:"game_hours,omitempty"`
	NightPhoto     Frequency `json:"night_photo,omitempty"`
}
