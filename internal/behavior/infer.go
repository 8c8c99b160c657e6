package behavior

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	percentRe    = regexp.MustCompile(`(\d+)%`)
	decimalPctRe = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
	hoursRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:小时|h|H)`)
	nonNumericRe = regexp.MustCompile(`[^\d.]`)
)

type keywordRule[T any] struct {
	value    T
	keywords []string
}

var focusRules = []keywordRule[Focus]{
	{FocusGaming, []string{"游戏", "game"}},
	{FocusSocial, []string{"社交", "social"}},
	{FocusVideo, []string{"视频", "video"}},
}

var periodRules = []keywordRule[Period]{
	{PeriodNight, []string{"夜间", "晚上", "night", "evening"}},
	{PeriodDay, []string{"白天", "上午", "day", "morning"}},
}

var frequencyRules = []keywordRule[Frequency]{
	{FrequencyOften, []string{"经常", "频繁", "often", "frequent"}},
	{FrequencyOccasional, []string{"偶尔", "occasional"}},
	{FrequencyRare, []string{"很少", "不", "rarely", "seldom", "never"}},
}

// firstMatch returns the value of the first rule with a keyword contained
// in v, compared case-insensitively.
func firstMatch[T any](v string, rules []keywordRule[T]) (T, bool) {
	lower := strings.ToLower(v)
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return r.value, true
			}
		}
	}
	var zero T
	return zero, false
}

// Infer parses the display strings of s into typed signals. Unknown or
// unparseable readings leave the corresponding signal unset.
func Infer(s Snapshot) Signals {
	var sig Signals

	if !IsUnknown(s.ScreenUsage) {
		sig.Focus, _ = firstMatch(s.ScreenUsage, focusRules)
	}
	if !IsUnknown(s.Battery) {
		sig.BatteryPercent = batteryPercent(s.Battery)
	}
	if !IsUnknown(s.Memory) {
		sig.MemoryRatio = memoryRatio(s.Memory)
	}
	if !IsUnknown(s.UsagePeriod) {
		sig.Period, _ = firstMatch(s.UsagePeriod, periodRules)
	}
	if !IsUnknown(s.GalleryRatio) {
		sig.GalleryPercent = firstFloat(decimalPctRe, s.GalleryRatio)
	}
	if !IsUnknown(s.GameTime) {
		sig.GameHours = firstFloat(hoursRe, s.GameTime)
	}
	if !IsUnknown(s.NightPhoto) {
		sig.NightPhoto, _ = firstMatch(s.NightPhoto, frequencyRules)
	}
	return sig
}

func batteryPercent(v string) *int {
	m := percentRe.FindStringSubmatch(v)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// memoryRatio reads "used / total" readings such as "6.2GB / 8GB".
func memoryRatio(v string) *float64 {
	parts := strings.Split(v, "/")
	if len(parts) != 2 {
		return nil
	}
	used, err := strconv.ParseFloat(nonNumericRe.ReplaceAllString(parts[0], ""), 64)
	if err != nil {
		return nil
	}
	total, err := strconv.ParseFloat(nonNumericRe.ReplaceAllString(parts[1], ""), 64)
	if err != nil || total <= 0 {
		return nil
	}
	r := used / total
	return &r
}

func firstFloat(re *regexp.Regexp, v string) *float64 {
	m := re.FindStringSubmatch(v)
	if m == nil {
		return nil
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &f
}
