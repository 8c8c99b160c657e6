package prompt

import "techhourse/internal/behavior"

func focusNote(f behavior.Focus) string {
	switch f {
	case behavior.FocusGaming:
		return noteGaming
	case behavior.FocusSocial:
		return noteSocial
	case behavior.FocusVideo:
		return noteVideo
	}
	return ""
}

func batteryNote(pct *int) string {
	switch {
	case pct == nil:
		return ""
	case *pct < 30:
		return noteBatteryLow
	case *pct >= 80:
		return noteBatteryGood
	}
	return ""
}

func memoryNote(ratio *float64) string {
	switch {
	case ratio == nil:
		return ""
	case *ratio > 0.8:
		return noteMemoryHigh
	case *ratio < 0.5:
		return noteMemoryOK
	}
	return ""
}

func periodNote(p behavior.Period) string {
	switch p {
	case behavior.PeriodNight:
		return noteNight
	case behavior.PeriodDay:
		return noteDay
	}
	return ""
}

func galleryNote(pct *float64) string {
	switch {
	case pct == nil:
		return ""
	case *pct > 70:
		return noteGalleryHeavy
	case *pct > 50:
		return noteGalleryMid
	}
	return ""
}

func gameNote(hours *float64) string {
	switch {
	case hours == nil:
		return ""
	case *hours > 3:
		return noteGameHeavy
	case *hours > 1:
		return noteGameMid
	case *hours < 0.5:
		return noteGameLight
	}
	return ""
}

func nightPhotoNote(f behavior.Frequency) string {
	switch f {
	case behavior.FrequencyOften:
		return noteNightPhotoOften
	case behavior.FrequencyOccasional:
		return noteNightPhotoSome
	case behavior.FrequencyRare:
		return noteNightPhotoRare
	}
	return ""
}
