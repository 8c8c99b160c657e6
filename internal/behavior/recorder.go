package behavior

import (
	"context"
	"fmt"
	"strings"
	"time"

	"techhourse/internal/logging"
)

// undeterminedMarker appears in collector output when a reading is
// unavailable (for example "系统无法获取").
const undeterminedMarker = "系统无法"

// Usage keys accepted by Recorder.Record. Each field accepts the collector's
// display label or a snake_case alias.
var fieldKeys = map[string][]string{
	"screen_usage":  {"屏幕使用时长", "screen_usage"},
	"battery":       {"电池容量", "battery"},
	"memory":        {"使用内存", "memory"},
	"usage_period":  {"手机使用时段", "usage_period"},
	"gallery_ratio": {"图库存储使用占比", "gallery_ratio"},
	"game_time":     {"日均游戏时间", "game_time"},
	"night_photo":   {"夜间拍照", "night_photo"},
}

// Saver persists snapshots.
type Saver interface {
	SaveBehavior(ctx context.Context, s *Snapshot) error
}

// Recorder turns raw usage readings into stored snapshots.
type Recorder struct {
	saver  Saver
	logger *logging.Logger
	now    func() time.Time
}

func NewRecorder(saver Saver, logger *logging.Logger) *Recorder {
	return &Recorder{saver: saver, logger: logging.OrDiscard(logger), now: time.Now}
}

// FromUsage builds a snapshot from collector readings. Missing keys, blank
// values and undetermined readings become Unknown.
func FromUsage(usage map[string]string, at time.Time) Snapshot {
	get := func(field string) string {
		for _, key := range fieldKeys[field] {
			v, ok := usage[key]
			if !ok {
				continue
			}
			v = strings.TrimSpace(v)
			if v == "" || strings.Contains(v, undeterminedMarker) {
				return Unknown
			}
			return v
		}
		return Unknown
	}

	s := Snapshot{
		ScreenUsage:  get("screen_usage"),
		Battery:      get("battery"),
		Memory:       get("memory"),
		UsagePeriod:  get("usage_period"),
		GalleryRatio: get("gallery_ratio"),
		GameTime:     get("game_time"),
		NightPhoto:   get("night_photo"),
		RecordedAt:   at,
	}
	sig := Infer(s)
	s.Signals = &sig
	return s
}

// Record appends a new snapshot built from usage and returns it.
func (r *Recorder) Record(ctx context.Context, usage map[string]string) (*Snapshot, error) {
	s := FromUsage(usage, r.now())
	if err := r.saver.SaveBehavior(ctx, &s); err != nil {
		return nil, fmt.Errorf("failed to save behavior snapshot: %w", err)
	}
	r.logger.WithContext("snapshot_id", s.ID).Debug("recorded behavior snapshot")
	return &s, nil
}
