// Package prompt composes the system prompts sent alongside chat messages.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"techhourse/internal/behavior"
	"techhourse/internal/catalog"
	"techhourse/internal/logging"
)

// Source supplies the data a prompt is built from.
type Source interface {
	LatestBehavior(ctx context.Context) (*behavior.Snapshot, error)
	ListPhones(ctx context.Context) ([]catalog.Phone, error)
}

// Builder assembles system prompts. The zero value is not usable; call New.
type Builder struct {
	logger *logging.Logger
	render func(*behavior.Snapshot, []catalog.Phone) string
}

func New(logger *logging.Logger) *Builder {
	return &Builder{logger: logging.OrDiscard(logger), render: render}
}

func render(snap *behavior.Snapshot, phones []catalog.Phone) string {
	if snap == nil {
		return Default(phones)
	}
	return Personalized(*snap, phones)
}

// Generate reads the newest snapshot and the full catalog from src and builds
// a prompt. Read errors are treated the same as missing data.
func (b *Builder) Generate(ctx context.Context, src Source) string {
	snap, err := src.LatestBehavior(ctx)
	if err != nil {
		b.logger.Warn("behavior read failed, using default prompt: %v", err)
		snap = nil
	}
	phones, err := src.ListPhones(ctx)
	if err != nil {
		b.logger.Warn("catalog read failed, omitting catalog: %v", err)
		phones = nil
	}
	return b.Build(snap, phones)
}

// Build returns the personalized prompt when snap is non-nil and the default
// prompt otherwise. A failure during assembly yields FallbackPrompt.
func (b *Builder) Build(snap *behavior.Snapshot, phones []catalog.Phone) (out string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("prompt assembly failed, using fallback: %v", r)
			out = FallbackPrompt
		}
	}()

	out = b.render(snap, phones)
	b.logger.WithFields(map[string]interface{}{
		"personalized": snap != nil,
		"phones":       len(phones),
		"bytes":        len(out),
	}).Debug("built system prompt")
	return out
}

// Default is the prompt used when no behavior snapshot exists.
func Default(phones []catalog.Phone) string {
	var sb strings.Builder
	sb.WriteString(DefaultRole)
	writeCatalog(&sb, phones)
	sb.WriteString(DefaultGuidance)
	return sb.String()
}

// Personalized is the prompt annotated with the readings in s.
func Personalized(s behavior.Snapshot, phones []catalog.Phone) string {
	sig := s.Resolved()

	var sb strings.Builder
	sb.WriteString(PersonalizedRole)
	sb.WriteString(behaviorHeader)

	field(&sb, labelScreen, s.ScreenUsage, focusNote(sig.Focus))
	field(&sb, labelBattery, s.Battery, batteryNote(sig.BatteryPercent))
	field(&sb, labelMemory, s.Memory, memoryNote(sig.MemoryRatio))
	field(&sb, labelPeriod, s.UsagePeriod, periodNote(sig.Period))
	field(&sb, labelGallery, s.GalleryRatio, galleryNote(sig.GalleryPercent))
	field(&sb, labelGame, s.GameTime, gameNote(sig.GameHours))
	field(&sb, labelNight, s.NightPhoto, nightPhotoNote(sig.NightPhoto))

	writeCatalog(&sb, phones)
	sb.WriteString(PersonalizedGuidance)
	return sb.String()
}

// Comparison renders phones for a head-to-head summary. It returns "" when
// phones is empty.
func Comparison(phones []catalog.Phone) string {
	if len(phones) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, comparisonHeader, len(phones))
	writeBlocks(&sb, phones)
	fmt.Fprintf(&sb, comparisonFooter, len(phones))
	return sb.String()
}

func field(sb *strings.Builder, label, value, note string) {
	sb.WriteString(label)
	sb.WriteString(value)
	if !behavior.IsUnknown(value) {
		sb.WriteString(note)
	}
	sb.WriteString("\n")
}

// writeCatalog inlines every phone. An empty catalog writes nothing.
func writeCatalog(sb *strings.Builder, phones []catalog.Phone) {
	if len(phones) == 0 {
		return
	}
	fmt.Fprintf(sb, catalogHeader, len(phones))
	writeBlocks(sb, phones)
	sb.WriteString(catalogFooter)
}

func writeBlocks(sb *strings.Builder, phones []catalog.Phone) {
	for i, p := range phones {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(sb, "%d. %s\n", i+1, p.Model)
		fmt.Fprintf(sb, "   品牌: %s\n", p.Brand)
		fmt.Fprintf(sb, "   市场名: %s\n", p.MarketName)
		fmt.Fprintf(sb, "   内存配置: %s\n", p.Memory)
		fmt.Fprintf(sb, "   前摄: %s\n", p.FrontCamera)
		fmt.Fprintf(sb, "   后摄: %s\n", p.RearCamera)
		fmt.Fprintf(sb, "   分辨率: %s\n", p.Resolution)
		fmt.Fprintf(sb, "   屏幕尺寸: %s\n", p.ScreenSize)
		fmt.Fprintf(sb, "   主要卖点: %s\n", p.SellingPoint)
		fmt.Fprintf(sb, "   价格: %s\n", p.Price)
	}
}
