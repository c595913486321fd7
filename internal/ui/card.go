package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teataster/teataster/internal/models"
)

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// BuildCardText renders a tasting card. Only filled fields produce lines.
func BuildCardText(t *models.Tasting, infusions []*models.Infusion, photoCount int) string {
	lines := []string{fmt.Sprintf("#%d %s", t.SeqNo, t.Title())}
	lines = append(lines, fmt.Sprintf("⭐ Rating: %d", t.Rating))
	if t.Grams != nil {
		lines = append(lines, fmt.Sprintf("⚖️ Grams: %s g", strconv.FormatFloat(*t.Grams, 'f', -1, 64)))
	}
	if t.TempC != nil {
		lines = append(lines, fmt.Sprintf("🌡️ Temperature: %d °C", *t.TempC))
	}
	if t.TastedAt != nil && *t.TastedAt != "" {
		lines = append(lines, "⏰ Tasted at: "+*t.TastedAt)
	}
	if t.Gear != nil && *t.Gear != "" {
		lines = append(lines, "🍶 Teaware: "+*t.Gear)
	}

	dry := t.AromaDry != nil && *t.AromaDry != ""
	warmed := t.AromaWarmed != nil && *t.AromaWarmed != ""
	if dry || warmed {
		lines = append(lines, "🌬️ Aromas:")
		if dry {
			lines = append(lines, "  ▫️ dry leaf: "+*t.AromaDry)
		}
		if warmed {
			lines = append(lines, "  ▫️ warmed/rinsed leaf: "+*t.AromaWarmed)
		}
	}

	if t.EffectsCSV != nil && *t.EffectsCSV != "" {
		lines = append(lines, "🧘 Sensations: "+*t.EffectsCSV)
	}
	if t.ScenariosCSV != nil && *t.ScenariosCSV != "" {
		lines = append(lines, "🎯 Scenarios: "+*t.ScenariosCSV)
	}
	if t.Summary != nil && *t.Summary != "" {
		lines = append(lines, "📝 Note: "+*t.Summary)
	}
	if photoCount > 0 {
		lines = append(lines, fmt.Sprintf("📷 Photos: %d", photoCount))
	}

	if len(infusions) > 0 {
		lines = append(lines, "🫖 Infusions:")
		for _, inf := range infusions {
			seconds := "-"
			if inf.Seconds != nil {
				seconds = strconv.Itoa(*inf.Seconds)
			}
			lines = append(lines, fmt.Sprintf(
				"  #%d: %s sec; color: %s; taste: %s; notes: %s; body: %s; aftertaste: %s",
				inf.N, seconds,
				orDash(inf.LiquorColor), orDash(inf.Taste), orDash(inf.SpecialNotes),
				orDash(inf.Body), orDash(inf.Aftertaste),
			))
		}
	}

	return strings.Join(lines, "\n")
}

// SplitMessage breaks text into chunks of at most limit runs of bytes,
// preferring paragraph breaks, then line breaks, then hard cuts.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	current := ""
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		candidate := paragraph
		if current != "" {
			candidate = current + "\n\n" + paragraph
		}
		if len(candidate) <= limit {
			current = candidate
			continue
		}
		if current != "" {
			parts = append(parts, current)
			current = ""
		}
		if len(paragraph) <= limit {
			current = paragraph
			continue
		}
		parts = append(parts, splitLines(paragraph, limit)...)
	}
	if current != "" {
		parts = append(parts, current)
	}
	if len(parts) == 0 {
		return []string{text[:limit]}
	}
	return parts
}

func splitLines(chunk string, limit int) []string {
	var parts []string
	buf := ""
	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		candidate := line
		if buf != "" {
			candidate = buf + "\n" + line
		}
		if len(candidate) > limit {
			if buf != "" {
				parts = append(parts, buf)
				buf = ""
			}
			for len(line) > limit {
				parts = append(parts, line[:limit])
				line = line[limit:]
			}
			buf = line
			continue
		}
		buf = candidate
	}
	if buf != "" {
		parts = append(parts, buf)
	}
	return parts
}
