package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teataster/teataster/internal/models"
)

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

func TestBuildCardText_FullRecord(t *testing.T) {
	grams := 7.5
	tt := &models.Tasting{
		SeqNo:        3,
		Name:         "Lao Shu Bai Cha",
		Category:     strp("White"),
		Rating:       8,
		Grams:        &grams,
		TempC:        intp(95),
		TastedAt:     strp("18:30"),
		Gear:         strp("gaiwan"),
		AromaDry:     strp("dried fruit, honey"),
		AromaWarmed:  strp("smoky"),
		EffectsCSV:   strp("Calm, Warming"),
		ScenariosCSV: strp("Rest"),
		Summary:      strp("A keeper."),
	}
	infusions := []*models.Infusion{
		{N: 1, Seconds: intp(15), LiquorColor: strp("amber"), Taste: strp("honey"), Body: strp("dense")},
		{N: 2},
	}

	text := BuildCardText(tt, infusions, 2)

	assert.True(t, strings.HasPrefix(text, "#3 [White] Lao Shu Bai Cha"))
	assert.Contains(t, text, "⭐ Rating: 8")
	assert.Contains(t, text, "⚖️ Grams: 7.5 g")
	assert.Contains(t, text, "🌡️ Temperature: 95 °C")
	assert.Contains(t, text, "⏰ Tasted at: 18:30")
	assert.Contains(t, text, "🍶 Teaware: gaiwan")
	assert.Contains(t, text, "▫️ dry leaf: dried fruit, honey")
	assert.Contains(t, text, "▫️ warmed/rinsed leaf: smoky")
	assert.Contains(t, text, "🧘 Sensations: Calm, Warming")
	assert.Contains(t, text, "🎯 Scenarios: Rest")
	assert.Contains(t, text, "📝 Note: A keeper.")
	assert.Contains(t, text, "📷 Photos: 2")
	assert.Contains(t, text, "#1: 15 sec; color: amber; taste: honey; notes: -; body: dense; aftertaste: -")
	assert.Contains(t, text, "#2: - sec")
}

func TestBuildCardText_SparseRecord(t *testing.T) {
	tt := &models.Tasting{SeqNo: 1, Name: "Plain", Rating: 0}

	text := BuildCardText(tt, nil, 0)

	assert.Equal(t, "#1 [—] Plain\n⭐ Rating: 0", text)
	assert.NotContains(t, text, "Photos")
	assert.NotContains(t, text, "Infusions")
	assert.NotContains(t, text, "Aromas")
}

func TestSplitMessage_ShortTextUntouched(t *testing.T) {
	parts := SplitMessage("hello", 100)
	assert.Equal(t, []string{"hello"}, parts)
}

func TestSplitMessage_ParagraphBoundaries(t *testing.T) {
	text := strings.Repeat("a", 60) + "\n\n" + strings.Repeat("b", 60)

	parts := SplitMessage(text, 100)

	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("a", 60), parts[0])
	assert.Equal(t, strings.Repeat("b", 60), parts[1])
}

func TestSplitMessage_LineBoundaries(t *testing.T) {
	lines := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}
	text := strings.Join(lines, "\n")

	parts := SplitMessage(text, 90)

	require.Len(t, parts, 2)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 90)
	}
	assert.Equal(t, lines[0]+"\n"+lines[1], parts[0])
	assert.Equal(t, lines[2], parts[1])
}

func TestSplitMessage_HardCut(t *testing.T) {
	text := strings.Repeat("x", 250)

	parts := SplitMessage(text, 100)

	require.Len(t, parts, 3)
	assert.Equal(t, 100, len(parts[0]))
	assert.Equal(t, 100, len(parts[1]))
	assert.Equal(t, 50, len(parts[2]))
}
