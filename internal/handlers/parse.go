package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/teataster/teataster/internal/ui"
)

// The wizard coerces numbers leniently: garbage input just leaves the field
// empty and moves on. Editing an existing record validates strictly instead,
// so a typo cannot silently wipe a value.

func parseYearLenient(text string) *int {
	text = strings.TrimSpace(text)
	if v, err := strconv.Atoi(text); err == nil && text != "" && allDigits(text) {
		return &v
	}
	return nil
}

func parseGramsLenient(text string) *float64 {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		return &v
	}
	return nil
}

func parseTempLenient(text string) *int {
	text = strings.TrimSpace(text)
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		v := int(f)
		return &v
	}
	return nil
}

func parseSecondsLenient(text string) *int {
	text = strings.TrimSpace(text)
	if allDigits(text) && text != "" {
		v, _ := strconv.Atoi(text)
		return &v
	}
	return nil
}

// parseTimeLenient keeps the first five characters of anything containing a
// colon, dropping everything else.
func parseTimeLenient(text string) *string {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, ":") {
		return nil
	}
	if len(text) > 5 {
		text = text[:5]
	}
	return &text
}

func parseRatingLenient(text string) int {
	text = strings.TrimSpace(text)
	v := 0
	if allDigits(text) && text != "" {
		v, _ = strconv.Atoi(text)
	}
	if v < 0 {
		v = 0
	}
	if v > 10 {
		v = 10
	}
	return v
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// normalizeCSV trims every comma-separated piece and drops empties.
func normalizeCSV(raw string) string {
	var kept []string
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			kept = append(kept, piece)
		}
	}
	return strings.Join(kept, ", ")
}

// editFieldSpec describes one strictly-validated text-editable field.
type editFieldSpec struct {
	prompt     string
	allowClear bool
	column     string
}

var editTextFields = map[string]editFieldSpec{
	"name":          {prompt: "Send the new name.", allowClear: false, column: "name"},
	"year":          {prompt: "Send a year (4 digits) or \"-\" to clear.", allowClear: true, column: "year"},
	"region":        {prompt: "Send a region or \"-\" to clear.", allowClear: true, column: "region"},
	"grams":         {prompt: "Send the grams (a number) or \"-\".", allowClear: true, column: "grams"},
	"temp_c":        {prompt: "Send the temperature (°C) or \"-\".", allowClear: true, column: "temp_c"},
	"tasted_at":     {prompt: "Send a time as HH:MM or \"-\".", allowClear: true, column: "tasted_at"},
	"gear":          {prompt: "Send the teaware or \"-\".", allowClear: true, column: "gear"},
	"aroma_dry":     {prompt: "Send the dry leaf aroma or \"-\".", allowClear: true, column: "aroma_dry"},
	"aroma_warmed":  {prompt: "Send the warmed/rinsed leaf aroma or \"-\".", allowClear: true, column: "aroma_warmed"},
	"effects_csv":   {prompt: "Send sensations separated by commas, or \"-\".", allowClear: true, column: "effects_csv"},
	"scenarios_csv": {prompt: "Send scenarios separated by commas, or \"-\".", allowClear: true, column: "scenarios_csv"},
	"summary":       {prompt: "Send a note or \"-\".", allowClear: true, column: "summary"},
}

// validateCategory checks free-text category input during edit. The
// category is mandatory, so the clear sentinel is rejected like emptiness.
func validateCategory(raw string) (value, errPrompt string) {
	text := strings.TrimSpace(raw)
	if text == "" || text == "-" {
		return "", "The category cannot be empty. Type a category."
	}
	if len([]rune(text)) > ui.MaxCategoryLen {
		return "", "That category is too long. Type a shorter one."
	}
	return text, ""
}

// prepareTextEdit validates raw input for field. It returns the typed value
// to store (nil clears the column), a re-prompt when the input is rejected,
// and the target column name.
func prepareTextEdit(field, raw string) (value any, errPrompt string, column string) {
	spec, ok := editTextFields[field]
	if !ok {
		return nil, "Unknown field.", ""
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, spec.prompt, ""
	}

	if text == "-" {
		if spec.allowClear {
			return nil, "", spec.column
		}
		return nil, spec.prompt, ""
	}

	switch field {
	case "year":
		if len(text) == 4 && allDigits(text) {
			v, _ := strconv.Atoi(text)
			return v, "", spec.column
		}
		return nil, "The year must be 4 digits. " + spec.prompt, ""
	case "grams":
		v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
		if err != nil {
			return nil, "Couldn't parse the number. " + spec.prompt, ""
		}
		return v, "", spec.column
	case "temp_c":
		v, err := strconv.Atoi(text)
		if err != nil {
			return nil, "Use a whole number. " + spec.prompt, ""
		}
		return v, "", spec.column
	case "tasted_at":
		if _, err := time.Parse("15:04", text); err != nil {
			return nil, "The time must be HH:MM. " + spec.prompt, ""
		}
		return text, "", spec.column
	case "effects_csv", "scenarios_csv":
		normalized := normalizeCSV(text)
		if normalized == "" {
			return nil, spec.prompt, ""
		}
		return normalized, "", spec.column
	}

	// remaining fields store the text as is
	return text, "", spec.column
}

// joinSelected renders a multi-select result as CSV, nil-like empty string
// when nothing was picked.
func joinSelected(selected []string) *string {
	if len(selected) == 0 {
		return nil
	}
	s := strings.Join(selected, ", ")
	return &s
}

func strPtr(text string) *string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return &text
}
