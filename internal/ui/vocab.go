package ui

// Message size limits imposed by the Telegram Bot API.
const (
	CaptionLimit = 1024
	MessageLimit = 4096
)

// MaxCategoryLen caps free-text category input.
const MaxCategoryLen = 60

// Categories offered during creation and category search. Free text is
// accepted too via the "Other" button.
var Categories = []string{
	"Green", "White", "Red", "Oolong", "Shu Puer", "Shen Puer", "Hei Cha", "Other",
}

// BodyPresets describe the liquor's mouthfeel.
var BodyPresets = []string{"thin", "light", "medium", "dense", "oily"}

// Effects are bodily sensations offered on the multi-select step.
var Effects = []string{
	"Warming",
	"Cooling",
	"Relaxation",
	"Focus",
	"Alertness",
	"Energy",
	"Calm",
	"Sleepiness",
}

// Scenarios are drinking occasions offered on the multi-select step.
var Scenarios = []string{
	"Rest",
	"Work/study",
	"Creativity",
	"Meditation",
	"Socializing",
	"Walking",
}

// Descriptors are the aroma and taste vocabulary.
var Descriptors = []string{
	"dried fruit",
	"honey",
	"bready",
	"flowers",
	"nutty",
	"woody",
	"smoky",
	"berries",
	"fruits",
	"herbaceous",
	"vegetal",
	"spicy",
	"earthy",
}

// AftertasteSet is the aftertaste vocabulary.
var AftertasteSet = []string{
	"sweet",
	"fruity",
	"berry",
	"floral",
	"citrus",
	"confectionery",
	"bready",
	"woody",
	"spicy",
	"bitter",
	"mineral",
	"vegetal",
	"earthy",
}

// FieldLabels maps editable columns to their button captions.
var FieldLabels = map[string]string{
	"name":          "Name",
	"year":          "Year",
	"region":        "Region",
	"category":      "Category",
	"grams":         "Grams",
	"temp_c":        "Temperature",
	"tasted_at":     "Time",
	"gear":          "Teaware",
	"aroma_dry":     "Aroma (dry)",
	"aroma_warmed":  "Aroma (warmed)",
	"effects_csv":   "Sensations",
	"scenarios_csv": "Scenarios",
	"rating":        "Rating",
	"summary":       "Note",
}

// editFieldOrder fixes the keyboard layout for field selection.
var editFieldOrder = []string{
	"name", "year",
	"region", "category",
	"grams", "temp_c",
	"tasted_at", "gear",
	"aroma_dry", "aroma_warmed",
	"effects_csv", "scenarios_csv",
	"rating", "summary",
}
