package ui

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/session"
)

// Reply-keyboard button captions, matched verbatim by the router.
const (
	BtnNewTasting = "📝 New tasting"
	BtnFind       = "🔎 Find records"
	BtnLastFive   = "🕔 Last 5"
	BtnHelp       = "❔ Help"
	BtnReset      = "Reset"
)

// adjust lays buttons out in rows of the given widths; the last width
// repeats for any remaining buttons.
func adjust(buttons []tgbotapi.InlineKeyboardButton, widths ...int) tgbotapi.InlineKeyboardMarkup {
	if len(widths) == 0 {
		widths = []int{1}
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	i, w := 0, 0
	for i < len(buttons) {
		width := widths[w]
		if w < len(widths)-1 {
			w++
		}
		end := i + width
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
		i = end
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func btn(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

// MainKeyboard is the inline main menu.
func MainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return adjust([]tgbotapi.InlineKeyboardButton{
		btn(BtnNewTasting, "new"),
		btn(BtnFind, "find"),
		btn(BtnHelp, "help"),
	}, 1)
}

// ReplyMainKeyboard is the persistent reply keyboard under the input field.
func ReplyMainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnNewTasting),
			tgbotapi.NewKeyboardButton(BtnFind),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnLastFive),
			tgbotapi.NewKeyboardButton(BtnHelp),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnReset),
		),
	)
	kb.ResizeKeyboard = true
	kb.InputFieldPlaceholder = "Pick an action"
	return kb
}

// CategoryKeyboard offers the creation categories.
func CategoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, c := range Categories {
		buttons = append(buttons, btn(c, "cat:"+c))
	}
	return adjust(buttons, 2)
}

// CategorySearchKeyboard offers categories as search filters. The "Other"
// preset is replaced by a free-text prompt.
func CategorySearchKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, c := range Categories {
		if c == "Other" {
			continue
		}
		buttons = append(buttons, btn(c, "scat:"+c))
	}
	buttons = append(buttons, btn("Another category (type it)", "scat:__other__"))
	return adjust(buttons, 2)
}

// SkipKeyboard is a single skip button tagged with the step it skips.
func SkipKeyboard(tag string) tgbotapi.InlineKeyboardMarkup {
	return adjust([]tgbotapi.InlineKeyboardButton{
		btn("Skip", "skip:"+tag),
	}, 1)
}

// TimeKeyboard offers "now" or skipping the tasting time.
func TimeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return adjust([]tgbotapi.InlineKeyboardButton{
		btn("Current time", "time:now"),
		btn("Skip", "skip:tasted_at"),
	}, 1)
}

// MoreInfusionsKeyboard asks whether to record another infusion.
func MoreInfusionsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return adjust([]tgbotapi.InlineKeyboardButton{
		btn("🫖 Another infusion", "more_inf"),
		btn("✅ Finish", "finish_inf"),
	}, 2)
}

// BodyKeyboard offers mouthfeel presets plus free text.
func BodyKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, b := range BodyPresets {
		buttons = append(buttons, btn(b, "body:"+b))
	}
	buttons = append(buttons, btn("Other", "body:other"))
	return adjust(buttons, 3, 2)
}

// ToggleListKeyboard renders a multi-select list. Selected entries carry a
// check mark; callback data is "<prefix>:<index>" plus "other" and "done".
func ToggleListKeyboard(source, selected []string, prefix string) tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for idx, item := range source {
		text := item
		if session.Has(selected, item) {
			text = "✅ " + item
		}
		buttons = append(buttons, btn(text, fmt.Sprintf("%s:%d", prefix, idx)))
	}
	buttons = append(buttons, btn("Other", prefix+":other"))
	buttons = append(buttons, btn("Done", prefix+":done"))
	return adjust(buttons, 2)
}

func ratingButtons(prefix string) tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for i := 0; i <= 10; i++ {
		buttons = append(buttons, btn(strconv.Itoa(i), fmt.Sprintf("%s:%d", prefix, i)))
	}
	return adjust(buttons, 6, 5)
}

// RatingKeyboard picks the wizard's 0-10 rating.
func RatingKeyboard() tgbotapi.InlineKeyboardMarkup { return ratingButtons("rate") }

// RatingFilterKeyboard picks the minimum rating for a search.
func RatingFilterKeyboard() tgbotapi.InlineKeyboardMarkup { return ratingButtons("frate") }

// EditRatingKeyboard picks a replacement rating during editing.
func EditRatingKeyboard() tgbotapi.InlineKeyboardMarkup { return ratingButtons("erat") }

// SearchMenuKeyboard is the search dimension picker.
func SearchMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return adjust([]tgbotapi.InlineKeyboardButton{
		btn("By name", "s_name"),
		btn("By category", "s_cat"),
		btn("By year", "s_year"),
		btn("By rating", "s_rating"),
		btn("Last 5", "s_last"),
		btn("⬅️ Back", "back:main"),
	}, 2, 2, 2)
}

// OpenKeyboard is the single "open this record" button under a result row.
func OpenKeyboard(tastingID int64) tgbotapi.InlineKeyboardMarkup {
	return adjust([]tgbotapi.InlineKeyboardButton{
		btn("Open", fmt.Sprintf("open:%d", tastingID)),
	}, 1)
}

// MoreKeyboard is the pagination button; payload carries cursor state.
func MoreKeyboard(kind, payload string) tgbotapi.InlineKeyboardMarkup {
	return adjust([]tgbotapi.InlineKeyboardButton{
		btn("Show more", fmt.Sprintf("more:%s:%s", kind, payload)),
	}, 1)
}

// CardActionsKeyboard offers edit/delete/back under a full card.
func CardActionsKeyboard(tastingID int64) tgbotapi.InlineKeyboardMarkup {
	return adjust([]tgbotapi.InlineKeyboardButton{
		btn("✏️ Edit", fmt.Sprintf("edit:%d", tastingID)),
		btn("🗑️ Delete", fmt.Sprintf("del:%d", tastingID)),
		btn("⬅️ Back", "back:main"),
	}, 2, 1)
}

// EditFieldsKeyboard lists every editable field plus cancel.
func EditFieldsKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, field := range editFieldOrder {
		buttons = append(buttons, btn(FieldLabels[field], "efld:"+field))
	}
	buttons = append(buttons, btn("Cancel", "efld:cancel"))
	return adjust(buttons, 2)
}

// EditCategoryKeyboard picks a replacement category.
func EditCategoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, c := range Categories {
		if c == "Other" {
			continue
		}
		buttons = append(buttons, btn(c, "ecat:"+c))
	}
	buttons = append(buttons, btn("Other (type it)", "ecat:__other__"))
	buttons = append(buttons, btn("⬅️ Back", "ecat:__back__"))
	return adjust(buttons, 2)
}

// ConfirmDeleteKeyboard double-checks a delete.
func ConfirmDeleteKeyboard(tastingID int64) tgbotapi.InlineKeyboardMarkup {
	return adjust([]tgbotapi.InlineKeyboardButton{
		btn("Yes, delete", fmt.Sprintf("delok:%d", tastingID)),
		btn("Cancel", fmt.Sprintf("delno:%d", tastingID)),
	}, 2)
}

// PhotosKeyboard finishes or skips the photo step.
func PhotosKeyboard() tgbotapi.InlineKeyboardMarkup {
	return adjust([]tgbotapi.InlineKeyboardButton{
		btn("Done", "photos:done"),
		btn("Skip", "skip:photos"),
	}, 2)
}
