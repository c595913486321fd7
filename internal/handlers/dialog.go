package handlers

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/repository"
	"github.com/teataster/teataster/internal/session"
	"github.com/teataster/teataster/internal/telegram"
	"github.com/teataster/teataster/internal/ui"
)

// ---------------------------------------------------------------------------
// Dialog – free text routed by the active flow
// ---------------------------------------------------------------------------

// Dialog consumes non-command text for whichever flow is active.
type Dialog struct {
	deps *Deps
}

// NewDialog creates the dialog handler.
func NewDialog(deps *Deps) *Dialog {
	return &Dialog{deps: deps}
}

// Handle dispatches message text into the active flow. It reports false when
// no flow wants the text, letting reply-keyboard captions match afterwards.
func (h *Dialog) Handle(bot *telegram.Bot, message *tgbotapi.Message) (bool, error) {
	sess := h.deps.Sessions.Get(message.From.ID)
	if !sess.Active() {
		return false, nil
	}

	switch {
	case sess.Create != nil:
		return true, h.deps.handleWizardText(bot.MessageResponder(message), message.From.ID, message.Text, sess.Create)
	case sess.Search != nil:
		return true, h.handleSearchText(bot, message, sess.Search)
	case sess.Edit != nil:
		return h.deps.handleEditText(bot, message, sess.Edit)
	}
	return false, nil
}

func (d *Deps) handleWizardText(r telegram.Responder, userID int64, raw string, flow *session.CreateFlow) error {
	text := strings.TrimSpace(raw)

	switch flow.Step {
	case session.StepName:
		flow.Draft.Name = text
		return d.askYear(r, flow)

	case session.StepYear:
		flow.Draft.Year = parseYearLenient(text)
		return d.askRegion(r, flow)

	case session.StepRegion:
		flow.Draft.Region = strPtr(text)
		return d.askCategory(r, flow)

	case session.StepCategory, session.StepCategoryText:
		if flow.Step == session.StepCategory {
			// category buttons are up; stray text is ignored
			return nil
		}
		flow.Draft.Category = strPtr(text)
		return d.askGrams(r, flow)

	case session.StepGrams:
		flow.Draft.Grams = parseGramsLenient(text)
		return d.askTemp(r, flow)

	case session.StepTemp:
		flow.Draft.TempC = parseTempLenient(text)
		return d.askTastedAt(r, flow, userID)

	case session.StepTastedAt:
		flow.Draft.TastedAt = parseTimeLenient(text)
		return d.askGear(r, flow)

	case session.StepGear:
		flow.Draft.Gear = strPtr(text)
		return d.askAromaDry(r, flow)

	case session.StepAromaDry:
		if !flow.AwaitingCustom {
			return nil
		}
		if text != "" {
			flow.Sel = append(flow.Sel, text)
		}
		flow.Draft.AromaDry = joinSelected(flow.Sel)
		flow.AwaitingCustom = false
		return d.askAromaWarmed(r, flow)

	case session.StepAromaWarmed:
		if !flow.AwaitingCustom {
			return nil
		}
		if text != "" {
			flow.Sel = append(flow.Sel, text)
		}
		flow.Draft.AromaWarmed = joinSelected(flow.Sel)
		flow.AwaitingCustom = false
		return d.askInfusionSeconds(r, flow)

	case session.StepInfSeconds:
		flow.CurrentInfusion().Seconds = parseSecondsLenient(text)
		return d.askInfColor(r, flow)

	case session.StepInfColor:
		flow.CurrentInfusion().LiquorColor = strPtr(text)
		return d.askInfTaste(r, flow)

	case session.StepInfTaste:
		// free text replaces whatever was toggled
		if text != "" {
			flow.CurrentInfusion().Taste = []string{text}
		}
		flow.AwaitingCustom = false
		return d.askInfSpecial(r, flow)

	case session.StepInfSpecial:
		flow.CurrentInfusion().SpecialNotes = strPtr(text)
		return d.askInfBody(r, flow)

	case session.StepInfBody:
		if !flow.AwaitingCustom {
			return nil
		}
		flow.CurrentInfusion().Body = strPtr(text)
		flow.AwaitingCustom = false
		return d.askInfAftertaste(r, flow)

	case session.StepInfAftertaste:
		if !flow.AwaitingCustom {
			return nil
		}
		if text != "" {
			flow.CurrentInfusion().Aftertaste = []string{text}
		}
		flow.AwaitingCustom = false
		return d.finishInfusion(r, flow)

	case session.StepMoreInfusions:
		return nil

	case session.StepEffects:
		if !flow.AwaitingCustom {
			return nil
		}
		if text != "" {
			flow.Draft.Effects = append(flow.Draft.Effects, text)
		}
		flow.AwaitingCustom = false
		kb := ui.ToggleListKeyboard(ui.Effects, flow.Draft.Effects, "eff")
		return r.Respond("Added. You can pick more and press \"Done\".", &kb)

	case session.StepScenarios:
		if !flow.AwaitingCustom {
			return nil
		}
		if text != "" {
			flow.Draft.Scenarios = append(flow.Draft.Scenarios, text)
		}
		flow.AwaitingCustom = false
		kb := ui.ToggleListKeyboard(ui.Scenarios, flow.Draft.Scenarios, "scn")
		return r.Respond("Added. You can pick more and press \"Done\".", &kb)

	case session.StepRating:
		flow.Draft.Rating = parseRatingLenient(text)
		return d.askSummary(r, flow)

	case session.StepSummary:
		flow.Draft.Summary = strPtr(text)
		return d.askPhotos(r, flow, userID)

	case session.StepPhotos:
		return r.Respond("Send a photo (or press \"Done\" / \"Skip\").", nil)
	}

	return nil
}

func (h *Dialog) handleSearchText(bot *telegram.Bot, message *tgbotapi.Message, flow *session.SearchFlow) error {
	d := h.deps
	userID := message.From.ID
	text := strings.TrimSpace(message.Text)
	d.Sessions.Clear(userID)

	switch flow.Kind {
	case repository.SearchName:
		return d.runSearch(bot, message.Chat.ID, userID, repository.SearchName, text,
			"Found by name \""+text+"\":")
	case repository.SearchCat:
		return d.runSearch(bot, message.Chat.ID, userID, repository.SearchCat, text,
			"Found in category \""+text+"\":")
	case repository.SearchYear:
		if !allDigits(text) {
			kb := ui.SearchMenuKeyboard()
			return bot.SendWithMarkup(message.Chat.ID, "That needs a number, e.g. 2020.", kb)
		}
		return d.runSearch(bot, message.Chat.ID, userID, repository.SearchYear, text,
			"Found for "+text+":")
	}
	return nil
}
