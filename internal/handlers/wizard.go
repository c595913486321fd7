package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/metrics"
	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/session"
	"github.com/teataster/teataster/internal/telegram"
	"github.com/teataster/teataster/internal/ui"
)

// ---------------------------------------------------------------------------
// Creation wizard
// ---------------------------------------------------------------------------

// startWizard begins a fresh creation flow and asks for the name.
func (d *Deps) startWizard(bot *telegram.Bot, r telegram.Responder, userID int64) error {
	ctx := context.Background()
	if _, err := d.Svc.EnsureUser(ctx, userID); err != nil {
		return err
	}
	d.Albums.Drain(userID)
	d.Sessions.StartCreate(userID)
	d.Analytics.Log(userID, r.ChatID(), models.EventTastingStarted, nil)
	return r.Respond("🍵 Tea name?", nil)
}

// Step prompts. Each sets the flow state and asks the next question, so the
// message path and the callback path share one transition table.

func (d *Deps) askYear(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepYear
	kb := ui.SkipKeyboard("year")
	return r.Respond("📅 Harvest year? You can skip.", &kb)
}

func (d *Deps) askRegion(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepRegion
	kb := ui.SkipKeyboard("region")
	return r.Respond("🗺️ Region? You can skip.", &kb)
}

func (d *Deps) askCategory(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepCategory
	kb := ui.CategoryKeyboard()
	return r.Respond("🏷️ Category?", &kb)
}

func (d *Deps) askGrams(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepGrams
	kb := ui.SkipKeyboard("grams")
	return r.Respond("⚖️ Grams? You can skip.", &kb)
}

func (d *Deps) askTemp(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepTemp
	kb := ui.SkipKeyboard("temp")
	return r.Respond("🌡️ Temperature, °C? You can skip.", &kb)
}

func (d *Deps) askTastedAt(r telegram.Responder, flow *session.CreateFlow, userID int64) error {
	flow.Step = session.StepTastedAt
	nowHM, err := d.Svc.UserNowHM(context.Background(), userID)
	if err != nil {
		return err
	}
	kb := ui.TimeKeyboard()
	return r.Respond(fmt.Sprintf(
		"⏰ Tasting time? It's %s now. Send HH:MM, press \"Current time\", or skip.", nowHM), &kb)
}

func (d *Deps) askGear(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepGear
	kb := ui.SkipKeyboard("gear")
	return r.Respond("🍶 Teaware? You can skip.", &kb)
}

func (d *Deps) askAromaDry(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepAromaDry
	flow.Sel = nil
	flow.AwaitingCustom = false
	kb := ui.ToggleListKeyboard(ui.Descriptors, nil, "ad")
	return r.Respond("🌬️ Dry leaf aroma: pick descriptors and press \"Done\", or \"Other\".", &kb)
}

func (d *Deps) askAromaWarmed(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepAromaWarmed
	flow.Sel = nil
	flow.AwaitingCustom = false
	kb := ui.ToggleListKeyboard(ui.Descriptors, nil, "aw")
	return r.Respond("🌬️ Warmed/rinsed leaf aroma: pick and press \"Done\".", &kb)
}

func (d *Deps) askInfusionSeconds(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepInfSeconds
	flow.Draft.Current = &session.InfusionDraft{}
	n := len(flow.Draft.Infusions) + 1
	return r.Respond(fmt.Sprintf("🫖 Infusion %d. Steep time, sec?", n), nil)
}

func (d *Deps) askInfColor(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepInfColor
	kb := ui.SkipKeyboard("color")
	return r.Respond("Liquor color for this infusion? You can skip.", &kb)
}

func (d *Deps) askInfTaste(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepInfTaste
	flow.AwaitingCustom = false
	kb := ui.ToggleListKeyboard(ui.Descriptors, nil, "taste")
	return r.Respond("Liquor taste: pick descriptors and press \"Done\", or \"Other\".", &kb)
}

func (d *Deps) askInfSpecial(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepInfSpecial
	kb := ui.SkipKeyboard("special")
	return r.Respond("✨ Special notes for this infusion? (you can skip)", &kb)
}

func (d *Deps) askInfBody(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepInfBody
	flow.AwaitingCustom = false
	kb := ui.BodyKeyboard()
	return r.Respond("Liquor body?", &kb)
}

func (d *Deps) askInfAftertaste(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepInfAftertaste
	flow.AwaitingCustom = false
	kb := ui.ToggleListKeyboard(ui.AftertasteSet, nil, "aft")
	return r.Respond("Aftertaste: pick and press \"Done\".", &kb)
}

// finishInfusion appends the in-progress infusion and asks whether to add
// another one.
func (d *Deps) finishInfusion(r telegram.Responder, flow *session.CreateFlow) error {
	if cur := flow.Draft.Current; cur != nil {
		flow.Draft.Infusions = append(flow.Draft.Infusions, *cur)
		flow.Draft.Current = nil
	}
	flow.Step = session.StepMoreInfusions
	kb := ui.MoreInfusionsKeyboard()
	return r.Respond("Add another infusion, or are we done?", &kb)
}

func (d *Deps) askEffects(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepEffects
	flow.AwaitingCustom = false
	kb := ui.ToggleListKeyboard(ui.Effects, flow.Draft.Effects, "eff")
	return r.Respond("🧘 Sensations: pick and press \"Done\".", &kb)
}

func (d *Deps) askScenarios(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepScenarios
	flow.AwaitingCustom = false
	kb := ui.ToggleListKeyboard(ui.Scenarios, flow.Draft.Scenarios, "scn")
	return r.Respond("🎯 Scenarios: pick and press \"Done\".", &kb)
}

func (d *Deps) askRating(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepRating
	kb := ui.RatingKeyboard()
	return r.Respond("⭐ Rating, 0-10?", &kb)
}

func (d *Deps) askSummary(r telegram.Responder, flow *session.CreateFlow) error {
	flow.Step = session.StepSummary
	kb := ui.SkipKeyboard("summary")
	return r.Respond("📝 Tasting note? (you can skip)", &kb)
}

func (d *Deps) askPhotos(r telegram.Responder, flow *session.CreateFlow, userID int64) error {
	d.Albums.Drain(userID)
	flow.Step = session.StepPhotos
	flow.Draft.PhotoIDs = nil
	kb := ui.PhotosKeyboard()
	return r.Respond(fmt.Sprintf(
		"📷 Add photos (up to %d). Added 0/%d. Send more or press \"Done\".",
		models.MaxPhotos, models.MaxPhotos), &kb)
}

// finalize commits the draft and shows the freshly created card.
func (d *Deps) finalize(bot *telegram.Bot, chatID, userID int64, flow *session.CreateFlow) error {
	// pick up album photos still sitting in the debounce buffer
	appendPhotos(&flow.Draft, d.Albums.Drain(userID))

	draft := &flow.Draft
	t := &models.Tasting{
		UserID:       userID,
		Name:         draft.Name,
		Year:         draft.Year,
		Region:       draft.Region,
		Category:     draft.Category,
		Grams:        draft.Grams,
		TempC:        draft.TempC,
		TastedAt:     draft.TastedAt,
		Gear:         draft.Gear,
		AromaDry:     draft.AromaDry,
		AromaWarmed:  draft.AromaWarmed,
		EffectsCSV:   joinSelected(draft.Effects),
		ScenariosCSV: joinSelected(draft.Scenarios),
		Rating:       draft.Rating,
		Summary:      draft.Summary,
	}

	infusions := make([]*models.Infusion, 0, len(draft.Infusions))
	for i, inf := range draft.Infusions {
		infusions = append(infusions, &models.Infusion{
			N:            i + 1,
			Seconds:      inf.Seconds,
			LiquorColor:  inf.LiquorColor,
			Taste:        joinSelected(inf.Taste),
			SpecialNotes: inf.SpecialNotes,
			Body:         inf.Body,
			Aftertaste:   joinSelected(inf.Aftertaste),
		})
	}

	photoIDs := draft.PhotoIDs
	created, err := d.Svc.CreateTasting(context.Background(), t, infusions, photoIDs)
	if err != nil {
		d.Sessions.Clear(userID)
		return err
	}

	d.Sessions.Clear(userID)
	metrics.TastingsCreatedTotal.Inc()
	d.Analytics.Log(userID, chatID, models.EventTastingSaved, map[string]any{
		"seq_no":    created.SeqNo,
		"infusions": len(infusions),
		"photos":    len(photoIDs),
	})

	return d.sendCardWithMedia(bot, chatID, created, infusions, photoIDs, len(photoIDs))
}

// ---------------------------------------------------------------------------
// Wizard callbacks: cat:, skip:, time:now, toggles, body:, rating, infusions
// ---------------------------------------------------------------------------

// WizardCallback routes every inline-keyboard press that belongs to the
// creation flow.
type WizardCallback struct {
	deps *Deps
}

// NewWizardCallback creates the wizard callback handler.
func NewWizardCallback(deps *Deps) *WizardCallback {
	return &WizardCallback{deps: deps}
}

// Handle processes one wizard callback.
func (h *WizardCallback) Handle(bot *telegram.Bot, query *tgbotapi.CallbackQuery, data string) error {
	d := h.deps
	userID := query.From.ID
	defer bot.AnswerCallback(query.ID, "")

	sess := d.Sessions.Get(userID)
	if sess == nil || sess.Create == nil {
		return nil
	}
	flow := sess.Create
	r := bot.CallbackResponder(query)

	prefix, tail := splitData(data)
	switch prefix {
	case "cat":
		if tail == "Other" {
			flow.Step = session.StepCategoryText
			return r.Respond("Type the category:", nil)
		}
		flow.Draft.Category = &tail
		return d.askGrams(r, flow)

	case "time":
		nowHM, err := d.Svc.UserNowHM(context.Background(), userID)
		if err != nil {
			return err
		}
		flow.Draft.TastedAt = &nowHM
		return d.askGear(r, flow)

	case "skip":
		return h.handleSkip(bot, r, query, flow, tail)

	case "ad":
		return h.toggle(bot, query, r, flow, tail, ui.Descriptors, "ad",
			&flow.Sel,
			func() error {
				flow.Draft.AromaDry = joinSelected(flow.Sel)
				return d.askAromaWarmed(r, flow)
			},
			"Type the dry leaf aroma:")

	case "aw":
		return h.toggle(bot, query, r, flow, tail, ui.Descriptors, "aw",
			&flow.Sel,
			func() error {
				flow.Draft.AromaWarmed = joinSelected(flow.Sel)
				return d.askInfusionSeconds(r, flow)
			},
			"Type the warmed/rinsed leaf aroma:")

	case "taste":
		if flow.Draft.Current == nil {
			return nil
		}
		return h.toggle(bot, query, r, flow, tail, ui.Descriptors, "taste",
			&flow.Draft.Current.Taste,
			func() error { return d.askInfSpecial(r, flow) },
			"Type the taste:")

	case "body":
		if flow.Draft.Current == nil {
			return nil
		}
		if tail == "other" {
			flow.AwaitingCustom = true
			return r.Respond("Type the liquor body:", nil)
		}
		flow.Draft.Current.Body = &tail
		return d.askInfAftertaste(r, flow)

	case "aft":
		if flow.Draft.Current == nil {
			return nil
		}
		return h.toggle(bot, query, r, flow, tail, ui.AftertasteSet, "aft",
			&flow.Draft.Current.Aftertaste,
			func() error { return d.finishInfusion(r, flow) },
			"Type the aftertaste:")

	case "more_inf":
		return d.askInfusionSeconds(r, flow)

	case "finish_inf":
		return d.askEffects(r, flow)

	case "eff":
		return h.toggle(bot, query, r, flow, tail, ui.Effects, "eff",
			&flow.Draft.Effects,
			func() error { return d.askScenarios(r, flow) },
			"Type the sensation:")

	case "scn":
		return h.toggle(bot, query, r, flow, tail, ui.Scenarios, "scn",
			&flow.Draft.Scenarios,
			func() error { return d.askRating(r, flow) },
			"Type the scenario:")

	case "rate":
		v, err := strconv.Atoi(tail)
		if err != nil {
			return nil
		}
		flow.Draft.Rating = v
		return d.askSummary(r, flow)

	case "photos": // photos:done
		return d.finalize(bot, query.Message.Chat.ID, userID, flow)
	}

	return nil
}

func (h *WizardCallback) handleSkip(bot *telegram.Bot, r telegram.Responder, query *tgbotapi.CallbackQuery, flow *session.CreateFlow, tag string) error {
	d := h.deps
	switch tag {
	case "year":
		return d.askRegion(r, flow)
	case "region":
		return d.askCategory(r, flow)
	case "grams":
		return d.askTemp(r, flow)
	case "temp":
		return d.askTastedAt(r, flow, query.From.ID)
	case "tasted_at":
		return d.askGear(r, flow)
	case "gear":
		return d.askAromaDry(r, flow)
	case "color":
		if flow.Draft.Current == nil {
			return nil
		}
		return d.askInfTaste(r, flow)
	case "special":
		if flow.Draft.Current == nil {
			return nil
		}
		return d.askInfBody(r, flow)
	case "summary":
		return d.askPhotos(r, flow, query.From.ID)
	case "photos":
		d.Albums.Drain(query.From.ID)
		flow.Draft.PhotoIDs = nil
		return d.finalize(bot, query.Message.Chat.ID, query.From.ID, flow)
	}
	return nil
}

// toggle implements one tap on a multi-select keyboard: flip an item, ask
// for custom text, or complete the step.
func (h *WizardCallback) toggle(bot *telegram.Bot, query *tgbotapi.CallbackQuery, r telegram.Responder,
	flow *session.CreateFlow, tail string, source []string, prefix string,
	selected *[]string, done func() error, customPrompt string,
) error {
	switch tail {
	case "done":
		flow.AwaitingCustom = false
		return done()
	case "other":
		flow.AwaitingCustom = true
		return r.Respond(customPrompt, nil)
	}

	idx, err := strconv.Atoi(tail)
	if err != nil || idx < 0 || idx >= len(source) {
		return nil
	}
	*selected = session.Toggle(*selected, source[idx])
	bot.EditReplyMarkup(query.Message.Chat.ID, query.Message.MessageID,
		ui.ToggleListKeyboard(source, *selected, prefix))
	return nil
}

func splitData(data string) (prefix, tail string) {
	if i := strings.IndexByte(data, ':'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}
