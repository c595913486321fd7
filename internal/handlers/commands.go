package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/repository"
	"github.com/teataster/teataster/internal/telegram"
	"github.com/teataster/teataster/internal/ui"
)

// ---------------------------------------------------------------------------
// StartHandler – /start
// ---------------------------------------------------------------------------

// StartHandler shows the main menu.
type StartHandler struct {
	deps *Deps
}

// NewStartHandler creates a new StartHandler.
func NewStartHandler(deps *Deps) *StartHandler {
	return &StartHandler{deps: deps}
}

// Handle processes the /start command.
func (h *StartHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	if _, err := h.deps.Svc.EnsureUser(context.Background(), message.From.ID); err != nil {
		return err
	}
	return h.deps.mainMenu(bot, message.Chat.ID)
}

// ---------------------------------------------------------------------------
// HelpHandler – /help
// ---------------------------------------------------------------------------

// HelpHandler lists the available commands.
type HelpHandler struct {
	deps *Deps
}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler(deps *Deps) *HelpHandler {
	return &HelpHandler{deps: deps}
}

// Handle processes the /help command.
func (h *HelpHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, helpText)
	bot.SendRaw(msg)
	return nil
}

// ---------------------------------------------------------------------------
// CancelHandler – /cancel and /reset
// ---------------------------------------------------------------------------

// CancelHandler aborts whatever flow is active and returns to the menu.
type CancelHandler struct {
	deps *Deps
}

// NewCancelHandler creates a new CancelHandler.
func NewCancelHandler(deps *Deps) *CancelHandler {
	return &CancelHandler{deps: deps}
}

// Handle processes the /cancel command.
func (h *CancelHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	h.deps.Albums.Drain(message.From.ID)
	h.deps.Sessions.Clear(message.From.ID)
	return bot.SendWithMarkup(message.Chat.ID,
		"Okay, cleared. Back to the menu.", ui.MainKeyboard())
}

// ---------------------------------------------------------------------------
// MenuHandler – /menu, HideHandler – /hide
// ---------------------------------------------------------------------------

// MenuHandler turns on the persistent reply keyboard.
type MenuHandler struct {
	deps *Deps
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(deps *Deps) *MenuHandler {
	return &MenuHandler{deps: deps}
}

// Handle processes the /menu command.
func (h *MenuHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	return bot.SendWithMarkup(message.Chat.ID,
		"Buttons under the input field are on.", ui.ReplyMainKeyboard())
}

// HideHandler removes the persistent reply keyboard.
type HideHandler struct {
	deps *Deps
}

// NewHideHandler creates a new HideHandler.
func NewHideHandler(deps *Deps) *HideHandler {
	return &HideHandler{deps: deps}
}

// Handle processes the /hide command.
func (h *HideHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	return bot.SendWithMarkup(message.Chat.ID, "Hiding the buttons.",
		tgbotapi.NewRemoveKeyboard(false))
}

// ---------------------------------------------------------------------------
// NewHandler – /new
// ---------------------------------------------------------------------------

// NewHandler starts the creation wizard.
type NewHandler struct {
	deps *Deps
}

// NewNewHandler creates a new NewHandler.
func NewNewHandler(deps *Deps) *NewHandler {
	return &NewHandler{deps: deps}
}

// Handle processes the /new command.
func (h *NewHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	return h.deps.startWizard(bot, bot.MessageResponder(message), message.From.ID)
}

// ---------------------------------------------------------------------------
// FindHandler – /find, LastHandler – /last
// ---------------------------------------------------------------------------

// FindHandler opens the search menu.
type FindHandler struct {
	deps *Deps
}

// NewFindHandler creates a new FindHandler.
func NewFindHandler(deps *Deps) *FindHandler {
	return &FindHandler{deps: deps}
}

// Handle processes the /find command.
func (h *FindHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	h.deps.Sessions.Clear(message.From.ID)
	return bot.SendWithMarkup(message.Chat.ID, "How shall we search?", ui.SearchMenuKeyboard())
}

// LastHandler shows the latest page of tastings.
type LastHandler struct {
	deps *Deps
}

// NewLastHandler creates a new LastHandler.
func NewLastHandler(deps *Deps) *LastHandler {
	return &LastHandler{deps: deps}
}

// Handle processes the /last command.
func (h *LastHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	h.deps.Sessions.Clear(message.From.ID)
	return h.deps.runSearch(bot, message.Chat.ID, message.From.ID,
		repository.SearchLast, "", "Your latest tastings:")
}

// ---------------------------------------------------------------------------
// TzHandler – /tz
// ---------------------------------------------------------------------------

// TzHandler shows or updates the user's UTC offset.
type TzHandler struct {
	deps *Deps
}

// NewTzHandler creates a new TzHandler.
func NewTzHandler(deps *Deps) *TzHandler {
	return &TzHandler{deps: deps}
}

// Handle processes the /tz command.
func (h *TzHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()
	userID := message.From.ID

	if len(args) == 0 {
		user, err := h.deps.Svc.EnsureUser(ctx, userID)
		if err != nil {
			return err
		}
		return bot.SendMessage(message.Chat.ID, fmt.Sprintf(
			"Your local offset: %s\n\nTo change it:\n/tz +3\n/tz -5.5", user.TzLabel()))
	}

	raw := strings.TrimSpace(args[0])
	raw = strings.NewReplacer("UTC", "", "utc", "").Replace(raw)
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return bot.SendMessage(message.Chat.ID,
			"Didn't get that format. Example: /tz +3 or /tz -5.5")
	}

	offsetMin := int(hours*60 + 0.5*sign(hours))
	if err := h.deps.Svc.SetTimezone(ctx, userID, offsetMin); err != nil {
		return err
	}

	label := fmt.Sprintf("UTC%+g", hours)
	return bot.SendMessage(message.Chat.ID,
		fmt.Sprintf("Got it, %s. I'll use your local time from now on.", label))
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// ---------------------------------------------------------------------------
// EditHandler – /edit <id or #N>
// ---------------------------------------------------------------------------

// EditHandler starts editing one record.
type EditHandler struct {
	deps *Deps
}

// NewEditHandler creates a new EditHandler.
func NewEditHandler(deps *Deps) *EditHandler {
	return &EditHandler{deps: deps}
}

// Handle processes the /edit command.
func (h *EditHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return bot.SendMessage(message.Chat.ID, "Usage: /edit <id or #N>")
	}
	t, err := h.deps.Svc.ResolveTasting(context.Background(), message.From.ID, args[0])
	if err != nil {
		return err
	}
	if t == nil {
		return bot.SendMessage(message.Chat.ID, "Record not found.")
	}
	return h.deps.startEdit(bot, message.Chat.ID, message.From.ID, t)
}

// ---------------------------------------------------------------------------
// DeleteHandler – /delete <id or #N>
// ---------------------------------------------------------------------------

// DeleteHandler asks for delete confirmation.
type DeleteHandler struct {
	deps *Deps
}

// NewDeleteHandler creates a new DeleteHandler.
func NewDeleteHandler(deps *Deps) *DeleteHandler {
	return &DeleteHandler{deps: deps}
}

// Handle processes the /delete command.
func (h *DeleteHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return bot.SendMessage(message.Chat.ID, "Usage: /delete <id or #N>")
	}
	t, err := h.deps.Svc.ResolveTasting(context.Background(), message.From.ID, args[0])
	if err != nil {
		return err
	}
	if t == nil {
		return bot.SendMessage(message.Chat.ID, "Record not found.")
	}
	return bot.SendWithMarkup(message.Chat.ID,
		fmt.Sprintf("Delete #%d?", t.SeqNo), ui.ConfirmDeleteKeyboard(t.ID))
}

// ---------------------------------------------------------------------------
// MenuCallback – "new" and "help" buttons of the inline main menu
// ---------------------------------------------------------------------------

// MenuCallback handles the main menu's inline buttons that are not search.
type MenuCallback struct {
	deps *Deps
}

// NewMenuCallback creates the menu callback handler.
func NewMenuCallback(deps *Deps) *MenuCallback {
	return &MenuCallback{deps: deps}
}

// Handle processes "new" and "help" callbacks.
func (h *MenuCallback) Handle(bot *telegram.Bot, query *tgbotapi.CallbackQuery, data string) error {
	defer bot.AnswerCallback(query.ID, "")
	r := bot.CallbackResponder(query)

	switch data {
	case "new":
		return h.deps.startWizard(bot, r, query.From.ID)
	case "help":
		kb := ui.SearchMenuKeyboard()
		return r.Respond(helpText, &kb)
	}
	return nil
}
