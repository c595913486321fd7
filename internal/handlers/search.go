package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/metrics"
	"github.com/teataster/teataster/internal/models"
	"github.com/teataster/teataster/internal/repository"
	"github.com/teataster/teataster/internal/search"
	"github.com/teataster/teataster/internal/telegram"
	"github.com/teataster/teataster/internal/ui"
)

// ---------------------------------------------------------------------------
// Search – menu, filters, pagination
// ---------------------------------------------------------------------------

// runSearch executes the first page of a search and renders the results.
func (d *Deps) runSearch(bot *telegram.Bot, chatID, userID int64, kind repository.SearchKind, value, header string) error {
	rows, hasMore, err := d.Svc.SearchPage(context.Background(), userID,
		repository.SearchFilter{Kind: kind, Value: value}, nil)
	if err != nil {
		return err
	}
	d.Analytics.Log(userID, chatID, models.EventSearch, map[string]any{"kind": string(kind)})

	if len(rows) == 0 {
		return bot.SendWithMarkup(chatID, "Nothing found.", ui.SearchMenuKeyboard())
	}

	if header != "" {
		if err := bot.SendMessage(chatID, header); err != nil {
			return err
		}
	}
	d.sendShortRows(bot, chatID, rows)

	if hasMore {
		payload := search.Encode(search.Payload{UserID: userID, MinID: rows[len(rows)-1].ID, Extra: value})
		return bot.SendWithMarkup(chatID, "Show more:", ui.MoreKeyboard(string(kind), payload))
	}
	return nil
}

// SearchCallback handles the search menu, its filters and "show more".
type SearchCallback struct {
	deps *Deps
}

// NewSearchCallback creates the search callback handler.
func NewSearchCallback(deps *Deps) *SearchCallback {
	return &SearchCallback{deps: deps}
}

// Handle processes search callbacks: find, s_*, scat:, frate:, more:.
func (h *SearchCallback) Handle(bot *telegram.Bot, query *tgbotapi.CallbackQuery, data string) error {
	d := h.deps
	chatID := query.Message.Chat.ID
	userID := query.From.ID
	r := bot.CallbackResponder(query)

	prefix, tail := splitData(data)
	switch prefix {
	case "find":
		defer bot.AnswerCallback(query.ID, "")
		kb := ui.SearchMenuKeyboard()
		return r.Respond("How shall we search?", &kb)

	case "s_name":
		defer bot.AnswerCallback(query.ID, "")
		d.Sessions.StartSearch(userID, repository.SearchName)
		return r.Respond("Type part of the name:", nil)

	case "s_cat":
		defer bot.AnswerCallback(query.ID, "")
		d.Sessions.Clear(userID)
		kb := ui.CategorySearchKeyboard()
		return r.Respond("Pick a category or type your own:", &kb)

	case "s_year":
		defer bot.AnswerCallback(query.ID, "")
		d.Sessions.StartSearch(userID, repository.SearchYear)
		return r.Respond("Type a year (4 digits):", nil)

	case "s_rating":
		defer bot.AnswerCallback(query.ID, "")
		kb := ui.RatingFilterKeyboard()
		return r.Respond("Minimum rating?", &kb)

	case "s_last":
		defer bot.AnswerCallback(query.ID, "")
		return d.runSearch(bot, chatID, userID, repository.SearchLast, "", "Your latest tastings:")

	case "scat":
		defer bot.AnswerCallback(query.ID, "")
		if tail == "__other__" {
			d.Sessions.StartSearch(userID, repository.SearchCat)
			return r.Respond("Type the category:", nil)
		}
		return d.runSearch(bot, chatID, userID, repository.SearchCat, tail,
			"Found in category \""+tail+"\":")

	case "frate":
		defer bot.AnswerCallback(query.ID, "")
		if _, err := strconv.Atoi(tail); err != nil {
			return nil
		}
		return d.runSearch(bot, chatID, userID, repository.SearchRating, tail,
			fmt.Sprintf("Found with rating ≥ %s:", tail))

	case "more":
		return h.handleMore(bot, query, tail)
	}
	return nil
}

// emptyKeyboard is what Telegram accepts for "remove the inline keyboard":
// an empty row set, not a null one.
func emptyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}

// handleMore continues a paginated search. tail is "<kind>:<payload>".
func (h *SearchCallback) handleMore(bot *telegram.Bot, query *tgbotapi.CallbackQuery, tail string) error {
	d := h.deps
	chatID := query.Message.Chat.ID
	userID := query.From.ID

	i := strings.IndexByte(tail, ':')
	if i < 0 {
		bot.AnswerCallback(query.ID, "")
		return nil
	}
	kind, raw := repository.SearchKind(tail[:i]), tail[i+1:]

	payload, err := search.Decode(raw, userID)
	if errors.Is(err, search.ErrForeignOwner) {
		// someone else's button: strip it and suggest a fresh search
		bot.EditReplyMarkup(chatID, query.Message.MessageID, emptyKeyboard())
		bot.AnswerCallback(query.ID, "")
		return bot.SendWithMarkup(chatID,
			"That search context has expired. Start the search again.", ui.SearchMenuKeyboard())
	}
	if err != nil {
		// undecodable data: nothing to resume, just clear the spinner
		bot.AnswerCallback(query.ID, "")
		return nil
	}

	if !d.Throttle.Allow(userID) {
		metrics.ThrottledTapsTotal.Inc()
		bot.AnswerCallback(query.ID, "Too fast. Give it a second.")
		return nil
	}
	bot.AnswerCallback(query.ID, "")

	rows, hasMore, err := d.Svc.SearchPage(context.Background(), userID,
		repository.SearchFilter{Kind: kind, Value: payload.Extra}, &payload.MinID)
	if err != nil {
		return err
	}

	// retire the tapped button either way
	bot.EditReplyMarkup(chatID, query.Message.MessageID, emptyKeyboard())

	if len(rows) == 0 {
		return bot.SendWithMarkup(chatID, "No more results.", ui.SearchMenuKeyboard())
	}

	d.sendShortRows(bot, chatID, rows)

	if hasMore {
		next := search.Encode(search.Payload{UserID: userID, MinID: rows[len(rows)-1].ID, Extra: payload.Extra})
		return bot.SendWithMarkup(chatID, "Show more:", ui.MoreKeyboard(string(kind), next))
	}
	return nil
}
