package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/telegram"
)

// ---------------------------------------------------------------------------
// Diagnostics – /whoami /health /dbinfo /stats
// ---------------------------------------------------------------------------

// WhoamiHandler tells the user their id and whether they are an admin.
type WhoamiHandler struct {
	deps *Deps
}

// NewWhoamiHandler creates a new WhoamiHandler.
func NewWhoamiHandler(deps *Deps) *WhoamiHandler {
	return &WhoamiHandler{deps: deps}
}

// Handle processes the /whoami command.
func (h *WhoamiHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	uid := message.From.ID
	return bot.SendMessage(message.Chat.ID, fmt.Sprintf(
		"you_id=%d\nis_admin=%t", uid, h.deps.Config.IsAdmin(uid)))
}

// HealthHandler reports database connectivity. Admin only.
type HealthHandler struct {
	deps *Deps
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(deps *Deps) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Handle processes the /health command.
func (h *HealthHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	if !h.deps.Config.IsAdmin(message.From.ID) {
		return nil
	}
	if err := h.deps.Svc.PingDB(context.Background()); err != nil {
		return bot.SendMessage(message.Chat.ID, "db=unreachable")
	}
	return bot.SendMessage(message.Chat.ID, "db=ok")
}

// DbinfoHandler shows which backend is in use. Admin only.
type DbinfoHandler struct {
	deps   *Deps
	driver string
}

// NewDbinfoHandler creates a new DbinfoHandler.
func NewDbinfoHandler(deps *Deps, driver string) *DbinfoHandler {
	return &DbinfoHandler{deps: deps, driver: driver}
}

// Handle processes the /dbinfo command.
func (h *DbinfoHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	if !h.deps.Config.IsAdmin(message.From.ID) {
		return nil
	}
	return bot.SendMessage(message.Chat.ID, "driver="+h.driver)
}

// StatsHandler shows today's usage counters. Admin only.
type StatsHandler struct {
	deps *Deps
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(deps *Deps) *StatsHandler {
	return &StatsHandler{deps: deps}
}

// Handle processes the /stats command.
func (h *StatsHandler) Handle(bot *telegram.Bot, message *tgbotapi.Message, args []string) error {
	if !h.deps.Config.IsAdmin(message.From.ID) {
		return nil
	}
	stats, err := h.deps.Svc.StatsToday(context.Background())
	if err != nil {
		return bot.SendMessage(message.Chat.ID, "Couldn't gather the stats.")
	}
	return bot.SendMessage(message.Chat.ID, fmt.Sprintf(
		"Today:\n• active users: %d\n• tastings started: %d\n• tastings saved: %d\n• events dropped: %d",
		stats.DAU, stats.Started, stats.Saved, h.deps.Analytics.Dropped()))
}
