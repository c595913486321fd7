package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teataster/teataster/internal/album"
	"github.com/teataster/teataster/internal/analytics"
	"github.com/teataster/teataster/internal/api"
	"github.com/teataster/teataster/internal/config"
	"github.com/teataster/teataster/internal/handlers"
	"github.com/teataster/teataster/internal/repository/sqldb"
	"github.com/teataster/teataster/internal/search"
	"github.com/teataster/teataster/internal/service"
	"github.com/teataster/teataster/internal/session"
	"github.com/teataster/teataster/internal/telegram"
	"github.com/teataster/teataster/internal/ui"
	"github.com/teataster/teataster/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.AppEnv)
	l.Info("Starting teataster...")

	// Database
	db, err := config.NewDatabase(cfg, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	dialect := sqldb.NewDialect(db.Driver)
	userRepo := sqldb.NewUserRepository(db.DB, dialect)
	tastingRepo := sqldb.NewTastingRepository(db.DB, dialect)
	eventRepo := sqldb.NewEventRepository(db.DB, dialect)

	// Service layer
	svc := service.New(db.DB, l, userRepo, tastingRepo, eventRepo)

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}

	// Shared handler state
	sessions := session.NewManager()
	tracker := analytics.New(eventRepo, l, cfg.AnalyticsEnabled)
	throttle := search.NewThrottle()
	deps := handlers.New(svc, sessions, tracker, nil, throttle, cfg, l)
	albums := album.NewBuffer(func(userID int64, fileIDs []string) {
		// the timer goroutine takes the same per-user lock as updates
		sessions.Lock(userID)
		defer sessions.Unlock(userID)
		deps.AcceptAlbum(bot, userID, fileIDs)
	})
	deps.Albums = albums

	// One update at a time per user: dialog flows are not otherwise locked.
	bot.SetUserLocker(sessions)

	router := bot.Router()

	// Commands
	router.RegisterCommand("start", handlers.NewStartHandler(deps))
	router.RegisterCommand("help", handlers.NewHelpHandler(deps))
	router.RegisterCommand("cancel", handlers.NewCancelHandler(deps))
	router.RegisterCommand("reset", handlers.NewCancelHandler(deps))
	router.RegisterCommand("menu", handlers.NewMenuHandler(deps))
	router.RegisterCommand("hide", handlers.NewHideHandler(deps))
	router.RegisterCommand("new", handlers.NewNewHandler(deps))
	router.RegisterCommand("find", handlers.NewFindHandler(deps))
	router.RegisterCommand("last", handlers.NewLastHandler(deps))
	router.RegisterCommand("tz", handlers.NewTzHandler(deps))
	router.RegisterCommand("edit", handlers.NewEditHandler(deps))
	router.RegisterCommand("delete", handlers.NewDeleteHandler(deps))

	// Diagnostics
	router.RegisterCommand("whoami", handlers.NewWhoamiHandler(deps))
	router.RegisterCommand("health", handlers.NewHealthHandler(deps))
	router.RegisterCommand("dbinfo", handlers.NewDbinfoHandler(deps, db.Driver))
	router.RegisterCommand("stats", handlers.NewStatsHandler(deps))

	// Reply-keyboard captions
	router.RegisterReplyButton(ui.BtnNewTasting, handlers.NewNewHandler(deps))
	router.RegisterReplyButton(ui.BtnFind, handlers.NewFindHandler(deps))
	router.RegisterReplyButton(ui.BtnLastFive, handlers.NewLastHandler(deps))
	router.RegisterReplyButton(ui.BtnHelp, handlers.NewHelpHandler(deps))
	router.RegisterReplyButton(ui.BtnReset, handlers.NewCancelHandler(deps))

	// Wizard callbacks
	wizard := handlers.NewWizardCallback(deps)
	for _, prefix := range []string{
		"cat", "skip", "time", "ad", "aw", "taste", "body", "aft",
		"more_inf", "finish_inf", "eff", "scn", "rate", "photos",
	} {
		router.RegisterCallback(prefix, wizard)
	}

	// Search callbacks
	searchCb := handlers.NewSearchCallback(deps)
	for _, prefix := range []string{
		"find", "s_name", "s_cat", "s_year", "s_rating", "s_last", "scat", "frate", "more",
	} {
		router.RegisterCallback(prefix, searchCb)
	}

	// Card and edit callbacks
	cardCb := handlers.NewCardCallback(deps)
	for _, prefix := range []string{"open", "pics", "back", "nav"} {
		router.RegisterCallback(prefix, cardCb)
	}
	editCb := handlers.NewEditCallback(deps)
	for _, prefix := range []string{"edit", "efld", "ecat", "erat", "del", "delok", "delno"} {
		router.RegisterCallback(prefix, editCb)
	}

	// Main menu inline buttons
	menuCb := handlers.NewMenuCallback(deps)
	router.RegisterCallback("new", menuCb)
	router.RegisterCallback("help", menuCb)

	// Free text and photos
	router.SetDialogHandler(handlers.NewDialog(deps))
	router.SetPhotoHandler(handlers.NewPhotos(deps))

	// Command menu in the Telegram client
	if err := bot.SetCommands([]tgbotapi.BotCommand{
		{Command: "new", Description: "New tasting"},
		{Command: "find", Description: "Find records"},
		{Command: "last", Description: "Last 5 records"},
		{Command: "tz", Description: "Set timezone"},
		{Command: "edit", Description: "Edit a record"},
		{Command: "delete", Description: "Delete a record"},
		{Command: "menu", Description: "Show the button menu"},
		{Command: "hide", Description: "Hide the button menu"},
		{Command: "cancel", Description: "Cancel the current action"},
		{Command: "help", Description: "Help"},
	}); err != nil {
		l.Warnf("Failed to publish command list: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Operational HTTP endpoints
	apiServer := api.NewServer(svc, l)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	// Start Telegram bot polling
	go func() {
		if err := bot.Start(ctx); err != nil {
			l.Errorf("Bot error: %v", err)
		}
	}()

	l.Info("teataster started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("teataster stopped")
}
