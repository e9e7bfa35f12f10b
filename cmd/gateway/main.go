package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsapp_gateway/internal/app"
	"whatsapp_gateway/internal/domain/store"
	"whatsapp_gateway/internal/domain/thread"
	"whatsapp_gateway/internal/domain/whatsapp"
	"whatsapp_gateway/internal/infra/config"
	idb "whatsapp_gateway/internal/infra/database"
	"whatsapp_gateway/internal/infra/httpapi"
	"whatsapp_gateway/internal/infra/logger"
	"whatsapp_gateway/internal/infra/memory"
	"whatsapp_gateway/internal/infra/metrics"
	"whatsapp_gateway/internal/infra/phone"
	"whatsapp_gateway/internal/infra/scheduler"
	"whatsapp_gateway/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("WhatsApp Gateway starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"store":       cfg.StoreDriver,
	}).Info("Configuration loaded.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var tx store.Transactor
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		tx = memory.New()
		mainLogger.Warn("Using in-memory store, data is lost on restart.")
	default:
		db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to database")
		}
		defer db.Close()
		mainLogger.Info("Database connection established successfully.")

		if err := idb.Migrate(ctx, db); err != nil {
			mainLogger.WithError(err).Fatal("Could not apply database schema")
		}
		tx = idb.NewTransactor(db)
	}

	// Model registry
	models := thread.DefaultRegistry()
	for _, name := range cfg.ThreadModels {
		if err := models.Register(thread.ModelSpec{Name: name, Thread: true}); err != nil {
			mainLogger.WithError(err).Fatal("Could not register thread model")
		}
	}
	for _, name := range cfg.TransientModels {
		if err := models.Register(thread.ModelSpec{Name: name, Thread: true, Transient: true}); err != nil {
			mainLogger.WithError(err).Fatal("Could not register transient model")
		}
	}

	mode, err := phone.ParseMode(cfg.PhoneValidation)
	if err != nil {
		mainLogger.WithError(err).Fatal("Invalid phone validation mode")
	}
	sanitizer := phone.NewSanitizer(mode, cfg.DefaultPhoneRegion)

	// Integration packages register themselves with whatsapp.Register when
	// blank-imported; WHATSAPP_TRANSPORT picks one of them.
	transports := whatsapp.DefaultTransports()
	if err := transports.Select(cfg.WhatsAppTransport); err != nil {
		mainLogger.WithError(err).Fatal("Could not select WhatsApp transport")
	}

	m := metrics.New()
	baseLogger := logrus.NewEntry(logger.Get())

	// Services
	dispatcher := app.NewDispatcher(transports, m, baseLogger)
	resolver := app.NewRecipientResolver(models, sanitizer)
	reconciler := app.NewNotificationReconciler(sanitizer, dispatcher, m, baseLogger)
	templates := app.NewTemplateService(baseLogger)
	threads := app.NewThreadService(resolver, reconciler, templates, baseLogger)
	actions := app.NewActionService(tx, models, threads, reconciler, templates, cfg.DefaultAuthorID, baseLogger)
	dispatch := app.NewDispatchService(tx, dispatcher, cfg.QueueBatchSize, baseLogger)
	mainLogger.Info("Services initialized.")

	queueScheduler := scheduler.NewQueueScheduler(dispatch, logger.Get(), cfg.CronSpecQueue)

	// Optional Telegram admin bot
	var bot *telebot.Bot
	if cfg.TelegramToken != "" {
		botLogger := logger.Component("telegram")
		pref := telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := botLogger.WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
				}
				entry.Error("telebot error")
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}

		adminService := app.NewAdminService(tx, threads, dispatch, cfg.AdminTelegramID, cfg.DefaultAuthorID)
		telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, botLogger)
		telegram.RegisterAdminHandlers(ctx, bot, adminService, cfg.AdminTelegramID, botLogger)
		queueScheduler.SetAlerter(telegram.NewAdminAlerter(telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID, botLogger))
		mainLogger.Info("Telegram admin commands registered.")
	}

	if err := queueScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start queue scheduler")
	}

	handler := httpapi.New(httpapi.Deps{
		Tx:              tx,
		Resolver:        resolver,
		Threads:         threads,
		Actions:         actions,
		Templates:       templates,
		DefaultAuthorID: cfg.DefaultAuthorID,
		Logger:          baseLogger,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, m.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		mainLogger.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening.")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	if bot != nil {
		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
	}

	mainLogger.Info("Application setup complete.")
	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Error("HTTP server shutdown failed")
	}
	if bot != nil {
		bot.Stop()
	}
	queueScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
