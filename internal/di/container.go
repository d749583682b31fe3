package di

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	adminService "github.com/reshetovitsme/channel-relay/internal/modules/admin/service"
	channelRepo "github.com/reshetovitsme/channel-relay/internal/modules/channel/repository"
	channelService "github.com/reshetovitsme/channel-relay/internal/modules/channel/service"
	dispatchService "github.com/reshetovitsme/channel-relay/internal/modules/dispatch/service"
	forwardService "github.com/reshetovitsme/channel-relay/internal/modules/forward/service"
	messageService "github.com/reshetovitsme/channel-relay/internal/modules/message/service"
	ruleRepo "github.com/reshetovitsme/channel-relay/internal/modules/rule/repository"
	ruleService "github.com/reshetovitsme/channel-relay/internal/modules/rule/service"
	scheduleRepo "github.com/reshetovitsme/channel-relay/internal/modules/schedule/repository"
	scheduleService "github.com/reshetovitsme/channel-relay/internal/modules/schedule/service"
	"github.com/reshetovitsme/channel-relay/internal/shared/config"
	"github.com/reshetovitsme/channel-relay/internal/shared/database"
	httpServer "github.com/reshetovitsme/channel-relay/internal/transport/http"
	"github.com/reshetovitsme/channel-relay/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup initializes the dependency injection container. Providers are lazy:
// nothing connects until the first MustInvoke.
func Setup(ctx context.Context) (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Database
	do.Provide(injector, func(i do.Injector) (*database.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		db, err := database.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath())
		if err != nil {
			return nil, oops.With("storage_path", cfg.StoragePath, "context", "failed to open database").Wrap(err)
		}
		return db, nil
	})

	// Register Repositories
	do.Provide(injector, func(i do.Injector) (ruleRepo.Repository, error) {
		return ruleRepo.NewSQLStorage(do.MustInvoke[*database.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (scheduleRepo.Repository, error) {
		return scheduleRepo.NewSQLStorage(do.MustInvoke[*database.DB](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (channelRepo.Repository, error) {
		return channelRepo.NewSQLStorage(do.MustInvoke[*database.DB](i)), nil
	})

	// Register Telegram Client
	do.Provide(injector, func(i do.Injector) (*telegram.Client, error) {
		return telegram.NewClient(), nil
	})

	// Register Services
	do.Provide(injector, func(i do.Injector) (*ruleService.Service, error) {
		return ruleService.New(do.MustInvoke[ruleRepo.Repository](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*scheduleService.Service, error) {
		return scheduleService.New(do.MustInvoke[scheduleRepo.Repository](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*channelService.Service, error) {
		return channelService.New(do.MustInvoke[channelRepo.Repository](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*messageService.Service, error) {
		return messageService.New(do.MustInvoke[*telegram.Client](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (*forwardService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		rules := do.MustInvoke[*ruleService.Service](i)
		messages := do.MustInvoke[*messageService.Service](i)
		return forwardService.New(rules, messages, cfg.Location()), nil
	})

	do.Provide(injector, func(i do.Injector) (*dispatchService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		posts := do.MustInvoke[*scheduleService.Service](i)
		messages := do.MustInvoke[*messageService.Service](i)
		return dispatchService.New(posts, messages, cfg.Location(), cfg.DispatchSpec), nil
	})

	do.Provide(injector, func(i do.Injector) (*adminService.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return adminService.New(
			cfg.AdminID,
			cfg.SessionTTL,
			cfg.Location(),
			do.MustInvoke[*ruleService.Service](i),
			do.MustInvoke[*channelService.Service](i),
			do.MustInvoke[*scheduleService.Service](i),
			do.MustInvoke[*telegram.Client](i),
		), nil
	})

	// Register Telegram Handler
	do.Provide(injector, func(i do.Injector) (*telegram.Handler, error) {
		forward := do.MustInvoke[*forwardService.Service](i)
		admin := do.MustInvoke[*adminService.Service](i)
		return telegram.New(forward, admin), nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		server := httpServer.New(cfg)
		server.SetLogger(slog.Default())
		return server, nil
	})

	// Register Bot (needs to be initialized after handlers are ready)
	do.Provide(injector, func(i do.Injector) (*bot.Bot, error) {
		cfg := do.MustInvoke[*config.Config](i)
		handler := do.MustInvoke[*telegram.Handler](i)

		opts := []bot.Option{
			bot.WithDefaultHandler(handler.HandleUpdate),
			bot.WithErrorsHandler(func(err error) {
				slog.Error("Telegram polling error", "error", err)
			}),
		}
		if cfg.TelegramAPIURL != "" {
			opts = append(opts, bot.WithServerURL(cfg.TelegramAPIURL))
		}

		b, err := bot.New(cfg.TelegramBotToken, opts...)
		if err != nil {
			return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
		}

		// Register bot commands
		handler.RegisterCommands(b)

		// Attach bot to the outbound client
		do.MustInvoke[*telegram.Client](i).SetBot(b)

		return b, nil
	})

	return injector, nil
}

// Shutdown stops the dispatcher and closes the database
func Shutdown(ctx context.Context, injector do.Injector) error {
	if dispatcher, err := do.Invoke[*dispatchService.Service](injector); err == nil && dispatcher != nil {
		if err := dispatcher.Stop(ctx); err != nil {
			slog.Warn("Dispatcher did not stop in time", "error", err)
		}
	}

	if db, err := do.Invoke[*database.DB](injector); err == nil && db != nil {
		if err := db.Close(); err != nil {
			return oops.With("context", "failed to close database").Wrap(err)
		}
	}

	return nil
}
