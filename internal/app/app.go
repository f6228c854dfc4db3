package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	tele "gopkg.in/telebot.v4"

	"github.com/cleanchistwood/cleanbot/core/bootstrap"
	"github.com/cleanchistwood/cleanbot/core/cmd"
	"github.com/cleanchistwood/cleanbot/core/logger"
	coretelegram "github.com/cleanchistwood/cleanbot/core/telegram"
	"github.com/cleanchistwood/cleanbot/core/telegram/router"
	"github.com/cleanchistwood/cleanbot/internal/broadcast"
	"github.com/cleanchistwood/cleanbot/internal/calendar"
	"github.com/cleanchistwood/cleanbot/internal/catalog"
	"github.com/cleanchistwood/cleanbot/internal/directory"
	"github.com/cleanchistwood/cleanbot/internal/questionnaire"
	"github.com/cleanchistwood/cleanbot/internal/reminders"
	"github.com/cleanchistwood/cleanbot/internal/storage"
	"github.com/cleanchistwood/cleanbot/internal/wizard"
)

// App wires the hiring bot together: questionnaire engine, broadcast
// scheduling, group directory and the reminder sweep.
type App struct {
	cfg *Config
	db  *sqlx.DB
	loc *time.Location

	users    *storage.Users
	apps     *storage.Applications
	catalog  *catalog.Catalog
	engine   *questionnaire.Engine
	wizard   *wizard.Wizard
	jobs     *broadcast.Registry
	dir      *directory.Directory
	observer *chatObserver
	sweeper  *reminders.Sweeper

	cron *cron.Cron
	bot  atomic.Pointer[tele.Bot]
}

// Bootstrap builds the application from loaded configuration.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	infra, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Core,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Bot.Timezone)
	if err != nil {
		_ = infra.DB.Close()
		return nil, fmt.Errorf("app: bad timezone %q: %w", cfg.Bot.Timezone, err)
	}

	cat, err := catalog.Open(context.Background(), cfg.Bot.QuestionsPath)
	if err != nil {
		_ = infra.DB.Close()
		return nil, fmt.Errorf("app: question catalog: %w", err)
	}

	a := &App{
		cfg:     cfg,
		db:      infra.DB,
		loc:     loc,
		catalog: cat,
	}
	a.users = storage.NewUsers(infra.DB)
	a.apps = storage.NewApplications(infra.DB)

	a.observer = newChatObserver(a.currentBot, cfg.Bot.GroupSendPerSecond)
	a.dir = directory.New(a.observer)
	a.jobs = broadcast.NewRegistry(broadcast.Options{Sender: a.dir})

	outbox := botOutbox{bot: a.currentBot}
	a.engine = questionnaire.New(questionnaire.Options{
		Questions: cat,
		Calendar:  calendar.NewSelector(),
		Outbox:    outbox,
		Sink:      a.apps,
		Profiles:  a.users,
		AdminIDs:  cfg.Core.Telegram.Admins,
		HRHandle:  cfg.Bot.HRHandle,
	})
	a.wizard = wizard.New(wizard.Options{
		Groups:   a.dir,
		Launcher: a.jobs,
		Outbox:   outbox,
		Location: loc,
	})
	a.sweeper = reminders.New(a.apps, outbox, cfg.Core.Telegram.Admins, nil)

	return a, nil
}

func (a *App) currentBot() *tele.Bot { return a.bot.Load() }

// botOutbox sends standalone messages through the running bot. It
// backs the questionnaire, wizard and reminder outboxes.
type botOutbox struct {
	bot func() *tele.Bot
}

func (o botOutbox) Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	b := o.bot()
	if b == nil {
		return fmt.Errorf("outbox: bot is not running")
	}
	if markup != nil {
		_, err := b.Send(tele.ChatID(chatID), text, markup)
		return err
	}
	_, err := b.Send(tele.ChatID(chatID), text)
	return err
}

// conversationFlows routes free-form text to whichever dialog the user
// has open. A questionnaire wins over an admin's scheduling wizard.
type conversationFlows struct {
	app *App
}

func (f conversationFlows) InProgress(userID int64) bool {
	return f.app.engine.InProgress(userID) || f.app.wizard.InProgress(userID)
}

func (f conversationFlows) HandleMessage(c tele.Context) error {
	ctx := handlerContext(c)
	userID := c.Sender().ID

	if f.app.engine.InProgress(userID) {
		_, err := f.app.engine.HandleText(ctx, userID, c.Text())
		return err
	}
	_, err := f.app.wizard.HandleText(ctx, userID, c.Text())
	return err
}

// TelegramRunOptions assembles the bot runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	if err := a.registerCallbacks(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg.SetTextFallback(a.onUnroutedText)
	reg.SetCallbackNotFound(func(c tele.Context) error { return nil })

	cfg := &a.cfg.Core
	middlewares := append(
		coretelegram.DefaultMiddlewares(cfg, nil),
		a.trackingMiddleware(),
	)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs: cfg.Telegram.Admins,
	})
	routes = append(routes, router.TextRoutes(conversationFlows{app: a}, reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, coretelegram.Route{
		Endpoint: tele.OnMyChatMember,
		Handler:  a.onMyChatMember,
	})

	return coretelegram.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: middlewares,
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

// trackingMiddleware learns group chats from every update and keeps
// private-chat profiles fresh for questionnaire attribution.
func (a *App) trackingMiddleware() coretelegram.Middleware {
	return coretelegram.Middleware{
		Name: "tracking",
		Use: func(next tele.HandlerFunc) tele.HandlerFunc {
			return func(c tele.Context) error {
				chat := c.Chat()
				if chat != nil {
					a.observer.Observe(chat)
				}
				if s := c.Sender(); s != nil && chat != nil && chat.Type == tele.ChatPrivate {
					ctx := handlerContext(c)
					if err := a.users.UpdateProfile(ctx, s.ID, chat.ID, s.Username, s.FirstName, s.LastName); err != nil {
						logger.Warn(ctx, "app", "profile.update_failed",
							slog.Int64("user_id", s.ID),
							slog.Any("error", err),
						)
					}
				}
				return next(c)
			}
		},
	}
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	a.bot.Store(rt.Bot)

	cr := cron.New(cron.WithLocation(a.loc))
	if _, err := cr.AddFunc(a.cfg.Bot.DirectoryRefreshSpec, a.refreshDirectory); err != nil {
		return fmt.Errorf("app: directory refresh spec: %w", err)
	}
	if _, err := cr.AddFunc(a.cfg.Bot.ReminderSpec, a.runReminderSweep); err != nil {
		return fmt.Errorf("app: reminder spec: %w", err)
	}
	cr.Start()
	a.cron = cr

	logger.Info(ctx, "app", "started",
		slog.String("reminder_spec", a.cfg.Bot.ReminderSpec),
		slog.String("refresh_spec", a.cfg.Bot.DirectoryRefreshSpec),
	)
	return nil
}

func (a *App) refreshDirectory() {
	ctx := context.Background()
	if _, err := a.dir.Refresh(ctx); err != nil {
		logger.Warn(ctx, "app", "directory.refresh_failed", slog.Any("error", err))
	}
}

func (a *App) runReminderSweep() {
	_ = a.sweeper.Run(context.Background())
}

func (a *App) onStop(ctx context.Context, rt coretelegram.Runtime) error {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	a.jobs.Close()
	if err := a.catalog.Close(); err != nil {
		logger.Warn(ctx, "app", "catalog.close_failed", slog.Any("error", err))
	}
	if err := a.db.Close(); err != nil {
		logger.Warn(ctx, "app", "db.close_failed", slog.Any("error", err))
	}
	logger.Info(ctx, "app", "stopped")
	return nil
}
