package app

import (
	"context"
	"strings"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/cleanchistwood/cleanbot/core/logger"
	coretelegram "github.com/cleanchistwood/cleanbot/core/telegram"
	"github.com/cleanchistwood/cleanbot/core/telegram/commands"
	tghelpers "github.com/cleanchistwood/cleanbot/core/telegram/helpers"
	"github.com/cleanchistwood/cleanbot/internal/questionnaire"
)

func handlerContext(c tele.Context) context.Context {
	return tghelpers.BuildContext(c)
}

// send delivers replies through the dispatcher, no parse mode.
func send(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if markup == nil {
		return tghelpers.SendText(c, text)
	}
	return tghelpers.SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.showMainMenu,
		Description: "Почати роботу з ботом",
	})
	reg.RegisterCommand("/menu", commands.Command{
		Handler:     a.showMainMenu,
		Description: "Головне меню",
	})
	reg.RegisterCommand("/category", commands.Command{
		Handler:     a.cmdCategory,
		Description: "Змінити категорію",
	})
	reg.RegisterCommand("/instagram", commands.Command{
		Handler:     a.cmdInstagram,
		Description: "Наші соцмережі",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.cmdHelp,
		Description: "Довідка",
	})

	reg.RegisterCommand("/groups", commands.Command{
		Handler:     a.cmdGroups,
		Description: "Статистика груп",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/update_groups", commands.Command{
		Handler:     a.cmdUpdateGroups,
		Description: "Оновити групи",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/group_list", commands.Command{
		Handler:     a.cmdGroupList,
		Description: "Список груп",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/stop_broadcast", commands.Command{
		Handler:     a.cmdStopBroadcast,
		Description: "Зупинити розсилку",
		AdminOnly:   true,
	})
}

// showMainMenu picks the right menu for the sender: admin panel for
// administrators, the returning-user menu when a category is known,
// the welcome screen otherwise.
func (a *App) showMainMenu(c tele.Context) error {
	ctx := handlerContext(c)
	userID := c.Sender().ID

	if a.cfg.Core.IsAdmin(userID) {
		return send(c, adminPanelText, a.adminMarkup())
	}

	profile, err := a.users.Get(ctx, userID)
	if err != nil {
		logger.Warn(ctx, "app", "profile.load_failed",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
	}
	if profile != nil && profile.CategoryName != "" {
		return send(c, knownCategoryText(profile.CategoryName), a.knownCategoryMarkup())
	}
	return send(c, a.welcomeText(), a.categoryMarkup())
}

func (a *App) cmdCategory(c tele.Context) error {
	if a.cfg.Core.IsAdmin(c.Sender().ID) {
		return send(c, adminPanelText, a.adminMarkup())
	}
	return send(c, categoryPickText, a.categoryMarkup())
}

func (a *App) cmdInstagram(c tele.Context) error {
	return send(c, a.instagramText(), a.instagramMarkup())
}

func (a *App) cmdHelp(c tele.Context) error {
	return send(c, helpText(a.cfg.Core.IsAdmin(c.Sender().ID)), nil)
}

func (a *App) cmdGroups(c tele.Context) error {
	return send(c, groupStatsText(a.dir.Stats(), a.loc), nil)
}

func (a *App) cmdUpdateGroups(c tele.Context) error {
	ctx := handlerContext(c)
	if _, err := a.dir.Refresh(ctx); err != nil {
		return send(c, "❌ Не удалось обновить группы", nil)
	}
	return send(c, groupsRefreshedText(a.dir.Stats(), a.loc), nil)
}

func (a *App) cmdGroupList(c tele.Context) error {
	for _, part := range groupListText(a.dir.Groups()) {
		if err := send(c, part, nil); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) cmdStopBroadcast(c tele.Context) error {
	id := strings.TrimSpace(c.Message().Payload)
	if id == "" {
		return send(c, stopUsageText, nil)
	}
	if a.jobs.Cancel(id) {
		return send(c, "✅ Розсилка "+id+" зупинена.", nil)
	}
	return send(c, "❌ Розсилка з ID "+id+" не знайдена.", nil)
}

// onUnroutedText mirrors the fallback behaviour for stray private
// messages: just show the menu again.
func (a *App) onUnroutedText(c tele.Context) error {
	chat := c.Chat()
	if chat == nil || chat.Type != tele.ChatPrivate {
		return nil
	}
	if strings.HasPrefix(c.Text(), "/") {
		return nil
	}
	return a.showMainMenu(c)
}

// onMyChatMember keeps the observed group list in sync with the bot's
// own membership.
func (a *App) onMyChatMember(c tele.Context) error {
	upd := c.ChatMember()
	if upd == nil || upd.Chat == nil || upd.NewChatMember == nil {
		return nil
	}
	switch upd.NewChatMember.Role {
	case tele.Left, tele.Kicked:
		a.observer.Forget(upd.Chat.ID)
	default:
		a.observer.Observe(upd.Chat)
	}
	return nil
}

func applicantFrom(c tele.Context) questionnaire.Applicant {
	s := c.Sender()
	who := questionnaire.Applicant{}
	if s != nil {
		who.UserID = s.ID
		who.Username = s.Username
		who.FirstName = s.FirstName
		who.LastName = s.LastName
	}
	if chat := c.Chat(); chat != nil {
		who.ChatID = chat.ID
	}
	return who
}
