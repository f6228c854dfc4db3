package app

import (
	"fmt"
	"time"

	"log/slog"

	"github.com/hashicorp/go-multierror"
	tele "gopkg.in/telebot.v4"

	"github.com/cleanchistwood/cleanbot/core/logger"
	coretelegram "github.com/cleanchistwood/cleanbot/core/telegram"
	cbpayload "github.com/cleanchistwood/cleanbot/core/telegram/callbacks"
	"github.com/cleanchistwood/cleanbot/internal/calendar"
	"github.com/cleanchistwood/cleanbot/internal/catalog"
	"github.com/cleanchistwood/cleanbot/internal/questionnaire"
	"github.com/cleanchistwood/cleanbot/internal/wizard"
)

func (a *App) registerCallbacks(reg *coretelegram.Registry) error {
	var errs error
	add := func(key string, h tele.HandlerFunc) {
		if err := reg.RegisterCallback(key, h); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	add(cbMainMenu, a.onMainMenu)
	add(cbCategory, a.onCategory)
	add(cbChangeCategory, a.onChangeCategory)

	add(cbSchedule, a.adminOnly(a.onSchedule))
	add(cbBroadcasts, a.adminOnly(a.onBroadcasts))
	add(cbStopAll, a.adminOnly(a.onStopAll))

	add(wizard.UniqueRefreshGroups, a.adminOnly(a.onWizardRefresh))
	add(wizard.UniqueSelectAll, a.adminOnly(a.onWizardSelectAll))
	add(wizard.UniqueGroup, a.adminOnly(a.onWizardGroup))
	add(wizard.UniqueGroupsDone, a.adminOnly(a.onWizardGroupsDone))
	add(wizard.UniqueTime, a.adminOnly(a.onWizardTime))
	add(wizard.UniqueInterval, a.adminOnly(a.onWizardInterval))
	add(calendar.UniqueWizardDate, a.adminOnly(a.onWizardDate))
	add(calendar.UniqueWizardMonth, a.adminOnly(a.onWizardMonth))
	add(calendar.UniqueWizardNoop, func(c tele.Context) error { return nil })

	add(calendar.UniqueSelect, a.onCalendarSelect)
	add(calendar.UniqueNav, a.onCalendarNavigate)
	add(calendar.UniqueConfirm, a.onCalendarConfirm)
	add(calendar.UniqueCancel, a.onCalendarCancel)
	add(calendar.UniqueIgnore, func(c tele.Context) error { return nil })

	add(questionnaire.UniqueAnswer, a.onAnswer)

	return errs
}

func (a *App) adminOnly(h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !a.cfg.Core.IsAdmin(c.Sender().ID) {
			return nil
		}
		return h(c)
	}
}

func (a *App) onMainMenu(c tele.Context) error {
	_ = c.Delete()
	// A half-finished scheduling wizard would keep swallowing the
	// admin's messages; leaving the menu discards it.
	a.wizard.Abort(c.Sender().ID)
	return a.showMainMenu(c)
}

func (a *App) onCategory(c tele.Context) error {
	ctx := handlerContext(c)
	key := cbpayload.CallbackPayload(c)
	cat, ok := catalog.CategoryByKey(key)
	if !ok {
		logger.Warn(ctx, "app", "category.unknown", slog.String("category", key))
		return nil
	}

	who := applicantFrom(c)
	if err := a.users.SetCategory(ctx, who.UserID, cat.Key, cat.Title); err != nil {
		logger.Warn(ctx, "app", "category.save_failed",
			slog.Int64("user_id", who.UserID),
			slog.Any("error", err),
		)
	}
	return a.engine.Start(ctx, who, cat.Key, cat.Title)
}

func (a *App) onChangeCategory(c tele.Context) error {
	return send(c, categoryPickText, a.categoryMarkup())
}

func (a *App) onSchedule(c tele.Context) error {
	return a.wizard.Start(handlerContext(c), c.Sender().ID, c.Chat().ID)
}

func (a *App) onBroadcasts(c tele.Context) error {
	snaps := a.jobs.List()
	if len(snaps) == 0 {
		return send(c, noBroadcastsText, menuOnlyMarkup())
	}
	text := broadcastsText(snaps, time.Now(), a.loc)
	return send(c, text, broadcastsMarkup())
}

func (a *App) onStopAll(c tele.Context) error {
	stopped := a.jobs.CancelAll()
	if stopped > 0 {
		return send(c, fmt.Sprintf("✅ Зупинено %d розсилок", stopped), menuOnlyMarkup())
	}
	return send(c, "❌ Активних розсилок немає", menuOnlyMarkup())
}

// applyView renders a wizard step result onto the tapped message.
func applyView(c tele.Context, v wizard.View) error {
	if v.Notice != "" {
		_ = c.Respond(&tele.CallbackResponse{Text: v.Notice})
	}
	switch {
	case v.Text != "" && v.Markup != nil:
		return c.Edit(v.Text, v.Markup)
	case v.Text != "":
		return c.Edit(v.Text)
	case v.Markup != nil:
		return c.Edit(v.Markup)
	}
	return nil
}

func (a *App) onWizardRefresh(c tele.Context) error {
	return applyView(c, a.wizard.RefreshGroups(handlerContext(c), c.Sender().ID))
}

func (a *App) onWizardSelectAll(c tele.Context) error {
	return applyView(c, a.wizard.SelectAll(handlerContext(c), c.Sender().ID))
}

func (a *App) onWizardGroup(c tele.Context) error {
	groupID, err := cbpayload.PayloadInt64(c)
	if err != nil {
		return nil
	}
	return applyView(c, a.wizard.Toggle(handlerContext(c), c.Sender().ID, groupID))
}

func (a *App) onWizardGroupsDone(c tele.Context) error {
	return applyView(c, a.wizard.GroupsDone(handlerContext(c), c.Sender().ID))
}

func (a *App) onWizardMonth(c tele.Context) error {
	return applyView(c, a.wizard.Month(handlerContext(c), c.Sender().ID, cbpayload.CallbackPayload(c)))
}

func (a *App) onWizardDate(c tele.Context) error {
	return applyView(c, a.wizard.Date(handlerContext(c), c.Sender().ID, cbpayload.CallbackPayload(c)))
}

func (a *App) onWizardTime(c tele.Context) error {
	return applyView(c, a.wizard.Time(handlerContext(c), c.Sender().ID, cbpayload.CallbackPayload(c)))
}

func (a *App) onWizardInterval(c tele.Context) error {
	return applyView(c, a.wizard.Interval(handlerContext(c), c.Sender().ID, cbpayload.CallbackPayload(c)))
}

// applyCalendarResult renders a questionnaire date-picker reaction.
func applyCalendarResult(c tele.Context, res questionnaire.CalendarResult) error {
	if res.Notice != "" {
		_ = c.Respond(&tele.CallbackResponse{Text: res.Notice})
	}
	if res.Markup != nil {
		return c.Edit(res.Markup)
	}
	if res.Edit != "" {
		return c.Edit(res.Edit)
	}
	return nil
}

func (a *App) onCalendarSelect(c tele.Context) error {
	res, err := a.engine.CalendarSelect(handlerContext(c), c.Sender().ID, cbpayload.CallbackPayload(c))
	if err != nil {
		return err
	}
	return applyCalendarResult(c, res)
}

func (a *App) onCalendarNavigate(c tele.Context) error {
	res, err := a.engine.CalendarNavigate(handlerContext(c), c.Sender().ID, cbpayload.CallbackPayload(c))
	if err != nil {
		return err
	}
	return applyCalendarResult(c, res)
}

func (a *App) onCalendarConfirm(c tele.Context) error {
	res, err := a.engine.CalendarConfirm(handlerContext(c), c.Sender().ID)
	if err != nil {
		return err
	}
	return applyCalendarResult(c, res)
}

func (a *App) onCalendarCancel(c tele.Context) error {
	return applyCalendarResult(c, a.engine.CalendarCancel(c.Sender().ID))
}

func (a *App) onAnswer(c tele.Context) error {
	notice, err := a.engine.HandleOption(handlerContext(c), c.Sender().ID, cbpayload.CallbackPayload(c))
	if err != nil {
		return err
	}
	if notice != "" {
		_ = c.Respond(&tele.CallbackResponse{Text: notice})
	}
	return nil
}
