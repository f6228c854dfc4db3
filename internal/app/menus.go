package app

import (
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/cleanchistwood/cleanbot/internal/broadcast"
	"github.com/cleanchistwood/cleanbot/internal/catalog"
	"github.com/cleanchistwood/cleanbot/internal/directory"
	"github.com/cleanchistwood/cleanbot/internal/wizard"
)

// Callback uniques owned by the app layer. The scheduling, calendar
// and answer uniques live next to their packages.
const (
	cbCategory       = "category"
	cbChangeCategory = "change_category"
	cbMainMenu       = "main_menu"
	cbSchedule       = "schedule"
	cbBroadcasts     = "broadcasts"
	cbStopAll        = "stop_all_broadcasts"
)

const displayDateTime = "02.01.2006, 15:04"

const welcomeFormat = `
🏠 CleanЧиствуд

Привіт 👋
Ми — компанія CleanЧиствуд, займаємось професійним прибиранням квартир та офісів.

📱 Наш Instagram:
%s

🌐 Наш сайт:
%s

👉 Оберіть вашу категорію та заповніть анкету:
`

const (
	adminPanelText   = "🏠 CleanЧиствуд - Панель адміністратора"
	categoryPickText = "🏠 CleanЧиствуд\n\n👋 Оберіть вашу категорію:"
	stopUsageText    = "ℹ️ Використовуйте: /stop_broadcast <ID> для зупинки конкретної розсилки"
	noBroadcastsText = "📭 Активних розсилок немає."
)

func (a *App) welcomeText() string {
	return fmt.Sprintf(welcomeFormat, a.cfg.Bot.InstagramURL, a.cfg.Bot.SiteURL)
}

func mainMenuRow(markup *tele.ReplyMarkup) tele.Row {
	return markup.Row(markup.Data("🏠 Головне меню", cbMainMenu, "-"))
}

func (a *App) linksRow(markup *tele.ReplyMarkup) tele.Row {
	return markup.Row(
		markup.URL("📱 Наш Instagram", a.cfg.Bot.InstagramURL),
		markup.URL("🌐 Наш сайт", a.cfg.Bot.SiteURL),
	)
}

// categoryMarkup lists every hiring category plus the shared link and
// menu rows.
func (a *App) categoryMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(catalog.Categories)+2)
	for _, cat := range catalog.Categories {
		rows = append(rows, markup.Row(markup.Data(cat.Button, cbCategory, cat.Key)))
	}
	rows = append(rows, a.linksRow(markup), mainMenuRow(markup))
	markup.Inline(rows...)
	return markup
}

func (a *App) adminMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("📤 Запланувати розсилку", cbSchedule, "-")),
		markup.Row(markup.Data("📋 Мої розсилки", cbBroadcasts, "-")),
		markup.Row(markup.Data("⛔ Зупинити всі розсилки", cbStopAll, "-")),
		mainMenuRow(markup),
	)
	return markup
}

func (a *App) knownCategoryMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("🔄 Додати категорію", cbChangeCategory, "-")),
		markup.Row(markup.URL("📱 Наш Instagram", a.cfg.Bot.InstagramURL)),
		markup.Row(markup.URL("🌐 Наш сайт", a.cfg.Bot.SiteURL)),
		mainMenuRow(markup),
	)
	return markup
}

func knownCategoryText(categoryName string) string {
	return fmt.Sprintf("🏠 CleanЧиствуд\n\n👋 Вітаємо знову! Ваша категорія: %s\n\nЩо бажаєте зробити?", categoryName)
}

func (a *App) instagramText() string {
	return fmt.Sprintf("📱 Наш Instagram:\n%s\n\n🌐 Наш сайт:\n%s", a.cfg.Bot.InstagramURL, a.cfg.Bot.SiteURL)
}

func (a *App) instagramMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.URL("📱 Instagram", a.cfg.Bot.InstagramURL),
			markup.URL("🌐 Сайт", a.cfg.Bot.SiteURL),
		),
		mainMenuRow(markup),
	)
	return markup
}

func helpText(isAdmin bool) string {
	var b strings.Builder
	b.WriteString("🏠 CleanЧиствуд - Довідка\n\n")
	b.WriteString("Доступні команди:\n")
	b.WriteString("/start - Почати роботу з ботом\n")
	b.WriteString("/menu - Головне меню\n")
	b.WriteString("/category - Змінити категорію\n")
	b.WriteString("/instagram - Наші соцмережі\n")
	b.WriteString("/help - Ця довідка\n")
	if isAdmin {
		b.WriteString("\nКоманди адміністратора:\n")
		b.WriteString("/groups - Статистика груп\n")
		b.WriteString("/update_groups - Оновити групи\n")
		b.WriteString("/group_list - Список груп\n")
		b.WriteString("/stop_broadcast <ID> - Зупинити розсилку\n")
	}
	return b.String()
}

func menuOnlyMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(mainMenuRow(markup))
	return markup
}

func broadcastsMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("⛔ Зупинити всі", cbStopAll, "-")),
		markup.Row(markup.Data("🔄 Оновити", cbBroadcasts, "-")),
		mainMenuRow(markup),
	)
	return markup
}

// formatInterval spells out an interval key for the broadcast listing.
func formatInterval(key string) string {
	labels := map[string]string{
		"1m":  "1 хвилина",
		"15m": "15 хвилин",
		"30m": "30 хвилин",
		"1h":  "1 година",
		"2h":  "2 години",
		"3h":  "3 години",
		"4h":  "4 години",
		"6h":  "6 годин",
		"12h": "12 годин",
		"1d":  "1 день",
	}
	if label, ok := labels[key]; ok {
		return label
	}
	return wizard.IntervalLabel(key)
}

func formatStamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "невідомо"
	}
	return t.In(loc).Format(displayDateTime)
}

func messagePreview(message string) string {
	if message == "" {
		return "Немає тексту"
	}
	runes := []rune(message)
	if len(runes) <= 50 {
		return message
	}
	return string(runes[:50]) + "..."
}

// broadcastsText renders the active broadcast listing.
func broadcastsText(snaps []broadcast.Snapshot, now time.Time, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("📋 Активні розсилки:\n\n")
	for i, s := range snaps {
		elapsed := int(now.Sub(s.StartedAt).Minutes())
		fmt.Fprintf(&b, "%d. Розсилка ID: %s\n", i+1, s.ID)
		fmt.Fprintf(&b, "Повідомлення: %s\n", messagePreview(s.Message))
		fmt.Fprintf(&b, "Групи: %d\n", len(s.Targets))
		if len(s.Targets) > 0 {
			fmt.Fprintf(&b, "Обрано: %s\n", strings.Join(s.Targets, ", "))
		}
		fmt.Fprintf(&b, "Інтервал: %s\n", formatInterval(s.IntervalKey))
		fmt.Fprintf(&b, "Запущена: %s\n", formatStamp(s.StartedAt, loc))
		fmt.Fprintf(&b, "Завершення: %s\n", formatStamp(s.End, loc))
		fmt.Fprintf(&b, "Працює: %d хв.\n\n", elapsed)
	}
	b.WriteString(stopUsageText)
	return b.String()
}

// groupStatsText renders /groups output.
func groupsRefreshedText(stats directory.Stats, loc *time.Location) string {
	return fmt.Sprintf(
		"✅ Группы успешно обновлены!\n\nДоступно групп: %d\nПоследнее обновление: %s",
		stats.Available, formatStamp(stats.LastRefresh, loc),
	)
}

func groupStatsText(stats directory.Stats, loc *time.Location) string {
	lastUpdate := "никогда"
	if !stats.LastRefresh.IsZero() {
		lastUpdate = formatStamp(stats.LastRefresh, loc)
	}
	var b strings.Builder
	b.WriteString("📊 Статистика групп:\n\n")
	fmt.Fprintf(&b, "📋 Всего в базе: %d\n", stats.TotalKnown)
	fmt.Fprintf(&b, "🔄 Доступно через сессию: %d\n", stats.Available)
	fmt.Fprintf(&b, "🕐 Последнее обновление: %s\n", lastUpdate)
	fmt.Fprintf(&b, "📚 Групп с историей ID: %d\n\n", stats.WithHistory)
	b.WriteString("Используйте /update_groups для принудительного обновления")
	return b.String()
}

// groupListText renders /group_list output, split into chunks that fit
// a single Telegram message.
func groupListText(groups []directory.Group) []string {
	if len(groups) == 0 {
		return []string{"📭 Нет доступных групп"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Доступные группы (%d):\n\n", len(groups))
	for i, g := range groups {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g.Name)
		fmt.Fprintf(&b, "   ID: %d\n", g.ID)
		username := g.Username
		if username == "" {
			username = "нет"
		}
		fmt.Fprintf(&b, "   Username: %s\n", username)
		kind := "Группа"
		if g.IsChannel {
			kind = "Канал"
		}
		fmt.Fprintf(&b, "   Тип: %s\n---\n", kind)
	}
	return chunkMessage(b.String(), 4000)
}

func chunkMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for len(runes) > 0 {
		n := limit
		if n > len(runes) {
			n = len(runes)
		}
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return parts
}
