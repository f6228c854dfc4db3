package app

import (
	"strings"
	"testing"
	"time"

	"github.com/cleanchistwood/cleanbot/internal/broadcast"
	"github.com/cleanchistwood/cleanbot/internal/directory"
)

func testApp() *App {
	cfg := &Config{}
	applyBotDefaults(&cfg.Bot)
	return &App{cfg: cfg, loc: time.UTC}
}

func TestFormatInterval(t *testing.T) {
	cases := map[string]string{
		"1m":  "1 хвилина",
		"30m": "30 хвилин",
		"2h":  "2 години",
		"12h": "12 годин",
		"1d":  "1 день",
		"45m": "45 хв", // unknown key falls back to the short label
	}
	for key, want := range cases {
		if got := formatInterval(key); got != want {
			t.Errorf("formatInterval(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestMessagePreview(t *testing.T) {
	if got := messagePreview(""); got != "Немає тексту" {
		t.Fatalf("empty preview = %q", got)
	}
	short := "Привіт"
	if got := messagePreview(short); got != short {
		t.Fatalf("short preview = %q", got)
	}
	long := strings.Repeat("б", 60)
	got := messagePreview(long)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("long preview missing ellipsis: %q", got)
	}
	if n := len([]rune(got)); n != 53 {
		t.Fatalf("long preview length = %d runes, want 53", n)
	}
}

func TestBroadcastsText(t *testing.T) {
	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	snaps := []broadcast.Snapshot{
		{
			ID:          "broadcast_1",
			Message:     "Потрібні клінери",
			IntervalKey: "1h",
			End:         now.Add(48 * time.Hour),
			StartedAt:   now.Add(-90 * time.Minute),
			Targets:     []string{"Клінінг Київ", "Вакансії"},
		},
	}

	text := broadcastsText(snaps, now, time.UTC)
	for _, want := range []string{
		"📋 Активні розсилки:",
		"1. Розсилка ID: broadcast_1",
		"Повідомлення: Потрібні клінери",
		"Групи: 2",
		"Обрано: Клінінг Київ, Вакансії",
		"Інтервал: 1 година",
		"Працює: 90 хв.",
		stopUsageText,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("listing missing %q:\n%s", want, text)
		}
	}
}

func TestGroupStatsText(t *testing.T) {
	stats := directory.Stats{
		TotalKnown:  5,
		Available:   3,
		WithHistory: 2,
		LastRefresh: time.Date(2026, time.June, 10, 9, 30, 0, 0, time.UTC),
	}
	text := groupStatsText(stats, time.UTC)
	for _, want := range []string{"Всего в базе: 5", "Доступно через сессию: 3", "историей ID: 2", "10.06.2026, 09:30"} {
		if !strings.Contains(text, want) {
			t.Errorf("stats missing %q:\n%s", want, text)
		}
	}

	if !strings.Contains(groupStatsText(directory.Stats{}, time.UTC), "никогда") {
		t.Error("zero refresh time should render as никогда")
	}
}

func TestGroupsRefreshedText(t *testing.T) {
	stats := directory.Stats{
		Available:   4,
		LastRefresh: time.Date(2026, time.June, 10, 9, 30, 0, 0, time.UTC),
	}
	text := groupsRefreshedText(stats, time.UTC)
	for _, want := range []string{"✅ Группы успешно обновлены!", "Доступно групп: 4", "10.06.2026, 09:30"} {
		if !strings.Contains(text, want) {
			t.Errorf("refresh reply missing %q:\n%s", want, text)
		}
	}
}

func TestGroupListText(t *testing.T) {
	parts := groupListText(nil)
	if len(parts) != 1 || parts[0] != "📭 Нет доступных групп" {
		t.Fatalf("empty list = %#v", parts)
	}

	groups := []directory.Group{
		{ID: -100123, Name: "Клінінг Київ", Username: "clean_kyiv", IsGroup: true},
		{ID: -100456, Name: "Канал вакансій", IsChannel: true},
	}
	parts = groupListText(groups)
	if len(parts) != 1 {
		t.Fatalf("expected single chunk, got %d", len(parts))
	}
	text := parts[0]
	for _, want := range []string{
		"Доступные группы (2):",
		"1. Клінінг Київ",
		"Username: clean_kyiv",
		"Тип: Группа",
		"Username: нет",
		"Тип: Канал",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("group list missing %q:\n%s", want, text)
		}
	}
}

func TestChunkMessage(t *testing.T) {
	text := strings.Repeat("ї", 9001)
	parts := chunkMessage(text, 4000)
	if len(parts) != 3 {
		t.Fatalf("chunks = %d, want 3", len(parts))
	}
	var total int
	for _, p := range parts {
		total += len([]rune(p))
	}
	if total != 9001 {
		t.Fatalf("reassembled length = %d", total)
	}
}

func TestHelpText(t *testing.T) {
	user := helpText(false)
	if strings.Contains(user, "/stop_broadcast") {
		t.Error("user help should not list admin commands")
	}
	admin := helpText(true)
	for _, want := range []string{"/groups - Статистика груп", "/update_groups - Оновити групи", "/stop_broadcast <ID> - Зупинити розсилку"} {
		if !strings.Contains(admin, want) {
			t.Errorf("admin help missing %q", want)
		}
	}
}

func TestWelcomeTextCarriesLinks(t *testing.T) {
	a := testApp()
	text := a.welcomeText()
	for _, want := range []string{
		"🏠 CleanЧиствуд",
		"https://www.instagram.com/clean_chistwood",
		"https://www.cleanchistwood.com.ua/",
		"👉 Оберіть вашу категорію та заповніть анкету:",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("welcome missing %q", want)
		}
	}
}

func TestCategoryMarkupListsEveryCategory(t *testing.T) {
	a := testApp()
	markup := a.categoryMarkup()
	// 7 categories + link row + main menu row
	if got := len(markup.InlineKeyboard); got != 9 {
		t.Fatalf("rows = %d, want 9", got)
	}
	if markup.InlineKeyboard[0][0].Text != "🚗 Водій" {
		t.Errorf("first category = %q", markup.InlineKeyboard[0][0].Text)
	}
	last := markup.InlineKeyboard[8][0]
	if last.Text != "🏠 Головне меню" {
		t.Errorf("last row = %q", last.Text)
	}
}

func TestApplyBotDefaults(t *testing.T) {
	var b BotSettings
	applyBotDefaults(&b)
	if b.QuestionsPath != "questions.yaml" {
		t.Errorf("questions path = %q", b.QuestionsPath)
	}
	if b.Timezone != "Europe/Kyiv" {
		t.Errorf("timezone = %q", b.Timezone)
	}
	if b.ReminderSpec != "0 9 * * *" {
		t.Errorf("reminder spec = %q", b.ReminderSpec)
	}
	if b.GroupSendPerSecond != 0.5 {
		t.Errorf("send rate = %v", b.GroupSendPerSecond)
	}

	custom := BotSettings{HRHandle: "OtherHR"}
	applyBotDefaults(&custom)
	if custom.HRHandle != "OtherHR" {
		t.Errorf("explicit handle overwritten: %q", custom.HRHandle)
	}
}
