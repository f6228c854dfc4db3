package questionnaire

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cleanchistwood/cleanbot/internal/calendar"
	"github.com/cleanchistwood/cleanbot/internal/catalog"

	tele "gopkg.in/telebot.v4"
)

type fakeQuestions struct {
	byCategory map[string][]catalog.Question
}

func (f *fakeQuestions) Questions(category string) []catalog.Question {
	return f.byCategory[category]
}

func (f *fakeQuestions) FullQuestions(category string) []catalog.Question {
	out := make([]catalog.Question, len(f.byCategory[category]))
	copy(out, f.byCategory[category])
	for i := range out {
		if out[i].Prompt != "" {
			out[i].Label = out[i].Prompt
		}
	}
	return out
}

type sentMessage struct {
	ChatID int64
	Text   string
	Markup *tele.ReplyMarkup
}

type fakeOutbox struct {
	sent []sentMessage
}

func (f *fakeOutbox) Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (f *fakeOutbox) textsTo(chatID int64) []string {
	var out []string
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

type fakeSink struct {
	apps []Application
}

func (f *fakeSink) SaveApplication(ctx context.Context, app Application) error {
	f.apps = append(f.apps, app)
	return nil
}

type fakeProfiles struct {
	completed int
	category  string
}

func (f *fakeProfiles) CompleteQuestionnaire(ctx context.Context, userID int64, category, categoryName string, completedAt time.Time) error {
	f.completed++
	f.category = category
	return nil
}

var testClock = func() time.Time { return time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC) }

func smmFixture() *fakeQuestions {
	return &fakeQuestions{byCategory: map[string][]catalog.Question{
		"smm": {
			{ID: 1, Label: "Особисті дані", Prompt: "📱 Ваше ім'я?", Kind: catalog.KindText, Required: true},
			{ID: 2, Label: "Платформи", Prompt: "📱 З якими платформами працювали?", Kind: catalog.KindOptions, Options: []string{"Instagram", "TikTok"}, Required: true},
			{ID: 3, Label: "Портфоліо", Prompt: "📱 Надішліть посилання на приклади ваших робіт:", Kind: catalog.KindText, Required: false},
			{ID: 4, Label: "Телефон", Prompt: "📱 Контактний номер телефону:", Kind: catalog.KindText, Required: true},
			{ID: 5, Label: "Дата стажування", Prompt: "📱 Оберіть дату стажування:", Kind: catalog.KindCalendar, Required: true},
		},
	}}
}

func newTestEngine(q QuestionSource) (*Engine, *fakeOutbox, *fakeSink, *fakeProfiles) {
	outbox := &fakeOutbox{}
	sink := &fakeSink{}
	profiles := &fakeProfiles{}
	eng := New(Options{
		Questions: q,
		Calendar:  calendar.NewSelectorAt(testClock),
		Outbox:    outbox,
		Sink:      sink,
		Profiles:  profiles,
		AdminIDs:  []int64{900, 901},
		Now:       testClock,
	})
	return eng, outbox, sink, profiles
}

func TestValidPhone(t *testing.T) {
	valid := []string{
		"+380991234567", "380991234567", "0991234567",
		"099 123 45 67", "(099) 123-45-67", "9912345678",
	}
	for _, v := range valid {
		if !ValidPhone(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}
	invalid := []string{"", "12345", "+49991234567890", "не номер", "099123456"}
	for _, v := range invalid {
		if ValidPhone(v) {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}

func TestValidURL(t *testing.T) {
	valid := []string{
		"https://www.instagram.com/profile",
		"http://example.com/portfolio",
		"t.me/channel",
		"example.com",
	}
	for _, v := range valid {
		if !ValidURL(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}
	invalid := []string{"", "немає", "not a url", "http://"}
	for _, v := range invalid {
		if ValidURL(v) {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}

func TestSanitizeOption(t *testing.T) {
	// The class keeps lowercase Cyrillic plus ІЇЄҐ, so the uppercase Т
	// goes the same way as the emoji.
	if got := sanitizeOption("✅ Так"); got != "ак" {
		t.Fatalf("got %q", got)
	}
	if got := sanitizeOption("Їжа і графік"); got != "Їжаіграфік" {
		t.Fatalf("got %q", got)
	}
	if got := sanitizeOption("1–2 роки"); got != "12роки" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("а", 40)
	if got := sanitizeOption(long); len([]rune(got)) != 30 {
		t.Fatalf("expected 30-rune cap, got %d", len([]rune(got)))
	}
}

func TestDecodeOption(t *testing.T) {
	q := catalog.Question{ID: 2, Kind: catalog.KindOptions, Options: []string{"✅ Так", "❌ Ні"}}

	if v, ok := decodeOption("2_1", q); !ok || v != "❌ Ні" {
		t.Fatalf("index token: %q %v", v, ok)
	}
	if v, ok := decodeOption("2_ак", q); !ok || v != "✅ Так" {
		t.Fatalf("legacy token: %q %v", v, ok)
	}
	if v, ok := decodeOption("2_щось", q); !ok || v != "щось" {
		t.Fatalf("raw fallback: %q %v", v, ok)
	}
	if _, ok := decodeOption("7_0", q); ok {
		t.Fatalf("stale question id must be ignored")
	}
	if _, ok := decodeOption("junk", q); ok {
		t.Fatalf("malformed payload must be ignored")
	}
}

func TestStartWithoutCategory(t *testing.T) {
	eng, outbox, _, _ := newTestEngine(smmFixture())
	if err := eng.Start(context.Background(), Applicant{UserID: 1, ChatID: 10}, "", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if eng.InProgress(1) {
		t.Fatalf("no session without a category")
	}
	if got := outbox.textsTo(10); len(got) != 1 || got[0] != msgNoCategory {
		t.Fatalf("unexpected messages: %v", got)
	}
}

func TestFullFlowCompletesOnce(t *testing.T) {
	eng, outbox, sink, profiles := newTestEngine(smmFixture())
	ctx := context.Background()
	who := Applicant{UserID: 1, ChatID: 10, Username: "applicant"}

	if err := eng.Start(ctx, who, "smm", "SMM"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 1: free text.
	if handled, err := eng.HandleText(ctx, 1, "Олена, 25, Київ"); !handled || err != nil {
		t.Fatalf("text answer: %v %v", handled, err)
	}
	// 2: option tap by index.
	if notice, err := eng.HandleOption(ctx, 1, "2_0"); err != nil || notice != msgAnswerSaved {
		t.Fatalf("option answer: %q %v", notice, err)
	}
	// 3: optional portfolio skipped with the skip word.
	if handled, err := eng.HandleText(ctx, 1, "немає"); !handled || err != nil {
		t.Fatalf("portfolio skip: %v %v", handled, err)
	}
	// 4: phone.
	if handled, err := eng.HandleText(ctx, 1, "+380991234567"); !handled || err != nil {
		t.Fatalf("phone answer: %v %v", handled, err)
	}
	// 5: calendar.
	if _, err := eng.CalendarSelect(ctx, 1, "2026-06-15"); err != nil {
		t.Fatalf("calendar select: %v", err)
	}
	res, err := eng.CalendarConfirm(ctx, 1)
	if err != nil {
		t.Fatalf("calendar confirm: %v", err)
	}
	if !res.Done || res.Edit != "✅ Дата обрана: 15.06.2026" {
		t.Fatalf("unexpected confirm result: %+v", res)
	}

	if eng.InProgress(1) {
		t.Fatalf("session must be deleted after finish")
	}
	if len(sink.apps) != 1 {
		t.Fatalf("expected exactly one saved application, got %d", len(sink.apps))
	}
	app := sink.apps[0]
	if app.Category != "smm" || len(app.Answers) != 5 {
		t.Fatalf("unexpected application: %+v", app)
	}
	if app.Answers[4].Value != "15.06.2026" || app.Answers[4].Label != "Дата стажування" {
		t.Fatalf("unexpected date answer: %+v", app.Answers[4])
	}
	if profiles.completed != 1 || profiles.category != "smm" {
		t.Fatalf("profile not updated: %+v", profiles)
	}

	userTexts := outbox.textsTo(10)
	var summary string
	for _, txt := range userTexts {
		if strings.HasPrefix(txt, "🎉 Анкету завершено!") {
			summary = txt
		}
	}
	if summary == "" {
		t.Fatalf("summary not sent to applicant: %v", userTexts)
	}
	if !strings.Contains(summary, "Категорія: SMM") || !strings.Contains(summary, "Відповідь: Instagram") {
		t.Fatalf("summary incomplete: %q", summary)
	}
	for _, adminID := range []int64{900, 901} {
		texts := outbox.textsTo(adminID)
		if len(texts) != 1 || !strings.HasPrefix(texts[0], "📩 Нова анкета від користувача 1:") {
			t.Fatalf("admin %d copy missing: %v", adminID, texts)
		}
	}
}

func TestPhoneRepromptDoesNotAdvance(t *testing.T) {
	eng, outbox, _, _ := newTestEngine(smmFixture())
	ctx := context.Background()

	if err := eng.Start(ctx, Applicant{UserID: 2, ChatID: 20}, "smm", "SMM"); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustText := func(text string) {
		t.Helper()
		if handled, err := eng.HandleText(ctx, 2, text); !handled || err != nil {
			t.Fatalf("text %q: %v %v", text, handled, err)
		}
	}
	mustText("Іван")
	if _, err := eng.HandleOption(ctx, 2, "2_1"); err != nil {
		t.Fatalf("option: %v", err)
	}
	mustText("https://example.com/works")

	mustText("12345")
	texts := outbox.textsTo(20)
	if texts[len(texts)-1] != msgBadPhone {
		t.Fatalf("expected phone re-prompt, got %q", texts[len(texts)-1])
	}

	mustText("0991234567")
	texts = outbox.textsTo(20)
	if texts[len(texts)-1] != "📱 Оберіть дату стажування:" {
		t.Fatalf("valid phone must advance to the date question, got %q", texts[len(texts)-1])
	}
}

func TestPortfolioReprompt(t *testing.T) {
	eng, outbox, _, _ := newTestEngine(smmFixture())
	ctx := context.Background()

	if err := eng.Start(ctx, Applicant{UserID: 3, ChatID: 30}, "smm", "SMM"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := eng.HandleText(ctx, 3, "Іван"); err != nil {
		t.Fatalf("text: %v", err)
	}
	if _, err := eng.HandleOption(ctx, 3, "2_0"); err != nil {
		t.Fatalf("option: %v", err)
	}
	if _, err := eng.HandleText(ctx, 3, "мої роботи десь є"); err != nil {
		t.Fatalf("text: %v", err)
	}
	texts := outbox.textsTo(30)
	if texts[len(texts)-1] != msgBadURL {
		t.Fatalf("expected URL re-prompt, got %q", texts[len(texts)-1])
	}
}

func TestCalendarConfirmWithoutSelection(t *testing.T) {
	eng, _, _, _ := newTestEngine(&fakeQuestions{byCategory: map[string][]catalog.Question{
		"driver": {
			{ID: 1, Label: "Дата стажування", Prompt: "🚗 Оберіть дату стажування:", Kind: catalog.KindCalendar, Required: true},
		},
	}})
	ctx := context.Background()

	if err := eng.Start(ctx, Applicant{UserID: 4, ChatID: 40}, "driver", "Водій"); err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := eng.CalendarConfirm(ctx, 4)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Notice != msgPickDate || res.Done {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !eng.InProgress(4) {
		t.Fatalf("session must survive an empty confirm")
	}
}

func TestCatalogShrinkMidFlight(t *testing.T) {
	questions := &fakeQuestions{byCategory: map[string][]catalog.Question{
		"cleaner": {
			{ID: 1, Label: "Особисті дані", Prompt: "🧹 Ваше ім'я?", Kind: catalog.KindText, Required: true},
			{ID: 2, Label: "Графік", Prompt: "🧹 Який графік вам зручний?", Kind: catalog.KindText, Required: true},
			{ID: 3, Label: "Дата стажування", Prompt: "🧹 Оберіть дату стажування:", Kind: catalog.KindCalendar, Required: true},
		},
	}}
	eng, _, sink, _ := newTestEngine(questions)
	ctx := context.Background()

	if err := eng.Start(ctx, Applicant{UserID: 6, ChatID: 60}, "cleaner", "Клінер"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if handled, err := eng.HandleText(ctx, 6, "Ірина, 30, Львів"); !handled || err != nil {
		t.Fatalf("text answer: %v %v", handled, err)
	}
	if handled, err := eng.HandleText(ctx, 6, "повний день"); !handled || err != nil {
		t.Fatalf("text answer: %v %v", handled, err)
	}

	// Hot reload drops the questionnaire to a single question while the
	// calendar step is on screen.
	questions.byCategory["cleaner"] = questions.byCategory["cleaner"][:1]

	if _, err := eng.CalendarSelect(ctx, 6, "2026-06-15"); err != nil {
		t.Fatalf("calendar select: %v", err)
	}
	res, err := eng.CalendarConfirm(ctx, 6)
	if err != nil {
		t.Fatalf("calendar confirm: %v", err)
	}
	if !res.Done {
		t.Fatalf("expected the questionnaire to close: %+v", res)
	}
	if eng.InProgress(6) {
		t.Fatalf("session must be deleted after the shrink")
	}
	if len(sink.apps) != 1 {
		t.Fatalf("expected exactly one saved application, got %d", len(sink.apps))
	}
	if got := len(sink.apps[0].Answers); got != 2 {
		t.Fatalf("expected the collected answers to survive, got %d", got)
	}
}

func TestAbortDropsSession(t *testing.T) {
	eng, _, _, _ := newTestEngine(smmFixture())
	ctx := context.Background()
	if err := eng.Start(ctx, Applicant{UserID: 5, ChatID: 50}, "smm", "SMM"); err != nil {
		t.Fatalf("start: %v", err)
	}
	eng.Abort(5)
	if eng.InProgress(5) {
		t.Fatalf("abort must drop the session")
	}
	if handled, _ := eng.HandleText(ctx, 5, "текст"); handled {
		t.Fatalf("text after abort must not be handled")
	}
}
