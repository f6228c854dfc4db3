// Package questionnaire drives the multi-step hiring conversation:
// one question at a time, typed/tapped/date answers, validation
// re-prompts and the final summary fan-out.
package questionnaire

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cleanchistwood/cleanbot/core/logger"
	"github.com/cleanchistwood/cleanbot/internal/calendar"
	"github.com/cleanchistwood/cleanbot/internal/catalog"
	"github.com/cleanchistwood/cleanbot/internal/state"

	tele "gopkg.in/telebot.v4"
)

// UniqueAnswer is the callback unique of option buttons; the payload
// is "<questionID>_<optionIndex>" (legacy keyboards carry a sanitized
// option text instead of the index).
const UniqueAnswer = "ans"

const (
	msgNoCategory  = "❌ Спочатку оберіть категорію!"
	msgNoQuestions = "❌ Для вашої категорії ще не налаштовані питання."
	msgAnswerSaved = "✅ Відповідь збережено"
	msgPickDate    = "❌ Будь ласка, оберіть дату!"
	msgDateCancel  = "❌ Вибір дати скасовано"

	msgBadPhone = "❌ Будь ласка, введіть коректний номер телефону у форматі:\n" +
		"• +380XXXXXXXXX\n" +
		"• 0XXXXXXXXX\n" +
		"• XXXXXXXXXX\n\n" +
		"Приклад: +380991234567 або 0991234567"

	msgBadURL = "❌ Будь ласка, введіть коректне посилання (URL).\n\n" +
		"Приклади валідних посилань:\n" +
		"• https://www.instagram.com/your_profile\n" +
		"• http://example.com/portfolio\n" +
		"• t.me/your_channel\n\n" +
		"Введіть коректне посилання або напишіть \"немає\" якщо у вас немає портфоліо."
)

// skipAnswer is accepted for optional questions in place of a link.
const skipAnswer = "немає"

// Answer pairs a question with the applicant's reply. Label carries
// the short export title, Prompt the full question text.
type Answer struct {
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
	Value  string `json:"value"`
}

// Applicant identifies the person filling the questionnaire.
type Applicant struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
	LastName  string
}

// Application is the finished questionnaire handed to the sink.
type Application struct {
	Applicant
	Category     string
	CategoryName string
	Answers      []Answer
	SubmittedAt  time.Time
}

// QuestionSource serves the per-category question lists.
type QuestionSource interface {
	Questions(category string) []catalog.Question
	FullQuestions(category string) []catalog.Question
}

// Outbox delivers bot messages outside the current handler reply.
type Outbox interface {
	Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error
}

// Sink persists finished applications. Failures are logged only.
type Sink interface {
	SaveApplication(ctx context.Context, app Application) error
}

// ProfileStore records questionnaire completion on the user profile.
type ProfileStore interface {
	CompleteQuestionnaire(ctx context.Context, userID int64, category, categoryName string, completedAt time.Time) error
}

type session struct {
	Applicant
	Category     string
	CategoryName string
	Index        int
	Answers      []Answer
}

// Options configures an Engine.
type Options struct {
	Questions QuestionSource
	Calendar  *calendar.Selector
	Outbox    Outbox
	Sink      Sink
	Profiles  ProfileStore
	AdminIDs  []int64
	HRHandle  string // without @
	HRLink    string
	Now       func() time.Time
}

// Engine owns the per-user conversation state.
type Engine struct {
	questions QuestionSource
	cal       *calendar.Selector
	outbox    Outbox
	sink      Sink
	profiles  ProfileStore
	admins    []int64
	hrHandle  string
	hrLink    string
	now       func() time.Time

	sessions *state.Store[session]
}

// New constructs an Engine.
func New(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HRHandle == "" {
		opts.HRHandle = "CleanHR"
	}
	if opts.HRLink == "" {
		opts.HRLink = "https://t.me/" + opts.HRHandle
	}
	return &Engine{
		questions: opts.Questions,
		cal:       opts.Calendar,
		outbox:    opts.Outbox,
		sink:      opts.Sink,
		profiles:  opts.Profiles,
		admins:    opts.AdminIDs,
		hrHandle:  opts.HRHandle,
		hrLink:    opts.HRLink,
		now:       opts.Now,
		sessions:  state.New[session](),
	}
}

// InProgress reports whether the user has an active questionnaire.
func (e *Engine) InProgress(userID int64) bool {
	return e.sessions.Has(userID)
}

// Abort drops the user's questionnaire and any open date picker.
func (e *Engine) Abort(userID int64) {
	e.sessions.Delete(userID)
	e.cal.Cancel(userID)
}

// Start begins the questionnaire for the applicant's category.
func (e *Engine) Start(ctx context.Context, who Applicant, category, categoryName string) error {
	if category == "" {
		return e.outbox.Send(ctx, who.ChatID, msgNoCategory, nil)
	}
	e.sessions.Set(who.UserID, &session{
		Applicant:    who,
		Category:     category,
		CategoryName: categoryName,
	})
	logger.Info(ctx, "questionnaire", "start",
		slog.String("category", category),
		slog.Int64("user_id", who.UserID),
	)
	return e.sendCurrent(ctx, who.UserID)
}

// sendCurrent delivers the question at the session's index.
func (e *Engine) sendCurrent(ctx context.Context, userID int64) error {
	sess := e.sessions.Get(userID)
	if sess == nil {
		return nil
	}
	prompts := e.questions.FullQuestions(sess.Category)
	if len(prompts) == 0 {
		e.sessions.Delete(userID)
		return e.outbox.Send(ctx, sess.ChatID, msgNoQuestions, nil)
	}
	if sess.Index >= len(prompts) {
		e.sessions.Delete(userID)
		return e.finish(ctx, sess)
	}
	q := prompts[sess.Index]

	switch q.Kind {
	case catalog.KindText:
		return e.outbox.Send(ctx, sess.ChatID, q.Label, nil)
	case catalog.KindOptions:
		return e.outbox.Send(ctx, sess.ChatID, q.Label, optionsMarkup(q))
	case catalog.KindCalendar:
		markup := e.cal.Open(userID)
		return e.outbox.Send(ctx, sess.ChatID, q.Label, markup)
	default:
		return fmt.Errorf("question %d has unknown kind %q", q.ID, q.Kind)
	}
}

// optionsMarkup renders one button per option with index payloads.
func optionsMarkup(q catalog.Question) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([][]tele.InlineButton, 0, len(q.Options))
	for i, option := range q.Options {
		btn := markup.Data(option, UniqueAnswer, fmt.Sprintf("%d_%d", q.ID, i))
		rows = append(rows, []tele.InlineButton{*btn.Inline()})
	}
	markup.InlineKeyboard = rows
	return markup
}

// HandleText consumes a typed message when a text question is active.
// It returns false when the message is not part of a questionnaire.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) (bool, error) {
	sess := e.sessions.Get(userID)
	if sess == nil || text == "" {
		return false, nil
	}
	prompts := e.questions.FullQuestions(sess.Category)
	if sess.Index >= len(prompts) {
		return false, nil
	}
	q := prompts[sess.Index]
	if q.Kind != catalog.KindText {
		return false, nil
	}

	if isPhoneQuestion(q.Label) && !ValidPhone(text) {
		return true, e.outbox.Send(ctx, sess.ChatID, msgBadPhone, nil)
	}
	if isPortfolioQuestion(sess.Category, q.Label) && !validPortfolio(q, text) {
		return true, e.outbox.Send(ctx, sess.ChatID, msgBadURL, nil)
	}

	return true, e.record(ctx, userID, text)
}

// validPortfolio accepts a URL, or the skip word on optional questions.
func validPortfolio(q catalog.Question, text string) bool {
	if !q.Required && strings.EqualFold(strings.TrimSpace(text), skipAnswer) {
		return true
	}
	return ValidURL(text)
}

// HandleOption consumes an option-button tap. The returned notice is
// shown as the callback answer.
func (e *Engine) HandleOption(ctx context.Context, userID int64, payload string) (string, error) {
	sess := e.sessions.Get(userID)
	if sess == nil {
		return "", nil
	}
	prompts := e.questions.FullQuestions(sess.Category)
	if sess.Index >= len(prompts) {
		return "", nil
	}
	q := prompts[sess.Index]

	value, ok := decodeOption(payload, q)
	if !ok {
		logger.Debug(ctx, "questionnaire", "option.stale",
			slog.Int("question", q.ID),
			slog.String("status", "skip"),
		)
		return "", nil
	}
	if err := e.record(ctx, userID, value); err != nil {
		return "", err
	}
	return msgAnswerSaved, nil
}

// decodeOption resolves "<questionID>_<token>" against the active
// question. The token is an option index; legacy keyboards carry the
// sanitized option text, matched in reverse, raw token as fallback.
func decodeOption(payload string, q catalog.Question) (string, bool) {
	qidRaw, token, found := strings.Cut(payload, "_")
	if !found {
		return "", false
	}
	qid, err := strconv.Atoi(qidRaw)
	if err != nil || qid != q.ID || q.Kind != catalog.KindOptions {
		return "", false
	}
	if idx, err := strconv.Atoi(token); err == nil && idx >= 0 && idx < len(q.Options) {
		return q.Options[idx], true
	}
	for _, option := range q.Options {
		if sanitizeOption(option) == token {
			return option, true
		}
	}
	return token, true
}

// CalendarResult tells the handler how to react to a picker tap.
type CalendarResult struct {
	Markup *tele.ReplyMarkup // re-render the picker keyboard
	Edit   string            // replace the picker message text
	Notice string            // callback answer
	Done   bool              // questionnaire finished
}

// CalendarSelect marks a tapped day on the active picker.
func (e *Engine) CalendarSelect(ctx context.Context, userID int64, payload string) (CalendarResult, error) {
	if !e.sessions.Has(userID) {
		return CalendarResult{}, nil
	}
	markup, err := e.cal.Select(userID, payload)
	if err != nil {
		return CalendarResult{}, err
	}
	return CalendarResult{Markup: markup}, nil
}

// CalendarNavigate flips the picker month.
func (e *Engine) CalendarNavigate(ctx context.Context, userID int64, payload string) (CalendarResult, error) {
	if !e.sessions.Has(userID) {
		return CalendarResult{}, nil
	}
	markup, err := e.cal.Navigate(userID, payload)
	if err != nil {
		return CalendarResult{}, err
	}
	return CalendarResult{Markup: markup}, nil
}

// CalendarConfirm finalizes the date answer; without a tapped day the
// picker stays open and a notice is returned.
func (e *Engine) CalendarConfirm(ctx context.Context, userID int64) (CalendarResult, error) {
	sess := e.sessions.Get(userID)
	if sess == nil {
		return CalendarResult{}, nil
	}
	date, ok := e.cal.Confirm(userID)
	if !ok {
		return CalendarResult{Notice: msgPickDate}, nil
	}
	if err := e.record(ctx, userID, calendar.FormatDate(date)); err != nil {
		return CalendarResult{}, err
	}
	return CalendarResult{
		Edit: fmt.Sprintf("✅ Дата обрана: %s", calendar.FormatDate(date)),
		Done: !e.sessions.Has(userID),
	}, nil
}

// CalendarCancel discards the picker without recording an answer.
func (e *Engine) CalendarCancel(userID int64) CalendarResult {
	e.cal.Cancel(userID)
	return CalendarResult{Edit: msgDateCancel}
}

// record stores the answer for the current question and advances,
// finishing the questionnaire after the last one.
func (e *Engine) record(ctx context.Context, userID int64, value string) error {
	var finished *session
	e.sessions.Update(userID, func(sess *session) *session {
		if sess == nil {
			return nil
		}
		short := e.questions.Questions(sess.Category)
		prompts := e.questions.FullQuestions(sess.Category)
		if sess.Index >= len(prompts) {
			// Catalog reload shrank the questionnaire below the session's
			// position; close it with the answers collected so far.
			finished = sess
			return nil
		}
		sess.Answers = append(sess.Answers, Answer{
			Label:  short[sess.Index].Label,
			Prompt: prompts[sess.Index].Label,
			Value:  value,
		})
		sess.Index++
		if sess.Index >= len(prompts) {
			finished = sess
			return nil
		}
		return sess
	})

	if finished != nil {
		return e.finish(ctx, finished)
	}
	return e.sendCurrent(ctx, userID)
}

// finish persists the application, reports it and closes the dialog.
func (e *Engine) finish(ctx context.Context, sess *session) error {
	now := e.now()

	if e.profiles != nil {
		if err := e.profiles.CompleteQuestionnaire(ctx, sess.UserID, sess.Category, sess.CategoryName, now); err != nil {
			logger.Warn(ctx, "questionnaire", "profile.update_failed",
				slog.Int64("user_id", sess.UserID),
				slog.Any("error", err),
			)
		}
	}

	app := Application{
		Applicant:    sess.Applicant,
		Category:     sess.Category,
		CategoryName: sess.CategoryName,
		Answers:      sess.Answers,
		SubmittedAt:  now,
	}
	if e.sink != nil {
		if err := e.sink.SaveApplication(ctx, app); err != nil {
			logger.Error(ctx, "questionnaire", "sink.save_failed",
				slog.Int64("user_id", sess.UserID),
				slog.Any("error", err),
			)
		}
	}

	summary := e.summary(sess)
	if err := e.outbox.Send(ctx, sess.ChatID, summary, nil); err != nil {
		return err
	}
	for _, adminID := range e.admins {
		text := fmt.Sprintf("📩 Нова анкета від користувача %d:\n\n%s", sess.UserID, summary)
		if err := e.outbox.Send(ctx, adminID, text, nil); err != nil {
			logger.Warn(ctx, "questionnaire", "admin.copy_failed",
				slog.Int64("chat_id", adminID),
				slog.Any("error", err),
			)
		}
	}

	logger.Info(ctx, "questionnaire", "complete",
		slog.String("category", sess.Category),
		slog.Int64("user_id", sess.UserID),
		slog.Int("answers", len(sess.Answers)),
	)
	return e.outbox.Send(ctx, sess.ChatID, e.closingText(), e.closingMarkup())
}

func (e *Engine) summary(sess *session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Анкету завершено! Категорія: %s\n\n", sess.CategoryName)
	b.WriteString("📋 Ваші відповіді:\n\n")
	for i, a := range sess.Answers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Prompt)
		fmt.Fprintf(&b, "   Відповідь: %s\n\n", a.Value)
	}
	return b.String()
}

func (e *Engine) closingText() string {
	return "🎉 Дякуємо за заповнення анкети!\n\n" +
		"Для подальшого спілкування та узгодження деталей, будь ласка, звертайтеся до нашого HR:\n\n" +
		"👤 @" + e.hrHandle
}

func (e *Engine) closingMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	hr := markup.URL("💼 Написати HR", e.hrLink)
	menu := markup.Data("🏠 Головне меню", "main_menu", "-")
	markup.InlineKeyboard = [][]tele.InlineButton{
		{*hr.Inline()},
		{*menu.Inline()},
	}
	return markup
}
