package app

import (
	"context"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestObserverTracksGroupChats(t *testing.T) {
	o := newChatObserver(func() *tele.Bot { return nil }, 1)

	o.Observe(&tele.Chat{ID: 10, Type: tele.ChatPrivate, Title: "private"})
	o.Observe(&tele.Chat{ID: -20, Type: tele.ChatSuperGroup, Title: "Вакансії"})
	o.Observe(&tele.Chat{ID: -30, Type: tele.ChatChannel, Title: "Канал", Username: "jobs"})
	o.Observe(nil)

	dialogs, err := o.Dialogs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(dialogs) != 2 {
		t.Fatalf("dialogs = %d, want 2 (private chats ignored)", len(dialogs))
	}
	// sorted by name
	if dialogs[0].Name != "Вакансії" || dialogs[1].Name != "Канал" {
		t.Fatalf("unexpected order: %q, %q", dialogs[0].Name, dialogs[1].Name)
	}
	if !dialogs[1].IsChannel || dialogs[1].Username != "jobs" {
		t.Errorf("channel dialog lost attributes: %+v", dialogs[1])
	}
}

func TestObserverRelearnsRenamedChat(t *testing.T) {
	o := newChatObserver(func() *tele.Bot { return nil }, 1)

	o.Observe(&tele.Chat{ID: -20, Type: tele.ChatGroup, Title: "Стара назва"})
	o.Observe(&tele.Chat{ID: -20, Type: tele.ChatGroup, Title: "Нова назва"})

	dialogs, _ := o.Dialogs(context.Background())
	if len(dialogs) != 1 {
		t.Fatalf("dialogs = %d, want 1", len(dialogs))
	}
	if dialogs[0].Name != "Нова назва" {
		t.Errorf("name = %q", dialogs[0].Name)
	}
}

func TestObserverForget(t *testing.T) {
	o := newChatObserver(func() *tele.Bot { return nil }, 1)

	o.Observe(&tele.Chat{ID: -20, Type: tele.ChatGroup, Title: "Група"})
	o.Forget(-20)
	o.Forget(-999) // unknown id is a no-op

	dialogs, _ := o.Dialogs(context.Background())
	if len(dialogs) != 0 {
		t.Fatalf("dialogs = %d after forget", len(dialogs))
	}
}

func TestObserverSendWithoutBot(t *testing.T) {
	o := newChatObserver(func() *tele.Bot { return nil }, 1)
	if o.Connected() {
		t.Error("observer should not report connected without a bot")
	}
}
