package directory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeClient struct {
	dialogs    []Dialog
	dialogsErr error
	sendErr    error
	sent       []Target
	refreshes  int
}

func (f *fakeClient) Dialogs(ctx context.Context) ([]Dialog, error) {
	f.refreshes++
	if f.dialogsErr != nil {
		return nil, f.dialogsErr
	}
	return f.dialogs, nil
}

func (f *fakeClient) SendMessage(ctx context.Context, target Target, text string) error {
	f.sent = append(f.sent, target)
	return f.sendErr
}

func (f *fakeClient) Connected() bool { return true }

func newTestDirectory(client *fakeClient) *Directory {
	d := New(client)
	d.now = func() time.Time { return time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC) }
	return d
}

func TestRefreshFiltersAndReplaces(t *testing.T) {
	client := &fakeClient{dialogs: []Dialog{
		{ID: 1, Name: "Клінери Київ", IsGroup: true},
		{ID: 2, Name: "Новини", IsChannel: true},
		{ID: 3, Name: "Особистий чат"},
	}}
	d := newTestDirectory(client)

	n, err := d.Refresh(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("refresh: n=%d err=%v", n, err)
	}

	client.dialogs = []Dialog{{ID: 2, Name: "Новини", IsChannel: true}}
	if _, err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if got := len(d.Groups()); got != 1 {
		t.Fatalf("available list must be replaced wholesale, got %d entries", got)
	}
	// The record for the vanished group survives.
	if _, ok := d.Record("Клінери Київ"); !ok {
		t.Fatalf("record must survive the group leaving the dialog list")
	}
}

func TestIdentifierHistoryAppendOnly(t *testing.T) {
	client := &fakeClient{dialogs: []Dialog{{ID: 100, Name: "Чиствуд", IsGroup: true}}}
	d := newTestDirectory(client)
	ctx := context.Background()

	mustRefresh := func() {
		t.Helper()
		if _, err := d.Refresh(ctx); err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}

	mustRefresh()
	client.dialogs[0].ID = 200
	mustRefresh()
	// Same migration again must not duplicate the history entry.
	client.dialogs[0].ID = 100
	mustRefresh()
	client.dialogs[0].ID = 200
	mustRefresh()

	rec, ok := d.Record("Чиствуд")
	if !ok {
		t.Fatalf("record missing")
	}
	if rec.CurrentID != 200 {
		t.Fatalf("current id = %d, want 200", rec.CurrentID)
	}
	if historyContains(rec.History, rec.CurrentID) {
		t.Fatalf("current id must never appear in history: %+v", rec.History)
	}
	if !historyContains(rec.History, 100) {
		t.Fatalf("expected 100 in history: %+v", rec.History)
	}
	if len(rec.History) != 1 {
		t.Fatalf("expected deduplicated history, got %+v", rec.History)
	}
}

func TestRecordCreatedAtSurvivesRefreshes(t *testing.T) {
	client := &fakeClient{dialogs: []Dialog{{ID: 100, Name: "Чиствуд", IsGroup: true}}}
	d := New(client)
	firstSeen := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	clock := firstSeen
	d.now = func() time.Time { return clock }
	ctx := context.Background()

	if _, err := d.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	rec, ok := d.Record("Чиствуд")
	if !ok {
		t.Fatalf("record missing")
	}
	if !rec.CreatedAt.Equal(firstSeen) || !rec.UpdatedAt.Equal(firstSeen) {
		t.Fatalf("first sighting stamps: %+v", rec)
	}

	clock = firstSeen.Add(6 * time.Hour)
	client.dialogs[0].ID = 200
	if _, err := d.Refresh(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	rec, _ = d.Record("Чиствуд")
	if !rec.CreatedAt.Equal(firstSeen) {
		t.Fatalf("CreatedAt must keep the first sighting, got %v", rec.CreatedAt)
	}
	if !rec.UpdatedAt.Equal(clock) {
		t.Fatalf("UpdatedAt must advance, got %v", rec.UpdatedAt)
	}
}

func TestResolveByNameBidirectional(t *testing.T) {
	client := &fakeClient{dialogs: []Dialog{
		{ID: 1, Name: "Клінери Київ", IsGroup: true},
		{ID: 2, Name: "ТРЦ", IsGroup: true},
	}}
	d := newTestDirectory(client)
	if _, err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// Query is a substring of the stored name.
	if g, ok := d.ResolveByName(context.Background(), "клінери", false); !ok || g.ID != 1 {
		t.Fatalf("substring match failed: %+v %v", g, ok)
	}
	// Stored name is a substring of the query.
	if g, ok := d.ResolveByName(context.Background(), "працівники ТРЦ зміна 2", false); !ok || g.ID != 2 {
		t.Fatalf("reverse substring match failed: %+v %v", g, ok)
	}
	if _, ok := d.ResolveByName(context.Background(), "немає такої", false); ok {
		t.Fatalf("expected no match")
	}
}

func TestResolveByNameRefreshRetry(t *testing.T) {
	client := &fakeClient{}
	d := newTestDirectory(client)

	client.dialogs = []Dialog{{ID: 5, Name: "Нова група", IsGroup: true}}
	g, ok := d.ResolveByName(context.Background(), "нова", true)
	if !ok || g.ID != 5 {
		t.Fatalf("expected refresh-and-retry to find the group, got %+v %v", g, ok)
	}
	if client.refreshes != 1 {
		t.Fatalf("expected exactly one refresh, got %d", client.refreshes)
	}
}

func TestSendStaleReferenceHeals(t *testing.T) {
	client := &fakeClient{
		dialogs: []Dialog{{ID: 9, Name: "Комірники", IsGroup: true}},
		sendErr: errors.New("telegram: CHANNEL_INVALID (400)"),
	}
	d := newTestDirectory(client)
	if _, err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	before := client.refreshes

	err := d.Send(context.Background(), "Комірники", "привіт")
	if err == nil || !strings.Contains(err.Error(), "CHANNEL_INVALID") {
		t.Fatalf("original error must surface, got %v", err)
	}
	if client.refreshes != before+1 {
		t.Fatalf("expected one healing refresh, got %d extra", client.refreshes-before)
	}
}

func TestSendNonStaleDoesNotRefresh(t *testing.T) {
	client := &fakeClient{
		dialogs: []Dialog{{ID: 9, Name: "Комірники", IsGroup: true}},
		sendErr: errors.New("telegram: message is too long (400)"),
	}
	d := newTestDirectory(client)
	if _, err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	before := client.refreshes

	if err := d.Send(context.Background(), "Комірники", "привіт"); err == nil {
		t.Fatalf("expected send failure")
	}
	if client.refreshes != before {
		t.Fatalf("non-stale failure must not refresh")
	}
}

func TestStats(t *testing.T) {
	client := &fakeClient{dialogs: []Dialog{
		{ID: 1, Name: "А", IsGroup: true},
		{ID: 2, Name: "Б", IsGroup: true},
	}}
	d := newTestDirectory(client)
	ctx := context.Background()
	if _, err := d.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	client.dialogs[0].ID = 11
	if _, err := d.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	st := d.Stats()
	if st.TotalKnown != 2 || st.Available != 2 || st.WithHistory != 1 || !st.Connected {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.LastRefresh.IsZero() {
		t.Fatalf("expected last refresh timestamp")
	}
}
