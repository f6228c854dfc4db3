package state

import (
	"sync"
	"testing"
)

type session struct {
	Step    string
	Answers []string
}

func TestStoreGetSetDelete(t *testing.T) {
	s := New[session]()

	if s.Get(1) != nil {
		t.Fatalf("expected nil for unknown user")
	}
	if s.Has(1) {
		t.Fatalf("expected Has=false for unknown user")
	}

	s.Set(1, &session{Step: "start"})
	got := s.Get(1)
	if got == nil || got.Step != "start" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if !s.Has(1) || s.Len() != 1 {
		t.Fatalf("expected one active entry")
	}

	s.Delete(1)
	if s.Get(1) != nil || s.Len() != 0 {
		t.Fatalf("expected entry removed")
	}
}

func TestStoreUpdate(t *testing.T) {
	s := New[session]()

	s.Update(7, func(cur *session) *session {
		if cur != nil {
			t.Fatalf("expected nil current for new user")
		}
		return &session{Step: "q1"}
	})
	if got := s.Get(7); got == nil || got.Step != "q1" {
		t.Fatalf("unexpected session after create: %+v", got)
	}

	s.Update(7, func(cur *session) *session {
		cur.Answers = append(cur.Answers, "yes")
		return cur
	})
	if got := s.Get(7); len(got.Answers) != 1 {
		t.Fatalf("expected appended answer, got %+v", got)
	}

	s.Update(7, func(cur *session) *session { return nil })
	if s.Has(7) {
		t.Fatalf("expected nil return to remove entry")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New[session]()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, &session{Step: "start"})
			s.Update(id, func(cur *session) *session {
				cur.Step = "done"
				return cur
			})
		}(int64(i))
	}
	wg.Wait()
	if s.Len() != 32 {
		t.Fatalf("expected 32 entries, got %d", s.Len())
	}
}
