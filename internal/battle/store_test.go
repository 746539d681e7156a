package battle

import (
	"sync"
	"testing"
)

func TestStore_GetUpdateRemove(t *testing.T) {
	st := NewStore()

	if _, ok := st.Get("p1"); ok {
		t.Error("Get on empty store returned a session")
	}

	sess := NewSession("p1")
	sess.Status = StatusActive
	st.Update(sess)

	got, ok := st.Get("p1")
	if !ok {
		t.Fatal("snapshot missing after Update")
	}
	if got.ID != sess.ID || got.Status != StatusActive {
		t.Errorf("snapshot = %+v", got)
	}

	st.Remove("p1")
	if _, ok := st.Get("p1"); ok {
		t.Error("snapshot present after Remove")
	}
}

func TestStore_SnapshotsAreIsolated(t *testing.T) {
	st := NewStore()

	sess := NewSession("p1")
	sess.Questions = questionSet(2, 1)
	st.Update(sess)

	// Mutating the original must not leak into the stored snapshot.
	sess.PlayerScore = 99
	sess.Questions[0].Prompt = "mutated"

	got, _ := st.Get("p1")
	if got.PlayerScore != 0 {
		t.Error("stored snapshot shares the live session")
	}
	if got.Questions[0].Prompt == "mutated" {
		t.Error("stored snapshot shares the question slice")
	}

	// Mutating a returned copy must not affect later reads.
	got.OpponentScore = 5
	again, _ := st.Get("p1")
	if again.OpponentScore != 0 {
		t.Error("Get returns a shared copy")
	}
}

func TestStore_ActiveCount(t *testing.T) {
	st := NewStore()

	active := NewSession("p1")
	active.Status = StatusActive
	st.Update(active)

	done := NewSession("p2")
	done.Status = StatusCompleted
	st.Update(done)

	failed := NewSession("p3")
	failed.Status = StatusError
	st.Update(failed)

	if got := st.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount = %d, want 1", got)
	}
	if got := len(st.GetAll()); got != 3 {
		t.Errorf("GetAll = %d sessions, want 3", got)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	st := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sess := NewSession(id)
				sess.Status = StatusActive
				st.Update(sess)
				st.Get(id)
				st.GetAll()
				st.ActiveCount()
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()

	if got := st.ActiveCount(); got != 8 {
		t.Errorf("ActiveCount = %d, want 8", got)
	}
}
