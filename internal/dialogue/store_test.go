package dialogue

import (
	"sync"
	"testing"
	"time"
)

func TestStore_DefaultsToIdle(t *testing.T) {
	s := NewStore(time.Minute)

	state := s.Get("unknown-user")
	if state.Kind != Idle {
		t.Errorf("Get for unknown user = %v, want Idle", state.Kind)
	}
}

func TestStore_SetGetClear(t *testing.T) {
	s := NewStore(time.Minute)

	s.Set("U1", AwaitingNew())
	if got := s.Get("U1"); got.Kind != AwaitingNewValue {
		t.Errorf("after Set(AwaitingNew), Kind = %v, want AwaitingNewValue", got.Kind)
	}

	s.Set("U1", AwaitingEdit("2024-03-01", 2))
	got := s.Get("U1")
	if got.Kind != AwaitingEditValue || got.Date != "2024-03-01" || got.Index != 2 {
		t.Errorf("after Set(AwaitingEdit), got %+v", got)
	}

	s.Clear("U1")
	if got := s.Get("U1"); got.Kind != Idle {
		t.Errorf("after Clear, Kind = %v, want Idle", got.Kind)
	}
}

func TestStore_UsersAreIndependent(t *testing.T) {
	s := NewStore(time.Minute)

	s.Set("U1", AwaitingNew())
	s.Set("U2", AwaitingEdit("2024-03-01", 0))

	if got := s.Get("U1"); got.Kind != AwaitingNewValue {
		t.Errorf("U1 Kind = %v, want AwaitingNewValue", got.Kind)
	}
	if got := s.Get("U2"); got.Kind != AwaitingEditValue {
		t.Errorf("U2 Kind = %v, want AwaitingEditValue", got.Kind)
	}

	s.Clear("U1")
	if got := s.Get("U2"); got.Kind != AwaitingEditValue {
		t.Errorf("clearing U1 affected U2: %+v", got)
	}
}

func TestStore_Expiry(t *testing.T) {
	s := NewStore(20 * time.Millisecond)

	s.Set("U1", AwaitingNew())
	time.Sleep(50 * time.Millisecond)

	if got := s.Get("U1"); got.Kind != Idle {
		t.Errorf("state survived past TTL: %+v", got)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := string(rune('A' + n%8))
			s.Set(userID, AwaitingNew())
			_ = s.Get(userID)
			s.Clear(userID)
		}(i)
	}
	wg.Wait()
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Idle, "idle"},
		{AwaitingNewValue, "awaiting_new_value"},
		{AwaitingEditValue, "awaiting_edit_value"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
