package session

import (
	"errors"
	"testing"

	"github.com/cjeanneret/BoothGo/internal/hw/camera"
	"github.com/cjeanneret/BoothGo/internal/logic/frame"
)

func TestAppend_GrowsByOneUpToThree(t *testing.T) {
	s := New(camera.NewDevice(camera.Pattern{}, camera.DefaultConstraints()))

	for i := 1; i <= ShotsPerStrip; i++ {
		if err := s.Append(frame.Still{Data: []byte{byte(i)}}); err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
		if s.Index() != i {
			t.Errorf("Index() = %d, want %d", s.Index(), i)
		}
	}
	if !s.Complete() {
		t.Error("session should be complete after 3 stills")
	}

	err := s.Append(frame.Still{})
	if !errors.Is(err, ErrFull) {
		t.Errorf("4th Append error = %v, want ErrFull", err)
	}
	if s.Index() != ShotsPerStrip {
		t.Errorf("Index() after rejected append = %d, want 3", s.Index())
	}
}

func TestStills_OrderAndCopy(t *testing.T) {
	s := New(nil)
	for i := 0; i < 3; i++ {
		_ = s.Append(frame.Still{Data: []byte{byte(i)}})
	}
	got := s.Stills()
	for i, st := range got {
		if st.Data[0] != byte(i) {
			t.Errorf("still %d data = %v, want [%d]", i, st.Data, i)
		}
	}
	got[0] = frame.Still{}
	if s.Stills()[0].Data == nil {
		t.Error("Stills() must return a copy")
	}
}

func TestReset_ClearsAndRenewsID(t *testing.T) {
	s := New(nil)
	_ = s.Append(frame.Still{})
	_ = s.Append(frame.Still{})
	before := s.ID()

	s.Reset()

	if s.Index() != 0 {
		t.Errorf("Index() after Reset = %d, want 0", s.Index())
	}
	if len(s.Stills()) != 0 {
		t.Errorf("Stills() after Reset has %d entries", len(s.Stills()))
	}
	if s.ID() == before {
		t.Error("Reset should start a new guest ID")
	}
}
