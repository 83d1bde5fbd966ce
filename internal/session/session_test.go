package session

import (
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	ts := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	id := NewID(ts)
	if id != "20240115_093000" {
		t.Errorf("NewID() = %q, want %q", id, "20240115_093000")
	}
	if err := ValidateID(id); err != nil {
		t.Errorf("ValidateID(NewID()) error = %v", err)
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid id", "20240115_093000", false},
		{"path traversal", "../../etc", true},
		{"dashed date", "2024-01-15", true},
		{"empty", "", true},
		{"too short", "2024011_093000", true},
		{"trailing garbage", "20240115_093000x", true},
		{"embedded separator", "20240115/093000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateRecording, StateStopping, StateMixing, StateTranscribing, StateSummarizing, StatePublishing} {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
	for _, s := range []State{StateCompleted, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}
}
