package vm

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"not started", StateNotStarted, "not-started"},
		{"starting", StateStarting, "starting"},
		{"running", StateRunning, "running"},
		{"stopped", StateStopped, "stopped"},
		{"failed", StateFailed, "failed"},
		{"unknown/invalid", State(99), "unknown"},
		{"negative", State(-1), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.state.String()
			if got != tt.want {
				t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestStateConstants(t *testing.T) {
	// Verify state constants have expected values (iota order)
	if StateNotStarted != 0 {
		t.Errorf("StateNotStarted = %d, want 0", StateNotStarted)
	}
	if StateStarting != 1 {
		t.Errorf("StateStarting = %d, want 1", StateStarting)
	}
	if StateRunning != 2 {
		t.Errorf("StateRunning = %d, want 2", StateRunning)
	}
	if StateStopped != 3 {
		t.Errorf("StateStopped = %d, want 3", StateStopped)
	}
	if StateFailed != 4 {
		t.Errorf("StateFailed = %d, want 4", StateFailed)
	}
}
