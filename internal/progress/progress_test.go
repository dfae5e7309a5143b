package progress

import (
	"testing"
	"time"
)

func TestPercentOrdering(t *testing.T) {
	stages := []Stage{StageExtract, StageScript, StageTTS, StageAssembly, StageComplete}
	for i := 1; i < len(stages); i++ {
		if Percent(stages[i]) <= Percent(stages[i-1]) {
			t.Errorf("Percent(%s) = %.2f, not greater than Percent(%s) = %.2f",
				stages[i], Percent(stages[i]), stages[i-1], Percent(stages[i-1]))
		}
	}
	if Percent(StageComplete) != 1.0 {
		t.Errorf("Percent(complete) = %.2f, want 1.0", Percent(StageComplete))
	}
}

func TestNewEvent(t *testing.T) {
	start := time.Now().Add(-2 * time.Second)
	e := NewEvent(StageScript, "generating", start)
	if e.Stage != StageScript || e.Message != "generating" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Percent != Percent(StageScript) {
		t.Errorf("Percent = %.2f, want %.2f", e.Percent, Percent(StageScript))
	}
	if e.Elapsed < 2*time.Second {
		t.Errorf("Elapsed = %s, want at least 2s", e.Elapsed)
	}
}
