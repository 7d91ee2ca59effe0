package metrics

import "testing"

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	if m.Value() != 0 {
		t.Error("empty metric should read 0")
	}
	m.Observe(0, 0, 0.5)
	m.Observe(1, 0, -0.5)
	if m.Value() != 0.5 {
		t.Errorf("expected mean 0.5, got %g", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("reset should clear the metric")
	}
}

func TestSettlingTime(t *testing.T) {
	m := NewSettlingTime(1.0)
	m.Observe(0, 10, 0)
	m.Observe(1, 0.5, 0)
	m.Observe(2, 0.2, 0)
	if m.Value() != 1 {
		t.Errorf("expected settling at t=1, got %g", m.Value())
	}

	// Leaving the band resets the settle point.
	m.Observe(3, 5, 0)
	if m.Value() != -1 {
		t.Errorf("expected unsettled after excursion, got %g", m.Value())
	}
	m.Observe(4, 0.1, 0)
	if m.Value() != 4 {
		t.Errorf("expected re-settling at t=4, got %g", m.Value())
	}
}

func TestNeverSettled(t *testing.T) {
	m := NewSettlingTime(1.0)
	m.Observe(0, 10, 0)
	if m.Value() != -1 {
		t.Errorf("expected -1 for a run that never settled, got %g", m.Value())
	}
}
