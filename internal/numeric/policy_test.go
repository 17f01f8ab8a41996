package numeric

import (
	"errors"
	"math"
	"testing"
)

func TestInstallRestores(t *testing.T) {
	if Current().Invalid != Ignore {
		t.Fatal("default policy must ignore invalid")
	}

	restore := Install(StepPolicy())
	if Current().Invalid != Raise {
		t.Error("step policy not installed")
	}

	inner := Install(Policy{})
	if Current().Invalid != Ignore {
		t.Error("nested install")
	}
	inner()
	if Current().Invalid != Raise {
		t.Error("inner restore must reinstate the step policy")
	}

	restore()
	if Current().Invalid != Ignore {
		t.Error("outer restore must reinstate the default policy")
	}
}

func TestDiv(t *testing.T) {
	restore := Install(StepPolicy())
	defer restore()

	tests := []struct {
		name    string
		x, y    float64
		want    float64
		wantErr bool
	}{
		{"plain", 6, 3, 2, false},
		{"divide by zero", 1, 0, math.Inf(1), false},
		{"negative by zero", -1, 0, math.Inf(-1), false},
		{"zero by zero", 0, 0, 0, true},
		{"nan by zero", math.NaN(), 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Div(tt.x, tt.y)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("want ErrInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Div(%g, %g) = %g, want %g", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestDivIgnoresWhenNotRaising(t *testing.T) {
	got, err := Div(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(got) {
		t.Errorf("0/0 under ignore = %g, want NaN", got)
	}
}

func TestFresh(t *testing.T) {
	restore := Install(StepPolicy())
	defer restore()

	if err := Fresh(1.5, 2, 3); err != nil {
		t.Errorf("finite result: %v", err)
	}
	if err := Fresh(math.NaN(), 2, 3); !errors.Is(err, ErrInvalid) {
		t.Errorf("fresh NaN must raise, got %v", err)
	}
	if err := Fresh(math.NaN(), math.NaN(), 3); err != nil {
		t.Errorf("propagated NaN must not re-raise: %v", err)
	}
	if err := Fresh(math.Inf(1), 2, 0); err != nil {
		t.Errorf("infinity is silent degradation, not a fault: %v", err)
	}
}
