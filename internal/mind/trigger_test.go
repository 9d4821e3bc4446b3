package mind

import "testing"

func TestShouldDaydream(t *testing.T) {
	tests := []struct {
		userTurns int64
		want      bool
	}{
		{0, false},
		{1, false},
		{9, false},
		{10, true},
		{11, false},
		{20, true},
		{100, true},
	}

	for _, tt := range tests {
		if got := ShouldDaydream(tt.userTurns); got != tt.want {
			t.Errorf("ShouldDaydream(%d) = %v, want %v", tt.userTurns, got, tt.want)
		}
	}
}

func TestShouldDream(t *testing.T) {
	tests := []struct {
		snapshots int64
		want      bool
	}{
		{0, false},
		{4, false},
		{5, true},
		{9, false},
		{10, true},
		{11, false},
	}

	for _, tt := range tests {
		if got := ShouldDream(tt.snapshots); got != tt.want {
			t.Errorf("ShouldDream(%d) = %v, want %v", tt.snapshots, got, tt.want)
		}
	}
}

// One daydream fires per DaydreamInterval user turns, with no extra state.
func TestDaydreamFiresOncePerInterval(t *testing.T) {
	fired := 0
	for u := int64(1); u <= 100; u++ {
		if ShouldDaydream(u) {
			fired++
		}
	}
	if fired != 100/DaydreamInterval {
		t.Errorf("Expected %d daydreams over 100 turns, got %d", 100/DaydreamInterval, fired)
	}
}
