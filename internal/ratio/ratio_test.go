package ratio

import "testing"

func TestMeetsPercentEdgeIsPass(t *testing.T) {
	if !MeetsPercent(55, 100, 55) {
		t.Error("exactly 55.0% against a 55% threshold must pass")
	}
	if MeetsPercent(54, 100, 55) {
		t.Error("54% against 55% must fail")
	}
	if !MeetsPercent(551, 1000, 55) {
		t.Error("55.1% against 55% must pass")
	}
}

func TestRoundHalfEven(t *testing.T) {
	cases := []struct {
		num, den int64
		want     int64
	}{
		{1, 2, 0},
		{3, 2, 2},
		{5, 2, 2},
		{7, 2, 4},
		{0, 2, 0},
		{-1, 2, 0},
		{-3, 2, -2},
	}
	for _, c := range cases {
		if got := RoundHalfEven(c.num, c.den); got != c.want {
			t.Errorf("RoundHalfEven(%d,%d) = %d, want %d", c.num, c.den, got, c.want)
		}
	}
}

func TestOneDecimalPercentTenths(t *testing.T) {
	if got := OneDecimalPercentTenths(55, 100); got != 550 {
		t.Errorf("got %d, want 550", got)
	}
	if got := OneDecimalPercentTenths(1, 3); got != 333 {
		t.Errorf("got %d, want 333", got)
	}
	if got := OneDecimalPercentTenths(2, 3); got != 667 {
		t.Errorf("got %d, want 667", got)
	}
}

func TestCompareOverflowSafe(t *testing.T) {
	big1 := Ratio{Num: 1 << 62, Den: 3}
	big2 := Ratio{Num: (1 << 62) + 1, Den: 3}
	if Compare(big1, big2) >= 0 {
		t.Error("expected big1 < big2")
	}
}

func TestGreaterOrEqual(t *testing.T) {
	if !GreaterOrEqual(Ratio{Num: 1, Den: 2}, Ratio{Num: 1, Den: 2}) {
		t.Error("equal ratios must satisfy >=")
	}
}
