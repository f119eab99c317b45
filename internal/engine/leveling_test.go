package engine

import "testing"

func TestThresholdBoundaries(t *testing.T) {
	c := DefaultLevelCurve()

	if got := c.ThresholdForLevel(0); got != 0 {
		t.Fatalf("ThresholdForLevel(0)=%d, want 0", got)
	}
	if got := c.ThresholdForLevel(1); got != 100 {
		t.Fatalf("ThresholdForLevel(1)=%d, want 100", got)
	}
	if got := c.ThresholdForLevel(2); got != 300 {
		t.Fatalf("ThresholdForLevel(2)=%d, want 300", got)
	}
	if got := c.ThresholdForLevel(3); got != 600 {
		t.Fatalf("ThresholdForLevel(3)=%d, want 600", got)
	}

	for n := 1; n <= 50; n++ {
		th := c.ThresholdForLevel(n)
		if got := c.LevelForXP(th).Level; got != n {
			t.Fatalf("LevelForXP(threshold(%d))=%d, want %d", n, got, n)
		}
		if got := c.LevelForXP(th - 1).Level; got != n-1 {
			t.Fatalf("LevelForXP(threshold(%d)-1)=%d, want %d", n, got, n-1)
		}
	}
}

func TestLevelForXPProgress(t *testing.T) {
	c := DefaultLevelCurve()

	// 50 + 60 earned: level 1 with 10 into it, 190 until level 2.
	info := c.LevelForXP(110)
	if info.Level != 1 {
		t.Fatalf("level=%d, want 1", info.Level)
	}
	if info.XPIntoLevel != 10 {
		t.Fatalf("xp into level=%d, want 10", info.XPIntoLevel)
	}
	if info.XPToNext != 190 {
		t.Fatalf("xp to next=%d, want 190", info.XPToNext)
	}
}

func TestLevelClampsAtZero(t *testing.T) {
	c := DefaultLevelCurve()

	// A regression dropped the total back below the first threshold.
	info := c.LevelForXP(80)
	if info.Level != 0 {
		t.Fatalf("level=%d, want 0", info.Level)
	}
	if info.XPToNext != 20 {
		t.Fatalf("xp to next=%d, want 20", info.XPToNext)
	}

	// Totals can go negative outright; the level never does.
	neg := c.LevelForXP(-40)
	if neg.Level != 0 {
		t.Fatalf("level=%d, want 0 for negative total", neg.Level)
	}
	if neg.XPIntoLevel != 0 {
		t.Fatalf("xp into level=%d, want 0 for negative total", neg.XPIntoLevel)
	}
}

func TestCustomCurveBase(t *testing.T) {
	c := LevelCurve{Base: 10}

	if got := c.ThresholdForLevel(3); got != 60 {
		t.Fatalf("ThresholdForLevel(3)=%d, want 60", got)
	}
	if got := c.LevelForXP(60).Level; got != 3 {
		t.Fatalf("LevelForXP(60)=%d, want 3", got)
	}
	if got := c.LevelForXP(59).Level; got != 2 {
		t.Fatalf("LevelForXP(59)=%d, want 2", got)
	}
}
