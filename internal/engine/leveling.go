package engine

import "math"

// DefaultLevelBase is the multiplier in the triangular level curve:
// total XP required for level N is base * N * (N+1) / 2. The base lives in
// configuration because the requirement history shows churn on the formula;
// swapping the curve must not require code edits.
const DefaultLevelBase = 100

type LevelCurve struct {
	Base int
}

func DefaultLevelCurve() LevelCurve {
	return LevelCurve{Base: DefaultLevelBase}
}

// ThresholdForLevel returns the cumulative XP required to reach the given
// level. Level 0 requires 0 XP.
func (c LevelCurve) ThresholdForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	return c.Base * level * (level + 1) / 2
}

// LevelInfo is the derived leveling state for a cumulative XP total.
type LevelInfo struct {
	Level       int
	XPIntoLevel int
	XPToNext    int
}

// LevelForXP returns the highest level whose threshold is <= totalXP,
// clamped at 0 for totals below the first threshold (negative grants can
// push a total below zero). The closed-form quadratic inverse keeps this
// O(1); it is evaluated on every dashboard render.
func (c LevelCurve) LevelForXP(totalXP int) LevelInfo {
	level := 0
	if totalXP >= c.Base {
		// threshold(n) <= x  <=>  n <= (-1 + sqrt(1 + 8x/base)) / 2
		level = int((math.Sqrt(1+8*float64(totalXP)/float64(c.Base)) - 1) / 2)
		// Guard against float rounding on exact thresholds.
		for c.ThresholdForLevel(level+1) <= totalXP {
			level++
		}
		for level > 0 && c.ThresholdForLevel(level) > totalXP {
			level--
		}
	}

	into := totalXP - c.ThresholdForLevel(level)
	if into < 0 {
		into = 0
	}
	return LevelInfo{
		Level:       level,
		XPIntoLevel: into,
		XPToNext:    c.ThresholdForLevel(level+1) - totalXP,
	}
}
