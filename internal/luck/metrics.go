package luck

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/cory-johannsen/rollkeeper/internal/dice"
)

var dieSizePattern = regexp.MustCompile(`d(\d+)`)

// DieSize extracts the die size from a dice component formula, using the
// first "d<digits>" occurrence. It reports false when there is none.
func DieSize(formula string) (int, bool) {
	m := dieSizePattern.FindStringSubmatch(strings.ToLower(formula))
	if m == nil {
		return 0, false
	}
	size, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return size, true
}

func round(v float64, places int) float64 {
	r, err := stats.Round(v, places)
	if err != nil {
		return v
	}
	return r
}

func round2(v float64) float64 { return round(v, 2) }
func round4(v float64) float64 { return round(v, 4) }

// ModifiedRollMetrics summarizes final (modified) roll totals. Avg, Min and
// Max are nil when there are no records.
type ModifiedRollMetrics struct {
	TotalRolls int      `json:"total_rolls"`
	Avg        *float64 `json:"avg_modified_roll,omitempty"`
	Min        *int     `json:"min_modified_roll,omitempty"`
	Max        *int     `json:"max_modified_roll,omitempty"`
}

// ModifiedRollMetrics computes count, mean, min and max over every record's
// final result. Records skipped by Load still count, since only FinalResult
// is read.
func (d *Dataset) ModifiedRollMetrics() ModifiedRollMetrics {
	if len(d.records) == 0 {
		return ModifiedRollMetrics{}
	}
	values := make([]float64, len(d.records))
	for i, rec := range d.records {
		values[i] = float64(rec.FinalResult)
	}
	mean, _ := stats.Mean(values)
	lo, _ := stats.Min(values)
	hi, _ := stats.Max(values)

	avg := round2(mean)
	minV, maxV := int(lo), int(hi)
	return ModifiedRollMetrics{
		TotalRolls: len(d.records),
		Avg:        &avg,
		Min:        &minV,
		Max:        &maxV,
	}
}

// RawDiceAverages is the mean face over every die ever rolled.
type RawDiceAverages struct {
	AvgRawRoll        float64 `json:"avg_raw_roll"`
	TotalRawDiceCount int     `json:"total_raw_dice_count"`
}

// RawDiceAverages averages every individual face of every dice component,
// dropped dice included, regardless of die size.
func (d *Dataset) RawDiceAverages() RawDiceAverages {
	var total, count int
	d.diceComponents(func(_ *Record, c dice.Component) {
		for _, v := range c.Rolls {
			total += v
		}
		count += len(c.Rolls)
	})
	if count == 0 {
		return RawDiceAverages{}
	}
	return RawDiceAverages{
		AvgRawRoll:        round2(float64(total) / float64(count)),
		TotalRawDiceCount: count,
	}
}

// DieTypeStat aggregates every face rolled on one die size.
type DieTypeStat struct {
	DieSize            int     `json:"die_size"`
	AverageRoll        float64 `json:"average_roll"`
	TheoreticalAverage float64 `json:"theoretical_average"`
	RollCount          int     `json:"roll_count"`
	Sum                int     `json:"sum"`
	LuckIndex          float64 `json:"luck_index"`

	luck float64
}

// Label returns the conventional name of the die, e.g. "d20".
func (s DieTypeStat) Label() string {
	return fmt.Sprintf("d%d", s.DieSize)
}

// DiceTypeAverages groups dice faces by die size.
//
// Postcondition: entries are sorted ascending by DieSize; components without
// a die size in their formula or without rolls are ignored.
func (d *Dataset) DiceTypeAverages() []DieTypeStat {
	type acc struct{ sum, count int }
	bySize := make(map[int]*acc)
	d.diceComponents(func(_ *Record, c dice.Component) {
		size, ok := DieSize(c.Formula)
		if !ok || len(c.Rolls) == 0 {
			return
		}
		a := bySize[size]
		if a == nil {
			a = &acc{}
			bySize[size] = a
		}
		for _, v := range c.Rolls {
			a.sum += v
		}
		a.count += len(c.Rolls)
	})

	out := make([]DieTypeStat, 0, len(bySize))
	for size, a := range bySize {
		avg := float64(a.sum) / float64(a.count)
		theoretical := (float64(size) + 1) / 2
		luck := 0.0
		if theoretical > 0 {
			luck = avg / theoretical
		}
		out = append(out, DieTypeStat{
			DieSize:            size,
			AverageRoll:        round2(avg),
			TheoreticalAverage: round2(theoretical),
			RollCount:          a.count,
			Sum:                a.sum,
			LuckIndex:          round4(luck),
			luck:               luck,
		})
	}
	slices.SortFunc(out, func(a, b DieTypeStat) int { return cmp.Compare(a.DieSize, b.DieSize) })
	return out
}

// DiceTypeAveragesByLabel is DiceTypeAverages keyed by Label.
func (d *Dataset) DiceTypeAveragesByLabel() map[string]DieTypeStat {
	types := d.DiceTypeAverages()
	out := make(map[string]DieTypeStat, len(types))
	for _, s := range types {
		out[s.Label()] = s
	}
	return out
}

// OverallLuck is the roll-count weighted luck index across die sizes.
type OverallLuck struct {
	LuckIndex         float64 `json:"luck_index"`
	TotalRawDiceCount int     `json:"total_raw_dice_count"`
}

// OverallLuckIndex weights each die size's luck index by its roll count.
func (d *Dataset) OverallLuckIndex() OverallLuck {
	types := d.DiceTypeAverages()
	if len(types) == 0 {
		return OverallLuck{}
	}
	lucks := make([]float64, len(types))
	weights := make([]float64, len(types))
	count := 0
	for i, t := range types {
		lucks[i] = t.luck
		weights[i] = float64(t.RollCount)
		count += t.RollCount
	}
	if count == 0 {
		return OverallLuck{}
	}
	return OverallLuck{
		LuckIndex:         round4(stat.Mean(lucks, weights)),
		TotalRawDiceCount: count,
	}
}
