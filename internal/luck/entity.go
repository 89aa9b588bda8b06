package luck

import "github.com/cory-johannsen/rollkeeper/internal/dice"

// DefaultMinDiceRolled is the default significance threshold for
// LuckiestEntity and LeastLuckyEntity.
const DefaultMinDiceRolled = 1

// theoreticalFace is the expected face of the standard polyhedral dice.
// Other sizes contribute nothing to the theoretical sum.
var theoreticalFace = map[int]float64{
	4: 2.5, 6: 3.5, 8: 4.5, 10: 5.5, 12: 6.5, 20: 10.5, 100: 50.5,
}

// TheoreticalFace returns the expected face for a standard die size, or 0.
func TheoreticalFace(size int) float64 {
	return theoreticalFace[size]
}

// EntityLuckRecord compares an entity's actual dice sum with the sum expected
// from fair dice.
type EntityLuckRecord struct {
	EntityID            int64   `json:"entity_id"`
	EntityName          string  `json:"entity_name"`
	TotalRolls          int     `json:"total_rolls"`
	TotalRawDiceCount   int     `json:"total_raw_dice_count"`
	TotalRawSum         float64 `json:"total_raw_sum"`
	TotalTheoreticalSum float64 `json:"total_theoretical_sum"`
	LuckDelta           float64 `json:"luck_delta"`
	LuckDeltaRatio      float64 `json:"luck_delta_ratio"`

	theoretical float64
	ratio       float64
}

type entityAcc struct {
	id          int64
	name        string
	rolls       int
	dice        int
	raw         float64
	theoretical float64
}

// LuckDeltaByEntity aggregates dice components per entity.
//
// Records without an entity (EntityID == 0) are ignored. An entity with
// records but no dice reports zero delta and ratio.
// Postcondition: entries appear in the order their entity is first seen.
func (d *Dataset) LuckDeltaByEntity() []EntityLuckRecord {
	var order []*entityAcc
	byID := make(map[int64]*entityAcc)

	for _, roll := range d.decoded {
		rec := roll.record
		if rec.EntityID == 0 {
			continue
		}
		acc := byID[rec.EntityID]
		if acc == nil {
			acc = &entityAcc{id: rec.EntityID, name: rec.EntityName}
			byID[rec.EntityID] = acc
			order = append(order, acc)
		}
		acc.rolls++
		for _, c := range roll.components {
			if c.Kind != dice.KindDice || len(c.Rolls) == 0 {
				continue
			}
			size, ok := DieSize(c.Formula)
			if !ok {
				continue
			}
			for _, v := range c.Rolls {
				acc.raw += float64(v)
			}
			acc.theoretical += float64(len(c.Rolls)) * TheoreticalFace(size)
			acc.dice += len(c.Rolls)
		}
	}

	out := make([]EntityLuckRecord, 0, len(order))
	for _, acc := range order {
		var delta, ratio float64
		if acc.dice > 0 {
			delta = acc.raw - acc.theoretical
			if acc.theoretical > 0 {
				ratio = delta / acc.theoretical
			}
		}
		out = append(out, EntityLuckRecord{
			EntityID:            acc.id,
			EntityName:          acc.name,
			TotalRolls:          acc.rolls,
			TotalRawDiceCount:   acc.dice,
			TotalRawSum:         round2(acc.raw),
			TotalTheoreticalSum: round2(acc.theoretical),
			LuckDelta:           round4(delta),
			LuckDeltaRatio:      round4(ratio),
			theoretical:         acc.theoretical,
			ratio:               ratio,
		})
	}
	return out
}

// LuckiestEntity returns the entity with the highest luck delta ratio among
// those with at least minDiceRolled dice and a positive theoretical sum.
// Ties go to the entity seen first. It reports false when none qualifies.
func (d *Dataset) LuckiestEntity(minDiceRolled int) (EntityLuckRecord, bool) {
	return d.selectEntity(minDiceRolled, func(candidate, best float64) bool { return candidate > best })
}

// LeastLuckyEntity is LuckiestEntity with the lowest ratio winning.
func (d *Dataset) LeastLuckyEntity(minDiceRolled int) (EntityLuckRecord, bool) {
	return d.selectEntity(minDiceRolled, func(candidate, best float64) bool { return candidate < best })
}

func (d *Dataset) selectEntity(minDiceRolled int, better func(candidate, best float64) bool) (EntityLuckRecord, bool) {
	var (
		best  EntityLuckRecord
		found bool
	)
	for _, rec := range d.LuckDeltaByEntity() {
		if rec.TotalRawDiceCount < minDiceRolled || rec.theoretical <= 0 {
			continue
		}
		if !found || better(rec.ratio, best.ratio) {
			best, found = rec, true
		}
	}
	return best, found
}
