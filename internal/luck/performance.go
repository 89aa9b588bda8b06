package luck

import "time"

// RankedEntity names an entity and the score it was ranked by.
type RankedEntity struct {
	EntityID   int64   `json:"entity_id"`
	EntityName string  `json:"entity_name"`
	Score      float64 `json:"score"`
}

// CollectionPerformance summarizes the evaluator luck indices recorded in one
// collection.
type CollectionPerformance struct {
	CollectionID     int64        `json:"collection_id"`
	CollectionName   string       `json:"collection_name"`
	TotalRolls       int          `json:"total_rolls"`
	AverageLuckIndex float64      `json:"average_luck_index"`
	LowestRoll       int          `json:"lowest_roll"`
	HighestRoll      int          `json:"highest_roll"`
	Luckiest         RankedEntity `json:"luckiest"`
	LeastLucky       RankedEntity `json:"least_lucky"`
}

// DailyLuckRecord names the luckiest entity of a calendar day.
type DailyLuckRecord struct {
	Date           string  `json:"date"`
	EntityID       int64   `json:"entity_id"`
	EntityName     string  `json:"entity_name"`
	CollectionName string  `json:"collection_name"`
	LuckIndex      float64 `json:"luck_index"`
	TotalRolls     int     `json:"total_rolls"`
}

// eligible reports whether rec carries an entity and an evaluator luck index.
func eligible(rec *Record) bool {
	return rec.EntityID != 0 && rec.LuckIndex != nil
}

type meanAcc struct {
	id    int64
	name  string
	group string
	sum   float64
	n     int
}

func (m *meanAcc) mean() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// rankByMean accumulates luck indices per entity in first-seen order.
type rankByMean struct {
	order []*meanAcc
	byID  map[int64]*meanAcc
}

func newRankByMean() *rankByMean {
	return &rankByMean{byID: make(map[int64]*meanAcc)}
}

func (r *rankByMean) add(rec *Record) {
	acc := r.byID[rec.EntityID]
	if acc == nil {
		acc = &meanAcc{id: rec.EntityID, name: rec.EntityName, group: rec.CollectionName}
		r.byID[rec.EntityID] = acc
		r.order = append(r.order, acc)
	}
	acc.sum += *rec.LuckIndex
	acc.n++
}

// extremes returns the highest and lowest mean; ties go to the first seen.
func (r *rankByMean) extremes() (hi, lo *meanAcc) {
	for _, acc := range r.order {
		if hi == nil || acc.mean() > hi.mean() {
			hi = acc
		}
		if lo == nil || acc.mean() < lo.mean() {
			lo = acc
		}
	}
	return hi, lo
}

func ranked(acc *meanAcc) RankedEntity {
	return RankedEntity{EntityID: acc.id, EntityName: acc.name, Score: round4(acc.mean())}
}

// CollectionPerformance builds one summary per collection from records that
// have both an entity and an evaluator luck index. Luckiest and least lucky
// entities are ranked by their average luck index.
//
// Postcondition: collections appear in first-seen order; collections without
// eligible records are omitted.
func (d *Dataset) CollectionPerformance() []CollectionPerformance {
	type collAcc struct {
		perf  CollectionPerformance
		sum   float64
		ranks *rankByMean
	}
	var order []*collAcc
	byID := make(map[int64]*collAcc)

	for i := range d.records {
		rec := &d.records[i]
		if !eligible(rec) {
			continue
		}
		acc := byID[rec.CollectionID]
		if acc == nil {
			acc = &collAcc{
				perf: CollectionPerformance{
					CollectionID:   rec.CollectionID,
					CollectionName: rec.CollectionName,
					LowestRoll:     rec.FinalResult,
					HighestRoll:    rec.FinalResult,
				},
				ranks: newRankByMean(),
			}
			byID[rec.CollectionID] = acc
			order = append(order, acc)
		}
		acc.perf.TotalRolls++
		acc.sum += *rec.LuckIndex
		acc.perf.LowestRoll = min(acc.perf.LowestRoll, rec.FinalResult)
		acc.perf.HighestRoll = max(acc.perf.HighestRoll, rec.FinalResult)
		acc.ranks.add(rec)
	}

	out := make([]CollectionPerformance, 0, len(order))
	for _, acc := range order {
		acc.perf.AverageLuckIndex = round4(acc.sum / float64(acc.perf.TotalRolls))
		hi, lo := acc.ranks.extremes()
		acc.perf.Luckiest = ranked(hi)
		acc.perf.LeastLucky = ranked(lo)
		out = append(out, acc.perf)
	}
	return out
}

// DailyLuckiest returns the entity with the highest average evaluator luck
// index among records rolled on day's calendar date in loc. TotalRolls counts
// every record of the winner on that date, with or without a luck index.
// It reports false when no eligible record falls on that date.
//
// Precondition: loc must be non-nil.
func (d *Dataset) DailyLuckiest(day time.Time, loc *time.Location) (DailyLuckRecord, bool) {
	y, m, dd := day.In(loc).Date()
	sameDay := func(t time.Time) bool {
		ty, tm, td := t.In(loc).Date()
		return ty == y && tm == m && td == dd
	}

	ranks := newRankByMean()
	for i := range d.records {
		rec := &d.records[i]
		if eligible(rec) && sameDay(rec.RolledAt) {
			ranks.add(rec)
		}
	}
	hi, _ := ranks.extremes()
	if hi == nil {
		return DailyLuckRecord{}, false
	}

	total := 0
	for i := range d.records {
		rec := &d.records[i]
		if rec.EntityID == hi.id && sameDay(rec.RolledAt) {
			total++
		}
	}
	return DailyLuckRecord{
		Date:           time.Date(y, m, dd, 0, 0, 0, 0, loc).Format(time.DateOnly),
		EntityID:       hi.id,
		EntityName:     hi.name,
		CollectionName: hi.group,
		LuckIndex:      round4(hi.mean()),
		TotalRolls:     total,
	}, true
}
