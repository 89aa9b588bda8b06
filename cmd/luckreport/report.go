package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/rollkeeper/internal/luck"
)

// ReportParams carries the inputs of BuildReport that do not come from the
// dataset itself.
type ReportParams struct {
	ID          uuid.UUID
	GeneratedAt time.Time
	Scope       luck.Scope
	MinDice     int
	Day         time.Time
	Location    *time.Location
}

// Report is every analytics figure over one scoped dataset.
type Report struct {
	ID            uuid.UUID                    `json:"report_id"`
	GeneratedAt   time.Time                    `json:"generated_at"`
	Scope         string                       `json:"scope"`
	RecordCount   int                          `json:"record_count"`
	Skipped       int                          `json:"skipped"`
	ModifiedRolls luck.ModifiedRollMetrics     `json:"modified_rolls"`
	RawDice       luck.RawDiceAverages         `json:"raw_dice"`
	DiceTypes     []luck.DieTypeStat           `json:"dice_types"`
	OverallLuck   luck.OverallLuck             `json:"overall_luck"`
	Entities      []luck.EntityLuckRecord      `json:"entities"`
	Luckiest      *luck.EntityLuckRecord       `json:"luckiest"`
	LeastLucky    *luck.EntityLuckRecord       `json:"least_lucky"`
	Collections   []luck.CollectionPerformance `json:"collections"`
	DailyLuckiest *luck.DailyLuckRecord        `json:"daily_luckiest"`
	MinDiceRolled int                          `json:"min_dice_rolled"`
}

// BuildReport runs every analytics operation over ds.
//
// Precondition: p.Location must be non-nil.
func BuildReport(ds *luck.Dataset, p ReportParams) Report {
	r := Report{
		ID:            p.ID,
		GeneratedAt:   p.GeneratedAt,
		Scope:         p.Scope.String(),
		RecordCount:   ds.Len(),
		Skipped:       len(ds.Skips()),
		ModifiedRolls: ds.ModifiedRollMetrics(),
		RawDice:       ds.RawDiceAverages(),
		DiceTypes:     ds.DiceTypeAverages(),
		OverallLuck:   ds.OverallLuckIndex(),
		Entities:      ds.LuckDeltaByEntity(),
		Collections:   ds.CollectionPerformance(),
		MinDiceRolled: p.MinDice,
	}
	if e, ok := ds.LuckiestEntity(p.MinDice); ok {
		r.Luckiest = &e
	}
	if e, ok := ds.LeastLuckyEntity(p.MinDice); ok {
		r.LeastLucky = &e
	}
	if d, ok := ds.DailyLuckiest(p.Day, p.Location); ok {
		r.DailyLuckiest = &d
	}
	return r
}
