// Package luck derives roll statistics and luck metrics from previously
// evaluated rolls.
//
// Every operation is a read-only fold over a Dataset. Stored component data
// is decoded once, in Load; records whose data cannot be decoded are left out
// of component-based metrics and reported as Skips instead of failing the
// call. Figures are rounded only when returned: averages and sums to 2
// decimals, ratios and indices to 4.
package luck

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/rollkeeper/internal/dice"
)

// Skip is a non-fatal diagnostic for a record whose components could not be
// decoded.
type Skip struct {
	RecordID int64
	Err      error
}

// decodedRoll pairs a record with its canonical components.
type decodedRoll struct {
	record     *Record
	components []dice.Component
}

// Dataset is the decoded form of a record collection.
type Dataset struct {
	records []Record
	decoded []decodedRoll
	skips   []Skip
}

// Load decodes the components of every record exactly once.
//
// Postcondition: the returned Dataset is never nil; len(Skips()) is the number
// of records excluded from component-based metrics.
func Load(records []Record) *Dataset {
	ds := &Dataset{
		records: append([]Record(nil), records...),
		decoded: make([]decodedRoll, 0, len(records)),
	}
	for i := range ds.records {
		rec := &ds.records[i]
		comps, err := rec.Components.Decode()
		if err != nil {
			ds.skips = append(ds.skips, Skip{RecordID: rec.ID, Err: err})
			continue
		}
		ds.decoded = append(ds.decoded, decodedRoll{record: rec, components: comps})
	}
	return ds
}

// Len returns the number of records, including skipped ones.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Skips returns the decode diagnostics collected by Load.
func (d *Dataset) Skips() []Skip {
	return d.skips
}

// LogSkips logs each skip at warn level.
//
// Precondition: logger must be non-nil.
func LogSkips(logger *zap.Logger, skips []Skip) {
	for _, s := range skips {
		logger.Warn("skipping roll with undecodable components",
			zap.Int64("roll_id", s.RecordID),
			zap.Error(s.Err),
		)
	}
}

// diceComponents yields every dice component across all decoded records.
func (d *Dataset) diceComponents(yield func(*Record, dice.Component)) {
	for _, roll := range d.decoded {
		for _, c := range roll.components {
			if c.IsDice() {
				yield(roll.record, c)
			}
		}
	}
}
