package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/rollkeeper/internal/dice"
	"github.com/cory-johannsen/rollkeeper/internal/luck"
)

// ErrRollNotFound is returned when a roll lookup yields no results.
var ErrRollNotFound = errors.New("roll not found")

// RollRepository stores evaluated rolls and loads them back as luck records.
type RollRepository struct {
	db *pgxpool.Pool
}

// NewRollRepository creates a RollRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRollRepository(db *pgxpool.Pool) *RollRepository {
	return &RollRepository{db: db}
}

const selectRecord = `
	SELECT r.id,
	       COALESCE(r.entity_id, 0), COALESCE(e.name, ''),
	       COALESCE(c.id, 0), COALESCE(c.name, ''),
	       r.formula, r.final_result, r.luck_index, r.rolled_at, r.raw_dice_rolls
	FROM rolls r
	LEFT JOIN entities e ON e.id = r.entity_id
	LEFT JOIN collections c ON c.id = e.collection_id`

// Create persists an evaluated roll. An entityID of 0 stores a roll without
// an entity.
//
// Precondition: result must come from a successful evaluation.
// Postcondition: Returns the stored record, or ErrEntityNotFound when
// entityID does not exist.
func (r *RollRepository) Create(ctx context.Context, entityID int64, result dice.RollResult) (luck.Record, error) {
	components, err := json.Marshal(result.Components)
	if err != nil {
		return luck.Record{}, fmt.Errorf("encoding components: %w", err)
	}
	if len(result.Components) == 0 {
		components = []byte("[]")
	}

	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO rolls (entity_id, formula, final_result, luck_index, raw_dice_rolls)
		VALUES (NULLIF($1::bigint, 0), $2, $3, $4, $5::jsonb)
		RETURNING id`,
		entityID, result.FormulaNormalized, result.FinalResult, result.LuckIndex, string(components),
	).Scan(&id)
	if err != nil {
		if isForeignKeyError(err) {
			return luck.Record{}, ErrEntityNotFound
		}
		return luck.Record{}, fmt.Errorf("inserting roll: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID retrieves a roll by its primary key.
//
// Postcondition: Returns the record or ErrRollNotFound.
func (r *RollRepository) GetByID(ctx context.Context, id int64) (luck.Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, selectRecord+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return luck.Record{}, ErrRollNotFound
		}
		return luck.Record{}, fmt.Errorf("querying roll: %w", err)
	}
	return rec, nil
}

// List returns the rolls inside scope ordered by roll time. Component data is
// returned in its stored encoding; decoding is left to luck.Load.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *RollRepository) List(ctx context.Context, scope luck.Scope) ([]luck.Record, error) {
	query := selectRecord
	var args []any
	switch scope.Kind {
	case luck.ScopeEntity:
		query += ` WHERE r.entity_id = $1`
		args = append(args, scope.ID)
	case luck.ScopeCollection:
		query += ` WHERE e.collection_id = $1`
		args = append(args, scope.ID)
	}
	query += ` ORDER BY r.rolled_at ASC, r.id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rolls: %w", err)
	}
	defer rows.Close()

	out := make([]luck.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning roll row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (luck.Record, error) {
	var (
		rec luck.Record
		raw []byte
	)
	err := row.Scan(
		&rec.ID, &rec.EntityID, &rec.EntityName,
		&rec.CollectionID, &rec.CollectionName,
		&rec.Formula, &rec.FinalResult, &rec.LuckIndex, &rec.RolledAt, &raw,
	)
	if err != nil {
		return luck.Record{}, err
	}
	rec.Components = luck.EncodedBytes(raw)
	return rec, nil
}
