package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCollectionNotFound is returned when a collection lookup yields no results.
var ErrCollectionNotFound = errors.New("collection not found")

// ErrEntityNotFound is returned when an entity lookup yields no results.
var ErrEntityNotFound = errors.New("entity not found")

// Collection is a named group of entities, such as an adventuring party.
type Collection struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Entity is a roller, such as a player or non-player character. CollectionID
// is 0 when the entity belongs to no collection.
type Entity struct {
	ID           int64
	Name         string
	CollectionID int64
	CreatedAt    time.Time
}

// EntityRepository provides entity and collection persistence operations.
type EntityRepository struct {
	db *pgxpool.Pool
}

// NewEntityRepository creates an EntityRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEntityRepository(db *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{db: db}
}

// CreateCollection inserts a new collection.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the created collection with ID set.
func (r *EntityRepository) CreateCollection(ctx context.Context, name string) (*Collection, error) {
	var c Collection
	err := r.db.QueryRow(ctx, `
		INSERT INTO collections (name) VALUES ($1)
		RETURNING id, name, created_at`,
		name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting collection: %w", err)
	}
	return &c, nil
}

// GetCollection retrieves a collection by its primary key.
//
// Postcondition: Returns the Collection or ErrCollectionNotFound.
func (r *EntityRepository) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	var c Collection
	err := r.db.QueryRow(ctx, `
		SELECT id, name, created_at FROM collections WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	return &c, nil
}

// CreateEntity inserts a new entity. A collectionID of 0 leaves it ungrouped.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the created entity, or ErrCollectionNotFound when
// collectionID does not exist.
func (r *EntityRepository) CreateEntity(ctx context.Context, name string, collectionID int64) (*Entity, error) {
	var e Entity
	err := r.db.QueryRow(ctx, `
		INSERT INTO entities (name, collection_id) VALUES ($1, NULLIF($2::bigint, 0))
		RETURNING id, name, COALESCE(collection_id, 0), created_at`,
		name, collectionID,
	).Scan(&e.ID, &e.Name, &e.CollectionID, &e.CreatedAt)
	if err != nil {
		if isForeignKeyError(err) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("inserting entity: %w", err)
	}
	return &e, nil
}

// GetEntity retrieves an entity by its primary key.
//
// Postcondition: Returns the Entity or ErrEntityNotFound.
func (r *EntityRepository) GetEntity(ctx context.Context, id int64) (*Entity, error) {
	var e Entity
	err := r.db.QueryRow(ctx, `
		SELECT id, name, COALESCE(collection_id, 0), created_at
		FROM entities WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Name, &e.CollectionID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("querying entity: %w", err)
	}
	return &e, nil
}

// ListEntities returns every entity in the collection, ordered by ID.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *EntityRepository) ListEntities(ctx context.Context, collectionID int64) ([]*Entity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, COALESCE(collection_id, 0), created_at
		FROM entities WHERE collection_id = $1 ORDER BY id ASC`,
		collectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	out := make([]*Entity, 0)
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.CollectionID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning entity row: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// isForeignKeyError reports whether err is a PostgreSQL foreign_key_violation.
func isForeignKeyError(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23503"
	}
	return false
}
