package luck

import (
	"errors"
	"fmt"
)

// ScopeKind selects which records an analytics query covers.
type ScopeKind string

const (
	ScopeGlobal     ScopeKind = "global"
	ScopeEntity     ScopeKind = "entity"
	ScopeCollection ScopeKind = "collection"
)

// ErrScopeIDRequired is returned when an entity or collection scope is built
// without a positive ID.
var ErrScopeIDRequired = errors.New("scope id is required")

// Scope restricts a record set to one entity, one collection, or nothing.
type Scope struct {
	Kind ScopeKind
	ID   int64
}

// Global returns the unscoped Scope.
func Global() Scope {
	return Scope{Kind: ScopeGlobal}
}

// ForEntity scopes to a single entity.
//
// Precondition: id > 0, otherwise ErrScopeIDRequired is returned.
func ForEntity(id int64) (Scope, error) {
	if id <= 0 {
		return Scope{}, fmt.Errorf("entity %w", ErrScopeIDRequired)
	}
	return Scope{Kind: ScopeEntity, ID: id}, nil
}

// ForCollection scopes to a single collection.
//
// Precondition: id > 0, otherwise ErrScopeIDRequired is returned.
func ForCollection(id int64) (Scope, error) {
	if id <= 0 {
		return Scope{}, fmt.Errorf("collection %w", ErrScopeIDRequired)
	}
	return Scope{Kind: ScopeCollection, ID: id}, nil
}

// Matches reports whether rec falls inside s.
func (s Scope) Matches(rec Record) bool {
	switch s.Kind {
	case ScopeEntity:
		return rec.EntityID == s.ID
	case ScopeCollection:
		return rec.CollectionID == s.ID
	default:
		return true
	}
}

// Filter returns the records inside s, preserving order.
func (s Scope) Filter(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if s.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// String returns e.g. "global", "entity 3" or "collection 7".
func (s Scope) String() string {
	if s.Kind == ScopeGlobal || s.Kind == "" {
		return string(ScopeGlobal)
	}
	return fmt.Sprintf("%s %d", s.Kind, s.ID)
}
