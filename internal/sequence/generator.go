package sequence

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Business ID prefixes. The persisted format is PREFIX-YYYY-NNNN and the
// sequence restarts each year per prefix.
const (
	PrefixCAPA          = "CAPA"
	PrefixChangeControl = "CC"
	PrefixDeviation     = "DEV"
	PrefixDocument      = "DOC"
	PrefixHazard        = "HAZ"
	PrefixFMEA          = "FMEA"
	PrefixAuditFinding  = "AF"
	PrefixComplaint     = "CMP"
)

const maxAttempts = 5

// Generator assigns year-scoped sequential business IDs. Uniqueness is
// guaranteed by the unique index on each ID column: the computed max+1 is
// only a candidate, and a concurrent collision surfaces as a duplicate-key
// error on insert, which triggers a recompute and retry.
type Generator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGenerator creates an ID generator.
func NewGenerator(db *gorm.DB) *Generator {
	return &Generator{db: db, now: time.Now}
}

// WithClock replaces the generator clock. Used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Peek computes the next candidate ID for a prefix without reserving it.
func (g *Generator) Peek(table, column, prefix string) string {
	return g.next(g.db, table, column, prefix, g.now().Year())
}

// CreateWithID assigns a fresh business ID via the callback and inserts the
// record, retrying with a recomputed sequence when a concurrent creation
// claimed the same ID first.
func (g *Generator) CreateWithID(db *gorm.DB, rec interface{}, table, column, prefix string, assign func(id string)) error {
	year := g.now().Year()
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		assign(g.next(db, table, column, prefix, year))
		err := db.Create(rec).Error
		if err == nil {
			return nil
		}
		if !isDuplicate(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("could not reserve a unique %s id after %d attempts: %w", prefix, maxAttempts, lastErr)
}

func (g *Generator) next(db *gorm.DB, table, column, prefix string, year int) string {
	var current sql.NullString
	db.Table(table).
		Select("MAX("+column+")").
		Where(column+" LIKE ?", fmt.Sprintf("%s-%d-%%", prefix, year)).
		Scan(&current)

	seq := 1
	if current.Valid && current.String != "" {
		if idx := strings.LastIndex(current.String, "-"); idx >= 0 {
			if n, err := strconv.Atoi(current.String[idx+1:]); err == nil {
				seq = n + 1
			}
		}
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
