package sequence_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/madhukiran65/arni-medica-backend-sub001/internal/model"
	"github.com/madhukiran65/arni-medica-backend-sub001/internal/sequence"
)

func setupGeneratorDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&model.CAPA{}, &model.Deviation{})
	require.NoError(t, err)

	return db
}

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, 6, 15, 12, 0, 0, 0, time.UTC)
	}
}

func newCAPA(title string) *model.CAPA {
	return &model.CAPA{
		Title:          title,
		CurrentPhase:   model.CAPAPhaseInvestigation,
		PhaseEnteredAt: time.Now(),
		CreatedBy:      "alice",
	}
}

// TestGenerator_FirstID verifies the first ID of a year starts at 0001.
func TestGenerator_FirstID(t *testing.T) {
	db := setupGeneratorDB(t)
	gen := sequence.NewGenerator(db).WithClock(fixedClock(2026))

	capa := newCAPA("first")
	err := gen.CreateWithID(db, capa, "capas", "capa_id", sequence.PrefixCAPA, func(id string) {
		capa.CAPAID = id
	})
	require.NoError(t, err)
	assert.Equal(t, "CAPA-2026-0001", capa.CAPAID)
}

// TestGenerator_SequentialIDs verifies IDs increment within a year.
func TestGenerator_SequentialIDs(t *testing.T) {
	db := setupGeneratorDB(t)
	gen := sequence.NewGenerator(db).WithClock(fixedClock(2026))

	for i := 1; i <= 3; i++ {
		capa := newCAPA(fmt.Sprintf("capa %d", i))
		err := gen.CreateWithID(db, capa, "capas", "capa_id", sequence.PrefixCAPA, func(id string) {
			capa.CAPAID = id
		})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("CAPA-2026-%04d", i), capa.CAPAID)
	}
}

// TestGenerator_YearScoping verifies the sequence restarts each year.
func TestGenerator_YearScoping(t *testing.T) {
	db := setupGeneratorDB(t)

	gen := sequence.NewGenerator(db).WithClock(fixedClock(2025))
	capa := newCAPA("last year")
	err := gen.CreateWithID(db, capa, "capas", "capa_id", sequence.PrefixCAPA, func(id string) {
		capa.CAPAID = id
	})
	require.NoError(t, err)
	assert.Equal(t, "CAPA-2025-0001", capa.CAPAID)

	gen = sequence.NewGenerator(db).WithClock(fixedClock(2026))
	capa2 := newCAPA("this year")
	err = gen.CreateWithID(db, capa2, "capas", "capa_id", sequence.PrefixCAPA, func(id string) {
		capa2.CAPAID = id
	})
	require.NoError(t, err)
	assert.Equal(t, "CAPA-2026-0001", capa2.CAPAID)
}

// TestGenerator_PrefixIsolation verifies different entity prefixes do not
// disturb each other's sequences.
func TestGenerator_PrefixIsolation(t *testing.T) {
	db := setupGeneratorDB(t)
	gen := sequence.NewGenerator(db).WithClock(fixedClock(2026))

	capa := newCAPA("capa")
	err := gen.CreateWithID(db, capa, "capas", "capa_id", sequence.PrefixCAPA, func(id string) {
		capa.CAPAID = id
	})
	require.NoError(t, err)

	dev := &model.Deviation{
		Title:          "deviation",
		CurrentPhase:   model.DevStageOpened,
		PhaseEnteredAt: time.Now(),
		CreatedBy:      "bob",
	}
	err = gen.CreateWithID(db, dev, "deviations", "deviation_id", sequence.PrefixDeviation, func(id string) {
		dev.DeviationID = id
	})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2026-0001", dev.DeviationID)
}

// TestGenerator_Peek verifies Peek computes the next candidate without
// reserving it.
func TestGenerator_Peek(t *testing.T) {
	db := setupGeneratorDB(t)
	gen := sequence.NewGenerator(db).WithClock(fixedClock(2026))

	assert.Equal(t, "CAPA-2026-0001", gen.Peek("capas", "capa_id", sequence.PrefixCAPA))
	assert.Equal(t, "CAPA-2026-0001", gen.Peek("capas", "capa_id", sequence.PrefixCAPA))

	capa := newCAPA("reserved")
	err := gen.CreateWithID(db, capa, "capas", "capa_id", sequence.PrefixCAPA, func(id string) {
		capa.CAPAID = id
	})
	require.NoError(t, err)
	assert.Equal(t, "CAPA-2026-0002", gen.Peek("capas", "capa_id", sequence.PrefixCAPA))
}

// TestGenerator_SkipsClaimedID verifies the generator moves past an ID
// another writer already claimed.
func TestGenerator_SkipsClaimedID(t *testing.T) {
	db := setupGeneratorDB(t)
	gen := sequence.NewGenerator(db).WithClock(fixedClock(2026))

	// Claim CAPA-2026-0001 out of band, as a concurrent writer would.
	claimed := newCAPA("claimed")
	claimed.CAPAID = "CAPA-2026-0001"
	require.NoError(t, db.Create(claimed).Error)

	capa := newCAPA("retried")
	err := gen.CreateWithID(db, capa, "capas", "capa_id", sequence.PrefixCAPA, func(id string) {
		capa.CAPAID = id
	})
	require.NoError(t, err)
	assert.Equal(t, "CAPA-2026-0002", capa.CAPAID)
}
