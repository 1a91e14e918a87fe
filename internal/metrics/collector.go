package metrics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// phaseCounter counts workflow records per phase for one entity table.
type phaseCounter struct {
	entity string
	table  string
}

var phaseCounters = []phaseCounter{
	{entity: "capa", table: "capas"},
	{entity: "change_control", table: "change_controls"},
	{entity: "deviation", table: "deviations"},
	{entity: "document", table: "documents"},
}

// Collector periodically refreshes the database and per-phase gauges.
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector creates a metrics collector.
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start launches the background collection loop.
func (c *Collector) Start() {
	go c.collect()
}

// Stop terminates the loop and waits for it to finish.
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			c.refreshPhaseGauges()
		}
	}
}

func (c *Collector) refreshPhaseGauges() {
	type row struct {
		CurrentPhase string
		Count        int64
	}
	for _, pc := range phaseCounters {
		var rows []row
		err := c.db.Table(pc.table).
			Select("current_phase, COUNT(*) AS count").
			Group("current_phase").
			Scan(&rows).Error
		if err != nil {
			continue
		}
		for _, r := range rows {
			UpdateRecordsByPhase(pc.entity, r.CurrentPhase, float64(r.Count))
		}
	}
}
