package database

import (
	"errors"
	"time"

	"snapfeed/internal/observability"

	"gorm.io/gorm"
)

const queryStartKey = "snapfeed:query_start"

// QueryObserver receives one call per executed statement.
type QueryObserver func(operation, table string, start time.Time)

// QueryMetricsPlugin times every statement gorm sends to the database and
// reports it to Observe, or to the Prometheus query collectors when Observe is
// nil. Statements built in DryRun mode, such as subqueries passed to Table or
// Where, never reach the database and are not observed.
type QueryMetricsPlugin struct {
	Observe QueryObserver
}

// Name implements gorm.Plugin.
func (QueryMetricsPlugin) Name() string {
	return "snapfeed:query_metrics"
}

// Initialize implements gorm.Plugin.
func (p QueryMetricsPlugin) Initialize(db *gorm.DB) error {
	observe := p.Observe
	if observe == nil {
		observe = observability.ObserveQuery
	}

	before := func(tx *gorm.DB) {
		if tx.DryRun {
			return
		}
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			if tx.DryRun {
				return
			}
			start, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "raw"
			}
			observe(operation, table, start.(time.Time))
		}
	}

	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("metrics:before_create", before),
		cb.Create().After("gorm:create").Register("metrics:after_create", after("create")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", before),
		cb.Query().After("gorm:query").Register("metrics:after_query", after("select")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", before),
		cb.Update().After("gorm:update").Register("metrics:after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete")),
		cb.Row().Before("gorm:row").Register("metrics:before_row", before),
		cb.Row().After("gorm:row").Register("metrics:after_row", after("row")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("exec")),
	)
}
