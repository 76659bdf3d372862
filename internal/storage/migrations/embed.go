// Package migrations carries the schema for the observation and aggregate
// tables and applies it in lexical file order.
package migrations

import "embed"

// PostgresFS holds the observations and daily_aggregates schema files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the priced_observations timeseries schema file.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
