package repository

import "fmt"

// SchemaStatements returns the idempotent DDL for all tables, run at client
// init. ReplacingMergeTree tables collapse on their version column at merge
// time; readers use FINAL.
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.price_daily (
            symbol String,
            date DateTime,
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            volume Float64
        ) ENGINE = ReplacingMergeTree ORDER BY (symbol, date)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.holdings (
            region LowCardinality(String),
            symbol String,
            classification LowCardinality(String),
            tier UInt8,
            weight Float64,
            book_price Float64,
            quantity Float64,
            imported_at DateTime
        ) ENGINE = ReplacingMergeTree(imported_at) ORDER BY (region, symbol)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.earnings (
            symbol String,
            fiscal_year UInt16,
            fiscal_quarter UInt8,
            eps_actual Nullable(Float64),
            eps_estimate Nullable(Float64),
            revenue_actual Nullable(Float64),
            revenue_estimate Nullable(Float64),
            guidance LowCardinality(String),
            reaction_pct Float64,
            score UInt8,
            category LowCardinality(String),
            note String,
            updated_at DateTime
        ) ENGINE = ReplacingMergeTree(updated_at) ORDER BY (symbol, fiscal_year, fiscal_quarter)`, database),
	}
}
