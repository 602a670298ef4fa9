// Package config provides centralized configuration management for the
// analyzer. It layers three sources, lowest to highest precedence:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML configuration file
//  3. SEAMARGIN_* environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern SEAMARGIN_* for namespacing:
//
//	SEAMARGIN_LOGGING_LEVEL=debug
//	SEAMARGIN_ANALYSIS_OUTPUT_PREFIX=低负毛利分析
//	SEAMARGIN_ANALYSIS_SPLIT_WORKERS=8
//
// # Column Roles
//
// The pipeline is not coupled to source column labels directly: every
// recognized column role (department, customer, contract price, margin flag,
// profit, revenue, business line, business month on the subscription side;
// legal department, customer, alias, indicator, amount, rate ticket, currency
// on the ledger side) is mapped to its deployment label in ColumnsConfig and
// validated once at ingestion.
//
// # Validation
//
// All configuration is validated at load time with go-playground/validator;
// a configuration with an empty column label, an unknown log level, or a
// non-positive worker count is rejected before the pipeline starts.
package config
