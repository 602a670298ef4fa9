// Package exporter renders the analysis results into xlsx workbooks: the
// combined report with its raw, reconciliation, and customer-analysis sheets,
// and the per-department partitions of that report.
//
// All cell, style, merge, and width handling is isolated behind the Workbook
// type; the rest of the package deals in grids and presentation rows only.
// Blanking repeated rate-ticket fields happens here, after aggregation is
// final, so display rules can never change the underlying totals.
package exporter
