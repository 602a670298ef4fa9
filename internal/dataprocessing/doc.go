// Package dataprocessing implements the analysis half of the pipeline: the
// subscription classifier, the reconciliation aggregator, and the customer
// summary builder.
//
// All three stages are pure transformations from an in-memory Table (read
// from an xlsx file) to structured results. Aggregation uses explicit
// composite-key grouping into insertion-ordered maps; monetary sums are
// decimal, rates become float64 only at finalize time. Presentation concerns
// such as blanking repeated rate-ticket fields live entirely in the exporter
// package, never here.
package dataprocessing
