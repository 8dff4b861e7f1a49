// Package observability provides structured logging and corpus health
// alerting for hooklens. Alerts are derived on demand from a load summary
// and a metrics snapshot; nothing is persisted.
package observability
