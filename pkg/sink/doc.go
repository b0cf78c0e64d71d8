// Package sink persists looked-up records to an xlsx workbook.
package sink
