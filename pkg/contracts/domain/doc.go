// Package domain holds the types shared by every layer of the pipeline:
// raw indicator tables, reshaped long-format tables, the canonical table and
// the run records produced by the operations manager.
package domain
