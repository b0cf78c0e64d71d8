// Package coordinator drives a lookup run.
//
// The account list is resumed from the saved checkpoint, split into
// contiguous batches and processed one batch at a time: the batch is fanned
// out to a fixed worker pool, the successful records are appended to the
// sink, and the coordinator pauses before the next batch. The checkpoint
// advances as individual queries finish and is removed when the whole list
// has been processed.
package coordinator
