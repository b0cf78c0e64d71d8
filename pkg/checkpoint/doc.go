// Package checkpoint persists the resume position of a run.
//
// The checkpoint is a single integer stored as plain text: the index into
// the full account list from which the next run should start. Tracker
// handles the file (atomic overwrite, load, clear); Recorder turns
// per-query completions into saved values under a Policy.
//
// Two policies exist. Watermark saves the end of the contiguous prefix of
// completed positions, so a crash never skips an account. CompletionOrder
// saves position+1 of whichever query finished last.
package checkpoint
