// Package directory looks accounts up in the Windows domain directory.
//
// A CommandSource runs `net user <name> /domain` (or any configured command)
// through a CommandRunner, bounds each call with a timeout, checks the output
// for the success marker and parses the labelled fields into a models.Record.
// Failed lookups return nil and are appended to a FailureLog, one line each.
package directory
