// Package ui renders console output for adquery: colored status lines, a
// progress line that redraws in place on a terminal, and optional desktop
// notifications when a long run ends.
package ui
