// Package ui renders terminal output for the dp CLI.
//
// Components follow a "run once and exit" pattern: they render styled
// output with Lipgloss and return. The only animated component is the
// spinner shown while a network search is running, driven by Bubble Tea.
//
//   - Header: command banner with ordered parameters
//   - Result: success, failure or warning box
//   - Table: bordered table, used for interfaces and search results
//   - Spinner: runs a task while showing a spinner on a terminal
//
// Output that is not a terminal gets the same boxes without animation.
package ui
