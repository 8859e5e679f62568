// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing clients and their contacts:
//  1. [ClientListView] : Browse clients, save one, or start a link repair
//  2. [ContactListView] : Inspect the contacts linked to the selected client
//  3. [ConfirmView] : Confirm unlinking a contact from its client
//  4. [RepairView] : Monitor real-time progress of an audit/repair run
//  5. [ResultView] : Display repaired and failed pairs
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Repair progress flows through a channel from the [tasks.LinkCoordinator], providing non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
