package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgClientsFetched MsgKind = iota
	MsgContactsFetched
	MsgClientSaved
	MsgContactUnlinked
	MsgProgressUpdate
	MsgRepairComplete
)

type clientsFetched struct {
	clients []*models.Client
	err     error
}

type contactsFetched struct {
	client   *models.Client
	contacts []*models.Contact
	err      error
}

type clientSaved struct {
	client *models.Client
	err    error
}

type contactUnlinked struct {
	contact *models.Contact
	err     error
}

type repairComplete struct {
	result *tasks.RepairResult
	err    error
}

// clientsFetchedMsg is the constructor for [MsgClientsFetched]
func clientsFetchedMsg(clients []*models.Client, err error) Msg {
	return Msg{kind: MsgClientsFetched, data: clientsFetched{clients, err}}
}

// contactsFetchedMsg is the constructor for [MsgContactsFetched]
func contactsFetchedMsg(client *models.Client, contacts []*models.Contact, err error) Msg {
	return Msg{kind: MsgContactsFetched, data: contactsFetched{client, contacts, err}}
}

// clientSavedMsg is the constructor for [MsgClientSaved]
func clientSavedMsg(client *models.Client, err error) Msg {
	return Msg{kind: MsgClientSaved, data: clientSaved{client, err}}
}

// contactUnlinkedMsg is the constructor for [MsgContactUnlinked]
func contactUnlinkedMsg(contact *models.Contact, err error) Msg {
	return Msg{kind: MsgContactUnlinked, data: contactUnlinked{contact, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// repairCompleteMsg is the constructor for [MsgRepairComplete]
func repairCompleteMsg(result *tasks.RepairResult, err error) Msg {
	return Msg{kind: MsgRepairComplete, data: repairComplete{result, err}}
}
