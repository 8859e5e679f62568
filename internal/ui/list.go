package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ccm/internal/models"
)

var (
	_ list.Item = clientItem{}
	_ list.Item = contactItem{}
)

// clientItem wraps [models.Client] to implement [list.Item].
type clientItem struct {
	client *models.Client
}

func (i clientItem) FilterValue() string { return i.client.Code() + " " + i.client.Name() }
func (i clientItem) Title() string       { return fmt.Sprintf("%s  %s", i.client.Code(), i.client.Name()) }
func (i clientItem) Description() string {
	desc := fmt.Sprintf("%d contacts", len(i.client.Contacts()))
	if i.client.IsSaved() {
		desc = fmt.Sprintf("%s • saved", desc)
	}
	return desc
}

// contactItem wraps [models.Contact] to implement [list.Item].
type contactItem struct {
	contact *models.Contact
}

func (i contactItem) FilterValue() string { return i.contact.FullName() }
func (i contactItem) Title() string       { return i.contact.FullName() }
func (i contactItem) Description() string { return i.contact.Email() }

func clientItems(clients []*models.Client) []list.Item {
	items := make([]list.Item, len(clients))
	for i, c := range clients {
		items[i] = clientItem{client: c}
	}
	return items
}

func contactItems(contacts []*models.Contact) []list.Item {
	items := make([]list.Item, len(contacts))
	for i, c := range contacts {
		items[i] = contactItem{contact: c}
	}
	return items
}
