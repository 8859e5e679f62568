package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ccm/internal/models"
	"github.com/urfave/cli/v3"
)

// ContactCreate creates a contact from the --name, --surname and --email flags.
func (r *Runner) ContactCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	contact, err := r.contacts.Create(ctx, cmd.String("name"), cmd.String("surname"), cmd.String("email"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(contact, true)
	}
	return r.writePlain("✓ Created contact %s (%s)\n", contact.FullName(), contact.ID())
}

// ContactList lists contacts ordered by surname then name.
func (r *Runner) ContactList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	contacts, err := r.contacts.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if contacts == nil {
			contacts = []*models.Contact{}
		}
		return r.writeJSON(contacts, true)
	}

	if len(contacts) == 0 {
		return r.writePlain("No contact(s) found.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Contacts (%d)", len(contacts)))
	for _, c := range contacts {
		r.writeContact(c)
	}
	return nil
}

// ContactShow prints a single contact.
func (r *Runner) ContactShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	contact, err := r.contacts.Get(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(contact, true)
	}
	r.writeContact(contact)
	return nil
}

// ContactClients lists the clients linked to a contact.
func (r *Runner) ContactClients(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	clients, err := r.contacts.Clients(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(clients, true)
	}

	if len(clients) == 0 {
		return r.writePlain("No clients linked.\n")
	}
	for _, c := range clients {
		r.writeClient(c)
	}
	return nil
}

// ContactLink links a client to a contact.
func (r *Runner) ContactLink(ctx context.Context, cmd *cli.Command) error {
	return r.linkArgs(ctx, cmd, "client", "id", false, "Client linked to contact")
}

// ContactUnlink unlinks a client from a contact.
func (r *Runner) ContactUnlink(ctx context.Context, cmd *cli.Command) error {
	return r.linkArgs(ctx, cmd, "client", "id", true, "Client unlinked from contact")
}
