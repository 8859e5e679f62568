package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/ccm/internal/formatter"
	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/shared"
	"github.com/urfave/cli/v3"
)

// ClientCreate creates a client and prints its generated code.
func (r *Runner) ClientCreate(ctx context.Context, cmd *cli.Command) error {
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	client, err := r.clients.Create(ctx, name)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(client, true)
	}
	return r.writePlain("✓ Created client %s (%s)\n", client.Code(), client.ID())
}

// ClientList lists clients ordered by name, optionally filtered by the saved flag.
func (r *Runner) ClientList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	clients, err := r.clients.List(ctx)
	if err != nil {
		return err
	}

	if cmd.IsSet("saved") {
		want := cmd.Bool("saved")
		filtered := clients[:0]
		for _, c := range clients {
			if c.IsSaved() == want {
				filtered = append(filtered, c)
			}
		}
		clients = filtered
	}

	if cmd.Bool("json") {
		if clients == nil {
			clients = []*models.Client{}
		}
		return r.writeJSON(clients, true)
	}

	if len(clients) == 0 {
		return r.writePlain("No client(s) found.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Clients (%d)", len(clients)))
	for _, c := range clients {
		r.writeClient(c)
	}
	return nil
}

// ClientShow prints a single client.
func (r *Runner) ClientShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	client, err := r.clients.Get(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(client, true)
	}
	r.writeClient(client)
	return nil
}

// ClientSave marks a client as saved.
func (r *Runner) ClientSave(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	client, err := r.clients.Save(ctx, id)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Client %s saved\n", client.Code())
}

// ClientContacts lists the contacts linked to a client.
func (r *Runner) ClientContacts(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	contacts, err := r.clients.Contacts(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(contacts, true)
	}

	if len(contacts) == 0 {
		return r.writePlain("No contacts linked.\n")
	}
	for _, c := range contacts {
		r.writeContact(c)
	}
	return nil
}

// ClientLink links a contact to a client.
func (r *Runner) ClientLink(ctx context.Context, cmd *cli.Command) error {
	return r.linkArgs(ctx, cmd, "id", "contact", false, "Contact linked to client")
}

// ClientUnlink unlinks a contact from a client.
func (r *Runner) ClientUnlink(ctx context.Context, cmd *cli.Command) error {
	return r.linkArgs(ctx, cmd, "id", "contact", true, "Contact unlinked from client")
}

// ClientExport writes every client with its contacts in the requested format.
func (r *Runner) ClientExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	if err := r.open(ctx); err != nil {
		return err
	}

	clients, err := r.clients.List(ctx)
	if err != nil {
		return err
	}

	exports := make([]formatter.ClientExport, 0, len(clients))
	for _, c := range clients {
		contacts, err := r.clients.Contacts(ctx, c.ID())
		if err != nil {
			return fmt.Errorf("failed to load contacts for %s: %w", c.Code(), err)
		}
		exports = append(exports, formatter.ClientExport{Client: c, Contacts: contacts})
	}

	path, err := formatter.Write(format, exports, output)
	if err != nil {
		return err
	}

	r.logger.Info("export complete", "format", format, "clients", len(exports), "path", path)
	return r.writePlain("✓ Exported %d clients to %s\n", len(exports), path)
}

// linkArgs reads the client and contact IDs from the named arguments and runs link or unlink.
func (r *Runner) linkArgs(ctx context.Context, cmd *cli.Command, clientArg, contactArg string, unlink bool, message string) error {
	clientID, err := requireArg(cmd, clientArg)
	if err != nil {
		return err
	}
	contactID, err := requireArg(cmd, contactArg)
	if err != nil {
		return err
	}
	if err := r.open(ctx); err != nil {
		return err
	}

	op := r.links.Link
	if unlink {
		op = r.links.Unlink
	}

	if err := op(ctx, clientID, contactID); err != nil {
		if errors.Is(err, shared.ErrPartialLink) {
			r.writePlain("! Only the client side was updated. Run 'ccm links repair' to restore symmetry.\n")
		}
		return err
	}
	return r.writePlain("✓ %s\n", message)
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: <%s>", shared.ErrMissingArgument, name)
	}
	return v, nil
}
