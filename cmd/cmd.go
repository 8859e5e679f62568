// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/ccm/internal/models"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output JSON"}
}

func idArg(name string) cli.Argument {
	return &cli.StringArg{Name: name}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to write",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the client/contact HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides server.port)",
			},
			&cli.BoolFlag{
				Name:  "transactional",
				Usage: "Persist both sides of a link in one transaction",
			},
		},
		Action: r.Serve,
	}
}

// clientCommand handles client operations
func clientCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "client",
		Aliases: []string{"clients"},
		Usage:   "Client operations",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a client with a generated client code",
				ArgsUsage: "<name>",
				Arguments: []cli.Argument{idArg("name")},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ClientCreate,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List clients ordered by name",
				Flags: []cli.Flag{
					jsonFlag(),
					&cli.BoolFlag{
						Name:  "saved",
						Usage: "Only saved clients (--saved=false for unsaved)",
					},
				},
				Action: r.ClientList,
			},
			{
				Name:      "show",
				Usage:     "Show a client",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{idArg("id")},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ClientShow,
			},
			{
				Name:      "save",
				Usage:     "Mark a client as saved",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{idArg("id")},
				Action:    r.ClientSave,
			},
			{
				Name:      "contacts",
				Usage:     "List contacts linked to a client",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{idArg("id")},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ClientContacts,
			},
			{
				Name:      "link",
				Usage:     "Link a contact to a client",
				ArgsUsage: "<id> <contact>",
				Arguments: []cli.Argument{idArg("id"), idArg("contact")},
				Action:    r.ClientLink,
			},
			{
				Name:      "unlink",
				Usage:     "Unlink a contact from a client",
				ArgsUsage: "<id> <contact>",
				Arguments: []cli.Argument{idArg("id"), idArg("contact")},
				Action:    r.ClientUnlink,
			},
			{
				Name:  "export",
				Usage: "Export clients with their contacts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, md, txt or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file stem (directory for md)",
					},
				},
				Action: r.ClientExport,
			},
		},
	}
}

// contactCommand handles contact operations
func contactCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "contact",
		Aliases: []string{"contacts"},
		Usage:   "Contact operations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a contact",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "First name", Required: true},
					&cli.StringFlag{Name: "surname", Usage: "Surname", Required: true},
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					jsonFlag(),
				},
				Action: r.ContactCreate,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List contacts ordered by surname",
				Flags:   []cli.Flag{jsonFlag()},
				Action:  r.ContactList,
			},
			{
				Name:      "show",
				Usage:     "Show a contact",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{idArg("id")},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ContactShow,
			},
			{
				Name:      "clients",
				Usage:     "List clients linked to a contact",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{idArg("id")},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ContactClients,
			},
			{
				Name:      "link",
				Usage:     "Link a client to a contact",
				ArgsUsage: "<id> <client>",
				Arguments: []cli.Argument{idArg("id"), idArg("client")},
				Action:    r.ContactLink,
			},
			{
				Name:      "unlink",
				Usage:     "Unlink a client from a contact",
				ArgsUsage: "<id> <client>",
				Arguments: []cli.Argument{idArg("id"), idArg("client")},
				Action:    r.ContactUnlink,
			},
		},
	}
}

// linksCommand audits and repairs half-linked pairs
func linksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "links",
		Usage: "Check client/contact link symmetry",
		Commands: []*cli.Command{
			{
				Name:   "audit",
				Usage:  "List pairs recorded on only one side",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.LinksAudit,
			},
			{
				Name:   "repair",
				Usage:  "Repair pairs recorded on only one side (client side wins)",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.LinksRepair,
			},
		},
	}
}

// counterCommand inspects and seeds named counters
func counterCommand(r *Runner) *cli.Command {
	nameFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "name", Usage: "Counter name", Value: models.ClientCodeCounter}
	}

	return &cli.Command{
		Name:  "counter",
		Usage: "Inspect and seed sequence counters",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show a counter's current value",
				Flags:  []cli.Flag{nameFlag(), jsonFlag()},
				Action: r.CounterShow,
			},
			{
				Name:      "set",
				Usage:     "Set a counter's current value",
				ArgsUsage: "<value>",
				Arguments: []cli.Argument{idArg("value")},
				Flags:     []cli.Flag{nameFlag()},
				Action:    r.CounterSet,
			},
		},
	}
}

// apiCommand makes raw requests against a running server
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to a running ccm server",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the JSON response",
				ArgsUsage: "<path>",
				Arguments: []cli.Argument{idArg("path")},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "compact",
						Usage: "Print compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				ArgsUsage: "<path>",
				Arguments: []cli.Argument{idArg("path")},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:      "put",
				Usage:     "Direct PUT with an optional JSON body",
				ArgsUsage: "<path>",
				Arguments: []cli.Argument{idArg("path")},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
					},
				},
				Action: r.APIPut,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive client browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive client browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/ccm-tui.log",
			},
		},
		Action: r.TUI,
	}
}
