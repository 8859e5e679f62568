package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ccm/internal/codes"
	"github.com/desertthunder/ccm/internal/models"
	"github.com/desertthunder/ccm/internal/repositories"
	"github.com/desertthunder/ccm/internal/services"
	"github.com/desertthunder/ccm/internal/shared"
	"github.com/desertthunder/ccm/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The store and the services built on it are opened lazily by [Runner.open], so commands that
// never touch the database (api, setup config) work without one.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	ownsDB     bool
	store      *repositories.Store
	clients    *services.ClientService
	contacts   *services.ContactService
	links      *tasks.LinkCoordinator
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB // Optional pre-opened database; the runner does not close it
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.API.BaseURL, opts.HTTPClient)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, clientCommand, contactCommand, linksCommand, counterCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the file named by --config, when it exists, and applies the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.SetConfig(config)
		}
	}

	level := r.config.Log.Level
	if cmd.IsSet("log-level") {
		level = cmd.String("log-level")
	}
	ll, err := shared.ParseLogLevel(level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, ll)
	return ctx, nil
}

// SetConfig replaces the configuration and the API client derived from it.
func (r *Runner) SetConfig(config *shared.Config) {
	r.config = config
	r.api = services.NewAPIService(config.API.BaseURL, r.httpClient)
}

// SetLogger replaces the logger used by the runner and everything it opens afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// open connects to the configured database, applies pending migrations and wires the services.
func (r *Runner) open(ctx context.Context) error {
	if r.store != nil {
		return nil
	}

	if r.db == nil {
		path := r.config.Database.Path
		r.logger.Debug("opening database", "path", path)

		db, err := shared.NewDatabase(path)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrConnectivity, err)
		}
		if path != ":memory:" {
			shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		}
		r.db = db
		r.ownsDB = true
	}

	if err := shared.RunMigrations(ctx, r.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.store = repositories.NewStore(r.db)

	var tx models.Transactor
	if r.config.Links.Transactional {
		tx = r.store
	}
	r.links = tasks.NewLinkCoordinator(r.store.Clients, r.store.Contacts, tx, shared.WithLogger(r.logger, "component", "links"))
	r.clients = services.NewClientService(r.store.Clients, r.store.Contacts, codes.NewGenerator(r.store.Counters), r.logger)
	r.contacts = services.NewContactService(r.store.Contacts, r.store.Clients, r.logger)
	return nil
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db, r.store, r.ownsDB = nil, nil, false
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

func (r *Runner) writeClient(c *models.Client) {
	saved := ""
	if c.IsSaved() {
		saved = " (saved)"
	}
	r.writePlain("%-8s %s%s\n", c.Code(), c.Name(), saved)
	r.writePlain("         id: %s\n", c.ID())
	if contacts := c.Contacts(); len(contacts) > 0 {
		r.writePlain("         contacts: %s\n", strings.Join(contacts, ", "))
	}
}

func (r *Runner) writeContact(c *models.Contact) {
	r.writePlain("%s <%s>\n", c.FullName(), c.Email())
	r.writePlain("    id: %s\n", c.ID())
	if clients := c.Clients(); len(clients) > 0 {
		r.writePlain("    clients: %s\n", strings.Join(clients, ", "))
	}
}
