package business

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/openfin/connect-manager/internal/business/server"
	"github.com/openfin/connect-manager/internal/config"
	"github.com/openfin/connect-manager/internal/connect"
	connectmemory "github.com/openfin/connect-manager/internal/connect/memory"
	connectvalkey "github.com/openfin/connect-manager/internal/connect/valkey"
	"github.com/openfin/connect-manager/internal/institution"
	institutionsql "github.com/openfin/connect-manager/internal/institution/sql"
	"github.com/openfin/connect-manager/internal/linktoken"
	"github.com/openfin/connect-manager/internal/provider"
	"github.com/openfin/connect-manager/internal/provider/gocardless"
	"github.com/openfin/connect-manager/internal/provider/plaid"
	"github.com/openfin/connect-manager/internal/provider/teller"
	"github.com/openfin/connect-manager/internal/usage"
	usagesql "github.com/openfin/connect-manager/internal/usage/sql"
)

// Main wires the flow manager and serves the public HTTP API.
func Main(ctx context.Context, cfg *config.Config) error {
	manager, closeFn, err := initFlowManager(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the flow manager: %w", err)
	}
	defer closeFn()

	return server.StartHTTPServer(ctx, cfg, manager)
}

func initFlowManager(ctx context.Context, cfg *config.Config) (_ *connect.Manager, closeFn func(), _ error) {
	closeFn = func() {}

	var db *pgxpool.Pool
	if cfg.Directory.Source == "sql" || cfg.Usage.Source == "sql" {
		pool, err := initPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		db = pool
		closeFn = db.Close
	}

	repo, closeRepo, err := initFlowRepository(cfg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	poolClose := closeFn
	closeFn = func() {
		closeRepo()
		poolClose()
	}

	directory, err := initDirectory(cfg, db)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	registry, err := initProviders(cfg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	reporter := initUsageReporter(cfg, db)

	return connect.NewManager(repo, directory, registry, reporter), closeFn, nil
}

func initPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connStr, err := config.MakeConnStr(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("making dsn from config: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing pgxpool config: %w", err)
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("initialising pgxpool connection: %w", err)
	}

	return pool, nil
}

func initFlowRepository(cfg *config.Config) (connect.Repository, func(), error) {
	if cfg.Connect.Store != "valkey" {
		return connectmemory.NewRepository(), func() {}, nil
	}

	valkeyHost, err := cfg.ValKey.Host.Resolve()
	if err != nil {
		return nil, nil, fmt.Errorf("loading valkey host: %w", err)
	}

	valkeyUsername, err := cfg.ValKey.User.Resolve()
	if err != nil {
		return nil, nil, fmt.Errorf("loading valkey username: %w", err)
	}

	valkeyPassword, err := cfg.ValKey.Password.Resolve()
	if err != nil {
		return nil, nil, fmt.Errorf("loading valkey password: %w", err)
	}

	valkeyClient, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{valkeyHost},
		Username:    valkeyUsername,
		Password:    valkeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating a new valkey client: %w", err)
	}

	repo := connectvalkey.NewRepository(
		valkeyClient,
		cfg.ValKey.Prefix,
		connectvalkey.WithTTL(cfg.Connect.FlowTTL),
	)

	return repo, valkeyClient.Close, nil
}

func initDirectory(cfg *config.Config, db *pgxpool.Pool) (institution.Directory, error) {
	switch cfg.Directory.Source {
	case "sql":
		return institutionsql.NewRepository(db), nil
	case "http", "":
		if cfg.Directory.BaseURL == "" {
			return nil, fmt.Errorf("directory baseURL is required with the http source")
		}

		return institution.NewClient(
			cfg.Directory.BaseURL,
			institution.WithCacheTTL(cfg.Directory.CacheTTL),
		), nil
	default:
		return nil, fmt.Errorf("unsupported directory source: %q", cfg.Directory.Source)
	}
}

func initProviders(cfg *config.Config) (*provider.Registry, error) {
	var adapters []provider.Adapter

	if cfg.Providers.Plaid.Enabled {
		clientID, err := cfg.Providers.Plaid.ClientID.Resolve()
		if err != nil {
			return nil, fmt.Errorf("loading plaid client id: %w", err)
		}

		secret, err := cfg.Providers.Plaid.Secret.Resolve()
		if err != nil {
			return nil, fmt.Errorf("loading plaid secret: %w", err)
		}

		client := plaid.NewClient(clientID, secret, cfg.Providers.Plaid.Environment)

		linkTokenURL := cfg.Providers.Plaid.LinkTokenURL
		if linkTokenURL == "" {
			linkTokenURL = plaid.LinkTokenEndpoint(cfg.Providers.Plaid.Environment)
		}

		provisioner := linktoken.NewClient(
			linkTokenURL,
			clientID,
			secret,
			cfg.Providers.Plaid.ClientName,
		)

		adapters = append(adapters, plaid.NewAdapter(provisioner, client))
	}

	if cfg.Providers.Teller.Enabled {
		adapters = append(adapters, teller.NewAdapter(
			cfg.Providers.Teller.ApplicationID,
			cfg.Providers.Teller.Environment,
			teller.WithSettleDelay(cfg.Providers.Teller.SettleDelay),
		))
	}

	if cfg.Providers.GoCardless.Enabled {
		adapters = append(adapters, gocardless.NewAdapter())
	}

	return provider.NewRegistry(adapters...), nil
}

func initUsageReporter(cfg *config.Config, db *pgxpool.Pool) usage.Reporter {
	switch cfg.Usage.Source {
	case "sql":
		return usagesql.NewReporter(db)
	case "http":
		if cfg.Usage.Endpoint == "" {
			return usage.NopReporter{}
		}

		return usage.NewClient(cfg.Usage.Endpoint, nil)
	default:
		return usage.NopReporter{}
	}
}
