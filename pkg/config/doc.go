// Package config loads the wpuser configuration.
//
// Values come from an optional YAML file and the environment, read with
// cleanenv, and are checked with validator tags before use:
//
//	cfg, err := config.Load(os.Getenv("WPUSER_CONFIG"))
//	if err != nil {
//		return err
//	}
//	slog.SetDefault(cfg.Log.NewLogger(os.Stdout))
//
//	h, err := host.NewHost(cfg.Host.Persistence, cfg.Host.RepositoryConfig())
//	q := userquery.New(h, cfg.Query.ToUserQueryConfig())
//
// The most used environment variables:
//
//	WPUSER_PERSISTENCE   memory | file | postgres
//	WPUSER_DATA_DIR      directory of the file backend
//	WPUSER_PG_*          PostgreSQL connection (see DatabaseConfig)
//	WPUSER_QUERY_ROLE    comma-separated role filter for every lookup
//	WPUSER_ROLES_FILE    YAML role definitions registered at startup
//	API_PREFIX_BASE      base path of the HTTP routes
//	LOG_LEVEL            debug | info | warn | error
//
// Validation failures are returned as ValidationErrors, one entry per field.
package config
