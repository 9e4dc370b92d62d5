// Package config loads application configuration from environment variables
// into tagged Go structs.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: .env
// files are loaded into the process environment, then any struct with `env`
// field tags can be parsed. Each configuration type is parsed once per
// process and cached, so packages can each call Load for their own config
// without coordinating.
//
//	type PostgresConfig struct {
//	    ConnectionString string `env:"DATABASE_URL,required"`
//	    MaxConns         int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
//	}
//
//	var cfg PostgresConfig
//	config.MustLoad(&cfg)
//
// ResetCache exists for tests that change the environment between loads.
package config
