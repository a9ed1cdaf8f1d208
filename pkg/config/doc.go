// Package config loads service configuration from the environment.
//
// Values come from process environment variables, optionally seeded from
// .env files via github.com/joho/godotenv, and are parsed into tagged structs
// with github.com/caarlos0/env/v11. Structs that implement Validator are
// checked after parsing.
//
//	type Config struct {
//		Port int `env:"PORT" envDefault:"8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg, ".env"); err != nil {
//		return err
//	}
//
// Parse takes an explicit environment map and never touches the process
// environment, which keeps tests independent.
package config
