package session

import "time"

type Config struct {
	Secret   string        `env:"SESSION_JWT_SECRET,required"`
	Issuer   string        `env:"SESSION_JWT_ISSUER" envDefault:"prepdeck-auth"`
	Audience string        `env:"SESSION_JWT_AUDIENCE" envDefault:"prepdeck-api"`
	Leeway   time.Duration `env:"SESSION_JWT_LEEWAY" envDefault:"30s"`
}
