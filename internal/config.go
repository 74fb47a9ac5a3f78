package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host string `env:"HOST,default=localhost"`
	Port int    `env:"PORT,default=8080"`
	Mode string `env:"GIN_MODE,default=release"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	UsersFilepath  string `env:"USERS_FILEPATH,required=true"`
	GroupsFilepath string `env:"GROUPS_FILEPATH,required=true"`

	LogLevel          string `env:"LOG_LEVEL,required=true"`
	SessionBufferSize int    `env:"SESSION_BUFFER_SIZE,required=true"`
	IndexBufferSize   int    `env:"INDEX_BUFFER_SIZE,required=true"`
	MaxContentLength  int    `env:"MAX_CONTENT_LENGTH,required=true"`
	LimitMessages     *int   `env:"LIMIT_MESSAGES"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,required=true"`

	RestartInterval   time.Duration `env:"RESTART_INTERVAL,required=true"`
	GCInterval        time.Duration `env:"GC_INTERVAL,required=true"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,required=true"`

	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
