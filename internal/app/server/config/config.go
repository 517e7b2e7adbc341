package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath = "../../.env"

	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	// defaultKDFConcurrency bounds concurrent key derivations so a login
	// storm cannot pin every core on PBKDF2.
	defaultKDFConcurrency = 4
)

type Config struct {
	Env    string
	DB     db
	Server server
	Logger logger
	Crypto crypto
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress string `env:"RUN_ADDRESS"`
}

type logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type crypto struct {
	KDFConcurrency int64 `env:"KDF_CONCURRENCY"`
}

func MustLoad() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()

	config := Config{
		Env: viper.GetString("app_env"),
		DB: db{
			DatabaseURI: viper.GetString("database_uri"),
			Migrations:  viper.GetString("migrations_path"),
		},
		Server: server{RunAddress: viper.GetString("run_address")},
		Logger: logger{LogLevel: viper.GetString("log_level")},
		Crypto: crypto{KDFConcurrency: viper.GetInt64("kdf_concurrency")},
	}
	if config.Server.RunAddress == "" {
		config.Server.RunAddress = ":8080"
	}
	if config.Crypto.KDFConcurrency <= 0 {
		config.Crypto.KDFConcurrency = defaultKDFConcurrency
	}

	return &config
}
