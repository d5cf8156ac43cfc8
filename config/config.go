package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	ServerPort    string
	StorageDriver string

	DataDir      string
	TrainsFile   string
	BookingsFile string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RabbitURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] no .env file found, using environment")
	}

	cfg := &Config{
		ServerPort:    getEnv("SERVER_PORT", "8082"),
		StorageDriver: getEnv("STORAGE_DRIVER", StorageFile),
		DataDir:       getEnv("DATA_DIR", "."),
		TrainsFile:    getEnv("TRAINS_FILE", "trains.json"),
		BookingsFile:  getEnv("BOOKINGS_FILE", "bookings.json"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "railconnect_db"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		RabbitURL:     os.Getenv("RABBITMQ_URL"),
	}
	if cfg.StorageDriver != StorageFile && cfg.StorageDriver != StoragePostgres {
		log.Printf("[Config] unknown STORAGE_DRIVER %q, falling back to %s", cfg.StorageDriver, StorageFile)
		cfg.StorageDriver = StorageFile
	}
	return cfg
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// TrainsPath resolves TrainsFile against DataDir unless it is absolute.
func (c *Config) TrainsPath() string {
	return c.resolve(c.TrainsFile)
}

func (c *Config) BookingsPath() string {
	return c.resolve(c.BookingsFile)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
