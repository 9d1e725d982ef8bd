// internal/config/config.go
package config

import (
    "fmt"
    "os"
    "strconv"

    "github.com/joho/godotenv"
    "github.com/sirupsen/logrus"
)

// defaults
const (
    DefaultHTTPAddr       = ":8080"
    DefaultQueueName      = "campaign_dispatch"
    DefaultEmailPageSize  = 2000
    DefaultWorkerCount    = 4
    DefaultMaxRetries     = 3
    DefaultMigrationsPath = "migrations"
)

type Config struct {
    HTTPAddr       string
    DatabaseURL    string
    MigrationsPath string

    AmqpURL   string
    QueueName string

    EmailPageSize int
    WorkerCount   int
    MaxRetries    int

    FirebaseCredentialsFile string
    PushTopic               string

    SmtpHost     string
    SmtpPort     string
    SmtpFrom     string
    SmtpPassword string
}

// Load reads configuration from the environment, after loading a .env file
// if one is present.
func Load() *Config {
    if err := godotenv.Load(); err != nil {
        logrus.Warn("no .env file found, relying on OS environment variables")
    }

    return &Config{
        HTTPAddr:       getEnv("HTTP_ADDR", DefaultHTTPAddr),
        DatabaseURL:    databaseURL(),
        MigrationsPath: getEnv("MIGRATIONS_PATH", DefaultMigrationsPath),

        AmqpURL:   os.Getenv("AMQP_URL"),
        QueueName: getEnv("QUEUE_NAME", DefaultQueueName),

        EmailPageSize: getEnvInt("EMAIL_PAGE_SIZE", DefaultEmailPageSize),
        WorkerCount:   getEnvInt("WORKER_COUNT", DefaultWorkerCount),
        MaxRetries:    getEnvInt("MAX_RETRIES", DefaultMaxRetries),

        FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
        PushTopic:               getEnv("PUSH_TOPIC", "all-users"),

        SmtpHost:     os.Getenv("SMTP_HOST"),
        SmtpPort:     getEnv("SMTP_PORT", "587"),
        SmtpFrom:     os.Getenv("SMTP_FROM"),
        SmtpPassword: os.Getenv("SMTP_PASSWORD"),
    }
}

// databaseURL prefers DATABASE_URL and otherwise assembles a DSN from the
// discrete DB_* variables.
func databaseURL() string {
    if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
        return dsn
    }
    return fmt.Sprintf(
        "postgres://%s:%s@%s:%s/%s?sslmode=disable",
        getEnv("DB_USER", "postgres"),
        os.Getenv("DB_PASSWORD"),
        getEnv("DB_HOST", "localhost"),
        getEnv("DB_PORT", "5432"),
        getEnv("DB_NAME", "jetx_marketing"),
    )
}

func getEnv(key, fallback string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return fallback
}

func getEnvInt(key string, fallback int) int {
    v := os.Getenv(key)
    if v == "" {
        return fallback
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        logrus.WithField("key", key).Warnf("invalid integer %q, using default %d", v, fallback)
        return fallback
    }
    return n
}
