//cmd/seeder/main.go
package main

import (
    "database/sql"
    "os"

    _ "github.com/lib/pq"
    "github.com/sirupsen/logrus"

    "github.com/chillspider/jetx-marketing/internal/config"
)

func main() {
    cfg := config.Load()

    conn, err := sql.Open("postgres", cfg.DatabaseURL)
    if err != nil {
        logrus.Fatal(err)
    }
    defer conn.Close()

    seedFiles := []string{
        "seed/recipients.sql",
        "seed/campaigns.sql",
    }

    for _, file := range seedFiles {
        content, err := os.ReadFile(file)
        if err != nil {
            logrus.Fatalf("failed to read %s: %v", file, err)
        }
        if _, err := conn.Exec(string(content)); err != nil {
            logrus.Fatalf("failed to execute %s: %v", file, err)
        }
        logrus.Info("seeded: ", file)
    }

    logrus.Info("database seeding completed")
}
