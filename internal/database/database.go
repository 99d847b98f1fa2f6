package database

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/maskoff-app/maskoffgo/internal/config"
)

const (
	embeddedDataPath = "./db_data"
	embeddedPort     = 5433
)

// DB wraps gorm.DB and includes a reference to an embedded process if active
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// isPortInUse checks if a port is already in use
func isPortInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Connect establishes a connection to a PostgreSQL database (external or embedded).
// Embedded mode kicks in when the host is localhost and no password is configured,
// so a fresh checkout runs with zero setup.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	var embedded *embeddedpostgres.EmbeddedPostgres

	isEmbedded := cfg.Host == "localhost" && cfg.Password == ""

	password := cfg.Password
	if isEmbedded {
		log.Println("Mode: [Embedded PostgreSQL] - initializing internal database...")

		if isPortInUse(embeddedPort) {
			return nil, fmt.Errorf("port %d is already in use by another process", embeddedPort)
		}

		embeddedCfg := embeddedpostgres.DefaultConfig().
			DataPath(embeddedDataPath).
			Port(uint32(embeddedPort)).
			Database(cfg.Database).
			Username(cfg.Username).
			Password("postgres")

		embedded = embeddedpostgres.NewDatabase(embeddedCfg)
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("failed to start embedded database: %w", err)
		}

		cfg.Port = strconv.Itoa(embeddedPort)
		password = "postgres"
		log.Printf("Embedded PostgreSQL started on port %d", embeddedPort)
	} else {
		log.Printf("Mode: [External PostgreSQL] - connecting to %s:%s", cfg.Host, cfg.Port)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, password, cfg.Database,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		if embedded != nil {
			embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: db, embedded: embedded}, nil
}

// Close closes the database connection and stops the embedded instance if active
func (db *DB) Close() error {
	if sqlDB, err := db.DB.DB(); err == nil {
		sqlDB.Close()
	}
	if db.embedded != nil {
		return db.embedded.Stop()
	}
	return nil
}
