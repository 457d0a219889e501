package config

import (
	"fmt"

	"github.com/glebarez/sqlite"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"camion_tracker/internal/logger"
	"camion_tracker/internal/models"
)

var (
	// DB is the globally accessible database handle
	DB *gorm.DB
)

// InitDB connects to the database selected by DB_DRIVER (postgres by
// default, sqlite for local runs) and migrates the schema.
func InitDB() {
	dialector, err := DialectorFromEnv()
	if err != nil {
		logrus.Fatalf("failed to configure database: %v", err)
	}

	db, err := Connect(dialector)
	if err != nil {
		logrus.Fatalf("failed to connect to database: %v", err)
	}

	// Assign to global
	DB = db
}

// DialectorFromEnv builds the GORM dialector described by the DB_* variables.
func DialectorFromEnv() (gorm.Dialector, error) {
	switch driver := getEnv("DB_DRIVER", "postgres"); driver {
	case "postgres":
		return postgres.Open(PostgresDSN(getEnv("DB_NAME", "camions"))), nil
	case "sqlite":
		return sqlite.Open(getEnv("DB_PATH", "camions.db")), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// PostgresDSN builds a key/value DSN for dbname from the DB_* variables.
func PostgresDSN(dbname string) string {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "password")
	sslmode := getEnv("DB_SSLMODE", "disable")
	timezone := getEnv("DB_TIMEZONE", "UTC")

	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone,
	)
}

// DatabaseName is the configured application database.
func DatabaseName() string {
	return getEnv("DB_NAME", "camions")
}

// Connect opens dialector with the logrus-backed GORM logger and applies migrations.
func Connect(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.GormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Truck{}, &models.StatusChange{})
}
