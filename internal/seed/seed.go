// Package seed prepares databases: default admin account, wipe, full reset
// and demo trucks. It backs both the server startup and cmd/seed.
package seed

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lib/pq"
	logrus "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"camion_tracker/internal/models"
	"camion_tracker/internal/password"
	"camion_tracker/internal/statemachine"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Admin describes the account EnsureAdmin creates.
type Admin struct {
	Name     string
	Email    string
	Password string
}

// EnsureAdmin creates the admin account unless a user with that email
// already exists. created reports whether a row was inserted.
func EnsureAdmin(db *gorm.DB, a Admin) (user models.User, created bool, err error) {
	err = db.Where("email = ?", a.Email).First(&user).Error
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, false, err
	}
	hash, err := password.Default.Hash(a.Password)
	if err != nil {
		return user, false, fmt.Errorf("admin password: %w", err)
	}
	user = models.User{Name: a.Name, Email: a.Email, PasswordHash: hash, Role: models.RoleAdmin}
	if err := db.Create(&user).Error; err != nil {
		return user, false, err
	}
	logrus.WithField("email", a.Email).Info("admin account created")
	return user, true, nil
}

// HasAdmin reports whether at least one admin account exists.
func HasAdmin(db *gorm.DB) (bool, error) {
	var n int64
	err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&n).Error
	return n > 0, err
}

// Clear deletes every truck, audit row and user.
func Clear(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []interface{}{&models.StatusChange{}, &models.Truck{}, &models.User{}} {
			if err := all.Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DropTables removes the service tables so the next migration starts empty.
func DropTables(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.StatusChange{}, &models.Truck{}, &models.User{})
}

// RecreatePostgresDatabase drops and creates name through a connection to
// maintenanceDSN, which must point at another database (usually "postgres").
func RecreatePostgresDatabase(ctx context.Context, maintenanceDSN, name string) error {
	conn, err := sql.Open("postgres", maintenanceDSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	quoted := pq.QuoteIdentifier(name)
	if _, err := conn.ExecContext(ctx, "DROP DATABASE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+quoted); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	logrus.WithField("database", name).Info("database recreated")
	return nil
}

// Fixtures is the content of a fixture file.
type Fixtures struct {
	Trucks []TruckFixture `yaml:"trucks"`
}

type TruckFixture struct {
	Plate        string             `yaml:"plaque"`
	Driver       string             `yaml:"chauffeur"`
	EntryDate    string             `yaml:"dateEntree"`
	Status       models.TruckStatus `yaml:"statut"`
	AmountDue    float64            `yaml:"montantDu"`
	AmountPaid   float64            `yaml:"montantPaye"`
	ArrivalOrder int                `yaml:"ordreArrivee"`
}

// LoadFixtures reads path, or the built-in demo set when path is empty.
func LoadFixtures(path string) (Fixtures, error) {
	data := defaultFixtures
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return Fixtures{}, err
		}
	}
	return ParseFixtures(data)
}

func ParseFixtures(data []byte) (Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fx, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, t := range fx.Trucks {
		if models.NormalizePlate(t.Plate) == "" || t.Driver == "" {
			return fx, fmt.Errorf("fixture %d: plaque and chauffeur are required", i)
		}
		if t.Status == "" {
			fx.Trucks[i].Status = models.StatusWaiting
		} else if !statemachine.IsKnown(t.Status) {
			return fx, fmt.Errorf("fixture %d: unknown statut %q", i, t.Status)
		}
		if t.EntryDate != "" {
			if _, err := time.Parse(models.DateLayout, t.EntryDate); err != nil {
				return fx, fmt.Errorf("fixture %d: dateEntree: %w", i, err)
			}
		}
	}
	return fx, nil
}

// LoadTrucks inserts the fixture trucks with an audit trail walking them
// through the lifecycle up to their status. Trucks without an entry date
// arrive today in loc.
func LoadTrucks(db *gorm.DB, fx Fixtures, today time.Time, loc *time.Location) (int, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		for i, f := range fx.Trucks {
			truck, err := f.build(i, today, loc)
			if err != nil {
				return err
			}
			if err := tx.Create(&truck).Error; err != nil {
				return err
			}
			for _, change := range auditTrail(truck) {
				if err := tx.Create(&change).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(fx.Trucks), nil
}

func (f TruckFixture) build(i int, today time.Time, loc *time.Location) (models.Truck, error) {
	date := f.EntryDate
	if date == "" {
		date = today.In(loc).Format(models.DateLayout)
	}
	day, err := time.ParseInLocation(models.DateLayout, date, loc)
	if err != nil {
		return models.Truck{}, err
	}
	order := f.ArrivalOrder
	if order == 0 {
		order = i + 1
	}

	truck := models.Truck{
		Plate:        models.NormalizePlate(f.Plate),
		Driver:       f.Driver,
		EntryDate:    date,
		ArrivedAt:    day.Add(8*time.Hour + time.Duration(order)*15*time.Minute),
		Status:       f.Status,
		AmountDue:    f.AmountDue,
		AmountPaid:   f.AmountPaid,
		ArrivalOrder: order,
	}
	if f.Status == models.StatusExited {
		departed := truck.ArrivedAt.Add(time.Hour)
		truck.DepartedAt = &departed
		truck.ExitDate = departed.Format(models.DateLayout)
		if truck.AmountPaid == 0 {
			truck.AmountPaid = truck.AmountDue
		}
	}
	return truck, nil
}

// auditTrail replays the transitions from entry up to the truck's status.
func auditTrail(truck models.Truck) []models.StatusChange {
	changes := []models.StatusChange{{TruckID: truck.ID, ToStatus: models.StatusWaiting, Note: "seed"}}
	from := models.StatusWaiting
	for from != truck.Status {
		next := statemachine.ValidTransitionsFrom(from)
		if len(next) == 0 {
			break
		}
		changes = append(changes, models.StatusChange{TruckID: truck.ID, FromStatus: from, ToStatus: next[0], Note: "seed"})
		from = next[0]
	}
	return changes
}
