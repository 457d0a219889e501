// seed prepares the database of the weighbridge tracker.
//
//	seed create-admin   create the admin account if it does not exist
//	seed clear          delete every truck and user, then recreate the admin
//	seed reset          drop and recreate the database, migrate, admin and demo trucks
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"camion_tracker/internal/config"
	"camion_tracker/internal/logger"
	"camion_tracker/internal/seed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var fixturesPath, email, pass, name string

	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&fixturesPath, "fixtures", "", "YAML file of demo trucks for reset (default: built-in set)")
	flagSet.StringVar(&email, "email", "", "admin email (default: ADMIN_EMAIL)")
	flagSet.StringVar(&pass, "password", "", "admin password (default: ADMIN_PASSWORD)")
	flagSet.StringVar(&name, "name", "", "admin display name (default: ADMIN_NAME)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	args := flagSet.Args()
	if len(args) != 1 {
		printHelp(flagSet)
		return fmt.Errorf("expected exactly one mode, got %d arguments", len(args))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Setup(cfg.LogFile, cfg.LogLevel, true)

	admin := seed.Admin{Name: cfg.AdminName, Email: cfg.AdminEmail, Password: cfg.AdminPassword}
	if email != "" {
		admin.Email = email
	}
	if pass != "" {
		admin.Password = pass
	}
	if name != "" {
		admin.Name = name
	}

	switch mode := args[0]; mode {
	case "create-admin":
		db, err := connect()
		if err != nil {
			return err
		}
		user, created, err := seed.EnsureAdmin(db, admin)
		if err != nil {
			return err
		}
		if !created {
			logrus.WithField("email", user.Email).Info("admin already exists, nothing to do")
		}
		return nil

	case "clear":
		db, err := connect()
		if err != nil {
			return err
		}
		if err := seed.Clear(db); err != nil {
			return err
		}
		logrus.Info("all trucks and users deleted")
		_, _, err = seed.EnsureAdmin(db, admin)
		return err

	case "reset":
		fx, err := seed.LoadFixtures(fixturesPath)
		if err != nil {
			return err
		}
		if err := recreate(); err != nil {
			return err
		}
		db, err := connect()
		if err != nil {
			return err
		}
		if _, _, err := seed.EnsureAdmin(db, admin); err != nil {
			return err
		}
		n, err := seed.LoadTrucks(db, fx, time.Now(), cfg.Location)
		if err != nil {
			return err
		}
		logrus.WithField("trucks", n).Info("database reset")
		return nil

	default:
		printHelp(flagSet)
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func connect() (*gorm.DB, error) {
	dialector, err := config.DialectorFromEnv()
	if err != nil {
		return nil, err
	}
	return config.Connect(dialector)
}

// recreate empties the configured database. Postgres databases are dropped
// and created again; sqlite files only lose their tables.
func recreate() error {
	dialector, err := config.DialectorFromEnv()
	if err != nil {
		return err
	}
	if dialector.Name() == "postgres" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return seed.RecreatePostgresDatabase(ctx, config.PostgresDSN("postgres"), config.DatabaseName())
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.GormLogger()})
	if err != nil {
		return err
	}
	return seed.DropTables(db)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage: seed [flags] <create-admin|clear|reset>

Modes:
  create-admin  create the admin account if it does not exist
  clear         delete every truck and user, then recreate the admin
  reset         drop and recreate the database, then load demo trucks

Flags:
`)
	flagSet.PrintDefaults()
}
