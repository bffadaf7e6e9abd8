// Package migrations holds the versioned identity schema. Each version is a
// goose Go migration that runs gorm against the migration transaction.
package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// NewProvider returns a goose provider with every schema version registered.
// driver is the gorm dialector name ("postgres" or "sqlite").
func NewProvider(driver string, db *sql.DB) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch driver {
	case "postgres":
		dialect = goose.DialectPostgres
	case "sqlite":
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("unsupported migration driver %q", driver)
	}

	return goose.NewProvider(dialect, db, nil,
		goose.WithGoMigrations(
			goose.NewGoMigration(1,
				&goose.GoFunc{RunTx: upIdentitySchema(driver)},
				&goose.GoFunc{RunTx: downIdentitySchema(driver)},
			),
		),
	)
}

func openOnTx(driver string, tx *sql.Tx) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true})
	case "sqlite":
		dialector = &sqlite.Dialector{Conn: tx}
	default:
		return nil, fmt.Errorf("unsupported migration driver %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		NamingStrategy:         schema.NamingStrategy{SingularTable: false},
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
}
