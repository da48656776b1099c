package mysql

import (
	"database/sql"
	"errors"

	"github.com/tukcommunity/backend/internal/accounts/store/drivers/mysql/migrations"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// applyMigrations applies the embedded migrations and closes db.
func applyMigrations(db *sql.DB) (err error) {
	// 1. Create the MySQL migration driver
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		_ = db.Close()
		return err
	}

	// 2. Create the iofs (embedded filesystem) source driver
	migrationsFilesystem, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		_ = driver.Close()
		return err
	}

	// 3. Create the migrate instance to run migrations
	instance, err := migrate.NewWithInstance("iofs", migrationsFilesystem, "", driver)
	if err != nil {
		_ = driver.Close()
		return err
	}
	defer func() {
		srcErr, dbErr := instance.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	// 4. Apply all up migrations
	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
