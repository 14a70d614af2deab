// connection.go
//
// A data service for the Al-Areiqi engineering site and its admin console
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of sitedb.
// sitedb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// sitedb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with sitedb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package database

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/areiqi/sitedb/internal/config"
	"github.com/areiqi/sitedb/internal/models"
	puresqlite "github.com/glebarez/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrStorageUnavailable is returned by every operation when the database cannot be opened
var ErrStorageUnavailable = errors.New("storage unavailable")

// Dialector selects the gorm dialector for the configured DB_TYPE
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBType {
	case "mysql", "mariadb":
		dsn := mysqldriver.NewConfig()
		dsn.User = cfg.DBUser
		dsn.Passwd = cfg.DBPassword
		dsn.Net = "tcp"
		dsn.Addr = net.JoinHostPort(cfg.DBHost, defaultPort(cfg.DBPort, "3306"))
		dsn.DBName = cfg.DBDatabase
		dsn.ParseTime = true
		dsn.Loc = time.UTC
		dsn.Params = map[string]string{"charset": "utf8mb4"}
		return mysql.Open(dsn.FormatDSN()), nil

	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBDatabase,
			defaultPort(cfg.DBPort, "5432"),
		)
		return postgres.Open(dsn), nil

	case "sqlite", "sqlite3":
		// For SQLite, DBDatabase is the file path
		return sqlite.Open(cfg.DBDatabase), nil

	case "sqlite-nocgo":
		return puresqlite.Open(cfg.DBDatabase), nil

	case "sqlserver", "mssql":
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			defaultPort(cfg.DBPort, "1433"),
			cfg.DBDatabase,
		)
		return sqlserver.Open(dsn), nil
	}

	return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
}

// Connect establishes a database connection based on the configured DB_TYPE
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	logMode := logger.Silent
	if cfg.LogSQL {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if cfg.IsNetworkDB() {
		sqlDB.SetMaxOpenConns(cfg.DBConnectionLimit)
		sqlDB.SetMaxIdleConns(cfg.DBConnectionLimit / 2)
	} else {
		// SQLite only supports one writer at a time
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return db, nil
}

// AutoMigrate creates one table per collection plus local storage
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Project{},
		&models.GalleryItem{},
		&models.Message{},
		&models.Partner{},
		&models.Settings{},
		&models.User{},
		&models.ActivityLogEntry{},
		&models.TrashEntry{},
		&models.LocalStorageItem{},
	)
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Opener connects and migrates once; every caller of Open shares the result
type Opener struct {
	connect func() (*gorm.DB, error)
	once    sync.Once
	db      *gorm.DB
	err     error
}

// NewOpener returns an Opener for cfg
func NewOpener(cfg *config.Config) *Opener {
	return NewOpenerFunc(func() (*gorm.DB, error) { return Connect(cfg) })
}

// NewOpenerFunc returns an Opener around a custom connect function
func NewOpenerFunc(connect func() (*gorm.DB, error)) *Opener {
	return &Opener{connect: connect}
}

// Open connects and migrates on first use; later calls return the same handle or error
func (o *Opener) Open() (*gorm.DB, error) {
	o.once.Do(func() {
		db, err := o.connect()
		if err != nil {
			o.err = wrapUnavailable(err)
			return
		}
		if err := AutoMigrate(db); err != nil {
			Close(db)
			o.err = wrapUnavailable(err)
			return
		}
		o.db = db
	})
	return o.db, o.err
}

func wrapUnavailable(err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

func defaultPort(port, fallback string) string {
	if strings.TrimSpace(port) == "" {
		return fallback
	}
	return port
}
