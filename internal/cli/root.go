// root.go
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

// Package cli implements sitectl, the store's admin command line.
package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/areiqi/sitedb/internal/config"
	"github.com/areiqi/sitedb/internal/database"
	"github.com/areiqi/sitedb/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	EnvFile string
	Format  string // "text" | "json" | "yaml"
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json", "yaml"}

// Deps is what a command works against
type Deps struct {
	Config *config.Config
	Store  *store.Store
	Log    zerolog.Logger
}

// DB opens the store's database
func (d *Deps) DB(cmd *cobra.Command) (*gorm.DB, error) {
	return d.Store.DB(cmd.Context())
}

// OpenFunc builds the dependencies once flags are parsed
type OpenFunc func(opts *RootOptions) (*Deps, error)

// OpenFromEnv loads the configuration and opens the configured database
func OpenFromEnv(opts *RootOptions) (*Deps, error) {
	if opts.EnvFile != "" {
		if err := os.Setenv("ENV_FILE", opts.EnvFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := config.NewLogger(os.Stderr, cfg.LogLevel)
	return &Deps{
		Config: cfg,
		Store:  store.New(database.NewOpener(cfg), log),
		Log:    log,
	}, nil
}

// NewRootCommand creates the sitectl command tree
func NewRootCommand(open OpenFunc) *cobra.Command {
	opts := &RootOptions{}
	deps := &Deps{}

	cmd := &cobra.Command{
		Use:           "sitectl",
		Short:         "Administer the Al-Areiqi site store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			d, err := open(opts)
			if err != nil {
				return err
			}
			*deps = *d
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "environment file to load (default .env)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")

	cmd.AddCommand(newSeedCommand(opts, deps))
	cmd.AddCommand(newUsersCommand(opts, deps))
	cmd.AddCommand(newTrashCommand(opts, deps))
	cmd.AddCommand(newExportCommand(opts, deps))
	cmd.AddCommand(newHealthCommand(opts, deps))
	return cmd
}
