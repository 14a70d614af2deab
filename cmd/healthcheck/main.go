// main.go
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

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/areiqi/sitedb/internal/config"
	"github.com/areiqi/sitedb/internal/database"
	"github.com/areiqi/sitedb/internal/services"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := config.NewLogger(os.Stderr, cfg.LogLevel)

	// A failed open is reported as an unhealthy database
	db, err := database.NewOpener(cfg).Open()
	if err != nil {
		log.Error().Err(err).Msg("failed to open database")
	}

	result := services.HealthCheck(cfg, db, log)

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to marshal health check result")
	}
	fmt.Println(string(output))

	if db != nil {
		database.Close(db)
	}
	if result.Status != "healthy" {
		os.Exit(1)
	}
}
