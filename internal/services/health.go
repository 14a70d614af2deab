package services

import (
	"fmt"

	"github.com/areiqi/sitedb/internal/config"
	"github.com/areiqi/sitedb/internal/utils"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Media        string            `json:"media,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck pings the database and, when configured, the media endpoint
func HealthCheck(cfg *config.Config, db *gorm.DB, log zerolog.Logger) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	if db == nil {
		result.Database = "unavailable"
		result.fail("database_error", "database is not open")
	} else if sqlDB, err := db.DB(); err != nil {
		result.Database = "error"
		result.fail("database_error", fmt.Sprintf("Database connection error: %v", err))
	} else if err := sqlDB.Ping(); err != nil {
		result.Database = "unreachable"
		result.fail("database_ping_error", fmt.Sprintf("Database ping failed: %v", err))
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	if cfg.MediaS3Endpoint != "" {
		if err := utils.PingEndpoint(cfg.MediaS3Endpoint); err != nil {
			result.Media = "unreachable"
			result.fail("media_error", fmt.Sprintf("Media endpoint ping failed: %v", err))
		} else {
			result.Media = "ok"
			result.Details["media_endpoint"] = cfg.MediaS3Endpoint
		}
	}

	if result.Status == "healthy" {
		log.Info().Msg("health check passed")
	} else {
		log.Warn().Str("error", result.ErrorMessage).Msg("health check failed")
	}
	return result
}

func (r *HealthCheckResult) fail(detail, message string) {
	r.Status = "unhealthy"
	r.Details[detail] = message
	if r.ErrorMessage == "" {
		r.ErrorMessage = message
	} else {
		r.ErrorMessage += "; " + message
	}
}
