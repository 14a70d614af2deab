package models

import (
	"encoding/json"
	"time"
)

// SettingsID is the fixed key of the settings singleton
const SettingsID = "main_config"

// Themes
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Settings is the site-wide configuration singleton
type Settings struct {
	ID              string     `gorm:"primaryKey;size:64" json:"id"`
	Logo            string     `gorm:"type:text" json:"logo"`
	HeroImage       string     `gorm:"type:text" json:"heroImage"`
	MaintenanceMode bool       `json:"maintenanceMode"`
	Theme           string     `gorm:"size:16" json:"theme"`
	Announcement    string     `gorm:"type:text" json:"announcement,omitempty"`
	UpdatedAt       *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
}

// TableName overrides the table name for Settings
func (Settings) TableName() string { return string(SettingsKind) }

// DefaultSettings is served until the settings are first written
func DefaultSettings() Settings {
	return Settings{
		ID:              SettingsID,
		Logo:            "https://engaliareeki.github.io/web/assets/images/logo.png",
		HeroImage:       "https://images.unsplash.com/photo-1581091226825-a6a2a5aee158",
		MaintenanceMode: false,
		Theme:           ThemeDark,
	}
}

func (s *Settings) Validate() error {
	if !oneOf(s.Theme, ThemeDark, ThemeLight) {
		return invalid(SettingsKind, "theme %q is not one of dark, light", s.Theme)
	}
	return nil
}

// MergeSettings shallow-merges fields over current. The id always stays SettingsID.
func MergeSettings(current Settings, fields map[string]any) (Settings, error) {
	raw, err := json.Marshal(current)
	if err != nil {
		return Settings{}, err
	}
	merged := make(map[string]any)
	if err := json.Unmarshal(raw, &merged); err != nil {
		return Settings{}, err
	}
	for k, v := range fields {
		if k == "id" || k == "updatedAt" {
			continue
		}
		merged[k] = v
	}
	var out Settings
	if err := decodeStrict(&out, SettingsKind, merged); err != nil {
		return Settings{}, err
	}
	out.ID = SettingsID
	return out, out.Validate()
}
