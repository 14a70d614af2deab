package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Activity log action labels, as shown in the console
const (
	ActionAdd      = "إضافة"
	ActionUpdate   = "تعديل"
	ActionDelete   = "حذف"
	ActionRestore  = "استعادة"
	ActionPurge    = "حذف نهائي"
	ActionSettings = "تعديل الإعدادات"
	ActionLogin    = "تسجيل دخول"
	ActionLogout   = "تسجيل خروج"
)

// ActivityLogEntry is one append-only audit record
type ActivityLogEntry struct {
	Base
	User    string `gorm:"size:255;not null" json:"user"`
	Role    Role   `gorm:"size:16;not null" json:"role"`
	Action  string `gorm:"size:64;not null" json:"action"`
	Details string `gorm:"type:text" json:"details"`
}

// TableName overrides the table name for ActivityLogEntry
func (ActivityLogEntry) TableName() string { return string(ActivityLogs) }

func (*ActivityLogEntry) Collection() Collection { return ActivityLogs }

func (e *ActivityLogEntry) Validate() error {
	if strings.TrimSpace(e.Action) == "" {
		return invalid(ActivityLogs, "action is required")
	}
	return nil
}

// TrashEntry is a soft-deleted record together with where it came from.
// CreatedAt is the original record's creation time.
type TrashEntry struct {
	Base
	OriginalStore Collection `gorm:"size:64;not null;index" json:"originalStore"`
	OriginalID    uint64     `json:"originalId"`
	DeletedAt     time.Time  `json:"deletedAt"`
	Payload       JSON       `json:"-"`
	SealedSecret  string     `gorm:"size:255" json:"-"`
}

// TableName overrides the table name for TrashEntry
func (TrashEntry) TableName() string { return string(Trash) }

func (*TrashEntry) Collection() Collection { return Trash }

func (e *TrashEntry) Validate() error {
	if !Restorable(e.OriginalStore) {
		return invalid(Trash, "records from %q cannot be trashed", e.OriginalStore)
	}
	return nil
}

// Restorable reports whether records of c move to trash on soft delete
func Restorable(c Collection) bool {
	return c.IsList() && c != Trash && c != ActivityLogs
}

// MarshalJSON renders the entry as the original record's fields plus the trash fields
func (e TrashEntry) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any)
	if len(e.Payload.JSON) > 0 {
		if err := json.Unmarshal(e.Payload.JSON, &fields); err != nil {
			return nil, err
		}
	}
	fields["id"] = e.ID
	fields["originalStore"] = e.OriginalStore
	fields["originalId"] = e.OriginalID
	fields["deletedAt"] = e.DeletedAt
	if e.CreatedAt != nil {
		fields["createdAt"] = e.CreatedAt
	}
	return json.Marshal(fields)
}

// LocalStorageItem is one key of the durable key/value store
type LocalStorageItem struct {
	Key       string    `gorm:"primaryKey;size:255"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName overrides the table name for LocalStorageItem
func (LocalStorageItem) TableName() string { return "local_storage" }
