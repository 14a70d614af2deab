package models

import "fmt"

// Collection names a group of same-kind records. Each collection is one table.
type Collection string

const (
	Projects     Collection = "projects"
	Gallery      Collection = "gallery"
	Messages     Collection = "messages"
	Partners     Collection = "partners"
	SettingsKind Collection = "settings"
	Users        Collection = "users"
	ActivityLogs Collection = "activity_logs"
	Trash        Collection = "trash"
)

// AuthChannel is the synthetic notification channel for session changes
const AuthChannel = "auth"

// Collections lists every collection in creation order
var Collections = []Collection{Projects, Gallery, Messages, Partners, SettingsKind, Users, ActivityLogs, Trash}

// ParseCollection resolves a collection by name
func ParseCollection(name string) (Collection, error) {
	for _, c := range Collections {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", name)
}

// IsList reports whether the collection holds a list of records (everything but settings)
func (c Collection) IsList() bool {
	return c != SettingsKind
}

func (c Collection) String() string {
	return string(c)
}
