package models

import "strings"

// Project statuses
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
	StatusArchived  = "archived"
)

// Project is a portfolio entry shown on the site
type Project struct {
	Base
	Title       string `gorm:"size:255;not null" json:"title"`
	Category    string `gorm:"size:128;not null" json:"category"`
	Image       string `gorm:"type:text" json:"image"`
	Description string `gorm:"type:text" json:"description"`
	Status      string `gorm:"size:16;not null;default:published" json:"status"`
	Location    string `gorm:"size:255" json:"location,omitempty"`
	ClientName  string `gorm:"size:255" json:"client_name,omitempty"`
	EndDate     string `gorm:"size:32" json:"end_date,omitempty"`
	Featured    bool   `json:"featured,omitempty"`
}

// TableName overrides the table name for Project
func (Project) TableName() string { return string(Projects) }

func (*Project) Collection() Collection { return Projects }

func (p *Project) ApplyDefaults() {
	if p.Status == "" {
		p.Status = StatusPublished
	}
}

func (p *Project) Validate() error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return invalid(Projects, "title is required")
	case strings.TrimSpace(p.Category) == "":
		return invalid(Projects, "category is required")
	case p.Image == "":
		return invalid(Projects, "image is required")
	case p.Description == "":
		return invalid(Projects, "description is required")
	case !oneOf(p.Status, StatusPublished, StatusDraft, StatusArchived):
		return invalid(Projects, "status %q is not one of published, draft, archived", p.Status)
	}
	return nil
}

// GalleryItem is one uploaded site image
type GalleryItem struct {
	Base
	Image string `gorm:"type:text;not null" json:"image"`
}

// TableName overrides the table name for GalleryItem
func (GalleryItem) TableName() string { return string(Gallery) }

func (*GalleryItem) Collection() Collection { return Gallery }

func (g *GalleryItem) Validate() error {
	if g.Image == "" {
		return invalid(Gallery, "image is required")
	}
	return nil
}

// MinPhoneLength is the shortest phone number the contact form accepts
const MinPhoneLength = 9

// Message is a contact form submission
type Message struct {
	Base
	Name    string `gorm:"size:255;not null" json:"name"`
	Phone   string `gorm:"size:32;not null" json:"phone"`
	Message string `gorm:"type:text" json:"message"`
}

// TableName overrides the table name for Message
func (Message) TableName() string { return string(Messages) }

func (*Message) Collection() Collection { return Messages }

func (m *Message) Validate() error {
	switch {
	case strings.TrimSpace(m.Name) == "":
		return invalid(Messages, "name is required")
	case len([]rune(strings.TrimSpace(m.Phone))) < MinPhoneLength:
		return invalid(Messages, "phone must have at least %d digits", MinPhoneLength)
	case strings.TrimSpace(m.Message) == "":
		return invalid(Messages, "message is required")
	}
	return nil
}

// Partner is a client or partner company
type Partner struct {
	Base
	Name    string `gorm:"size:255;not null" json:"name"`
	Logo    string `gorm:"type:text" json:"logo,omitempty"`
	Website string `gorm:"size:512" json:"website,omitempty"`
}

// TableName overrides the table name for Partner
func (Partner) TableName() string { return string(Partners) }

func (*Partner) Collection() Collection { return Partners }

func (p *Partner) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid(Partners, "name is required")
	}
	return nil
}
