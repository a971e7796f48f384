package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DiveProfile represents the dive-specific profile information for a user.
// This is separate from the User model which handles authentication.
type DiveProfile struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"userID" gorm:"not null;uniqueIndex"`
	User   User `json:"user" gorm:"foreignKey:UserID"`

	Nickname string `json:"nickname" gorm:"size:100"`
	Bio      string `json:"bio" gorm:"type:text"`

	// Certifications and experience
	DiveType       string         `json:"diveType" gorm:"size:20"`     // freediving, scuba, both
	LicenseLevel   string         `json:"licenseLevel" gorm:"size:50"` // e.g. AIDA2, Open Water
	Certifications datatypes.JSON `json:"certifications"`              // Array of strings
	YearsOfDiving  int            `json:"yearsOfDiving"`
	MaxDepthMeters int            `json:"maxDepthMeters"`

	// Preferences
	HomeRegion string         `json:"homeRegion" gorm:"size:100"`
	Languages  datatypes.JSON `json:"languages"` // Array of strings
	OwnsGear   bool           `json:"ownsGear" gorm:"default:false"`

	IsPublic bool `json:"isPublic" gorm:"default:true"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt" gorm:"index"`
}

// Custom JSON marshaling to render JSON columns as plain arrays
func (p *DiveProfile) MarshalJSON() ([]byte, error) {
	type Alias DiveProfile
	aux := &struct {
		Certifications []string `json:"certifications,omitempty"`
		Languages      []string `json:"languages,omitempty"`
		*Alias
	}{
		Certifications: []string{},
		Languages:      []string{},
		Alias:          (*Alias)(p),
	}

	if p.Certifications != nil {
		json.Unmarshal(p.Certifications, &aux.Certifications)
	}
	if p.Languages != nil {
		json.Unmarshal(p.Languages, &aux.Languages)
	}

	return json.Marshal(aux)
}
