package models

import "time"

// Room represents a buddy-matching session: one creator recruits divers
// for a trip until capacity is reached. The creator is implicitly an
// approved participant and occupies one of the MaxPeople slots; no
// Participant row is stored for them.
// type: freediving | scuba
type Room struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	CreatorID uint `json:"creatorID" gorm:"not null;index"`
	Creator   User `json:"creator" gorm:"foreignKey:CreatorID"`

	Title       string `json:"title" gorm:"size:100"`
	Location    string `json:"location" gorm:"size:100"`
	Date        string `json:"date" gorm:"size:10"`     // YYYY-MM-DD
	MeetTime    string `json:"meetTime" gorm:"size:5"`  // HH:MM
	MeetPoint   string `json:"meetPoint" gorm:"size:200"`
	Description string `json:"description" gorm:"type:text"`
	Type        string `json:"type" gorm:"size:16;index"`

	MaxPeople       int    `json:"maxPeople" gorm:"not null"`
	LicenseRequired string `json:"licenseRequired" gorm:"size:50"`
	GearRequired    bool   `json:"gearRequired" gorm:"default:false"`
	Public          bool   `json:"public" gorm:"default:true;index"`

	Participants []Participant `json:"participants" gorm:"foreignKey:RoomID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
