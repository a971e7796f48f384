package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Nickname            string         `json:"nickname"`
	Email               string         `json:"email" gorm:"uniqueIndex"`
	Password            string         `json:"-"`
	AvatarURL           string         `json:"avatarURL"`
	Bio                 string         `json:"bio"`
	SavedRooms          datatypes.JSON `json:"savedRooms"`
	AllowsNotifications *bool          `json:"allowsNotifications"`
	Role                string         `json:"role" gorm:"type:varchar(20);default:user;index"` // user, admin
}

// Custom JSON marshaling to keep JSON columns as plain arrays
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		SavedRooms []int `json:"savedRooms,omitempty"`
		*Alias
	}{
		SavedRooms: []int{},
		Alias:      (*Alias)(u),
	}

	if u.SavedRooms != nil {
		json.Unmarshal(u.SavedRooms, &aux.SavedRooms)
	}

	return json.Marshal(aux)
}
