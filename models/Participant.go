package models

import "time"

// Participant statuses. Approved and rejected are terminal; a rejected
// user may re-apply with a fresh pending record.
const (
	ParticipantPending  = "pending"
	ParticipantApproved = "approved"
	ParticipantRejected = "rejected"
)

// Participant records one user's join request to one room.
type Participant struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	RoomID uint `json:"roomID" gorm:"not null;index:idx_room_user"`
	Room   Room `json:"room" gorm:"foreignKey:RoomID"`

	UserID uint `json:"userID" gorm:"not null;index:idx_room_user"`
	User   User `json:"user" gorm:"foreignKey:UserID"`

	Status  string `json:"status" gorm:"size:16;index"`
	Message string `json:"message" gorm:"size:500"` // optional message from requester

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	RespondedAt *time.Time `json:"respondedAt"`
}

// Active reports whether the record still occupies the (room, user)
// pair, i.e. it is pending or approved.
func (p *Participant) Active() bool {
	return p.Status == ParticipantPending || p.Status == ParticipantApproved
}

// Terminal reports whether no further transition is permitted.
func (p *Participant) Terminal() bool {
	return p.Status == ParticipantApproved || p.Status == ParticipantRejected
}
