package models

import "time"

// ChatMessage stores a single message in a room's chat.
type ChatMessage struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	RoomID uint `json:"roomID" gorm:"not null;index"`
	Room   Room `json:"room" gorm:"foreignKey:RoomID"`

	SenderID uint `json:"senderID" gorm:"not null;index"`
	Sender   User `json:"sender" gorm:"foreignKey:SenderID"`

	Content string `json:"content" gorm:"type:text"`
	Type    string `json:"type" gorm:"size:24"` // system | message

	CreatedAt time.Time `json:"createdAt"`
}
