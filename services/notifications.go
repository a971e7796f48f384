package services

import (
	"log"

	"github.com/nuhgnoej/weDive/models"
	"github.com/nuhgnoej/weDive/storage"
)

// NotificationService persists in-app notification rows. Delivery is
// pull-based: clients poll /api/notifications.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (s *NotificationService) Notify(userID uint, notifType, title, message, refType string, refID uint) {
	notification := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		RefType: refType,
		RefID:   refID,
	}
	if err := storage.DB.Create(&notification).Error; err != nil {
		log.Printf("failed to create notification for user %d: %v", userID, err)
	}
}

// NotifyJoinRequested tells the room owner that someone wants in.
func (s *NotificationService) NotifyJoinRequested(room *models.Room, requester *models.User) {
	s.Notify(room.CreatorID, "join_request", "New Join Request",
		requester.Nickname+" wants to join \""+room.Title+"\"", "room", room.ID)
}

// NotifyJoinResponded tells the requester how the owner decided.
func (s *NotificationService) NotifyJoinResponded(room *models.Room, requesterID uint, approved bool) {
	if approved {
		s.Notify(requesterID, "join_approved", "Join Request Approved",
			"Your request to join \""+room.Title+"\" has been approved!", "room", room.ID)
		return
	}
	s.Notify(requesterID, "join_rejected", "Join Request Rejected",
		"Your request to join \""+room.Title+"\" was rejected", "room", room.ID)
}
