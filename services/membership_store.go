package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nuhgnoej/weDive/models"
	"github.com/nuhgnoej/weDive/storage"
)

// gormMembershipStore is the production MembershipStore backed by the
// shared gorm connection. Capacity-sensitive approvals lock the room
// row so concurrent approvals from multiple sessions serialize on the
// database rather than racing past MaxPeople.
type gormMembershipStore struct {
	db *gorm.DB
}

func NewMembershipStore() MembershipStore {
	return &gormMembershipStore{db: storage.DB}
}

func (s *gormMembershipStore) GetRoom(ctx context.Context, roomID uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.WithContext(ctx).Preload("Creator").First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (s *gormMembershipStore) ListParticipants(ctx context.Context, roomID uint, statuses ...string) ([]models.Participant, error) {
	var participants []models.Participant
	query := s.db.WithContext(ctx).Where("room_id = ?", roomID).Preload("User")
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Order("created_at ASC").Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

func (s *gormMembershipStore) CreateParticipant(ctx context.Context, roomID, userID uint, message string) (*models.Participant, error) {
	participant := models.Participant{
		RoomID:  roomID,
		UserID:  userID,
		Status:  models.ParticipantPending,
		Message: message,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the room row so concurrent requests for the same
		// (room, user) serialize on the active count below; under READ
		// COMMITTED a plain count-then-insert lets both through.
		var room models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var active int64
		if err := tx.Model(&models.Participant{}).
			Where("room_id = ? AND user_id = ? AND status IN ?", roomID, userID,
				[]string{models.ParticipantPending, models.ParticipantApproved}).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return ErrAlreadyRequested
		}
		return tx.Create(&participant).Error
	})
	if err != nil {
		return nil, err
	}

	s.db.WithContext(ctx).Preload("User").First(&participant, participant.ID)
	return &participant, nil
}

func (s *gormMembershipStore) UpdateParticipantStatus(ctx context.Context, participantID uint, expected, next string) (*models.Participant, error) {
	var participant models.Participant

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&participant, participantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Lock the room row for the duration of the transition so two
		// approvals cannot both pass the capacity count below.
		var room models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, participant.RoomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if next == models.ParticipantApproved {
			var approved int64
			if err := tx.Model(&models.Participant{}).
				Where("room_id = ? AND status = ? AND user_id != ?", room.ID, models.ParticipantApproved, room.CreatorID).
				Count(&approved).Error; err != nil {
				return err
			}
			// +1 for the creator's implicit slot.
			if int(approved)+1 >= room.MaxPeople {
				return ErrRoomFull
			}
		}

		now := time.Now()
		res := tx.Model(&models.Participant{}).
			Where("id = ? AND status = ?", participantID, expected).
			Updates(map[string]interface{}{"status": next, "responded_at": &now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost a race: status moved out from under us.
			return fmt.Errorf("participant %d is no longer %s: %w", participantID, expected, ErrInvalidState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&participant, participantID).Error; err != nil {
		return nil, err
	}
	return &participant, nil
}
