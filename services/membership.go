package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/nuhgnoej/weDive/models"
)

// Membership error kinds. Every operation fails with exactly one of
// these; anything else coming out of the store is wrapped in
// ErrStoreUnavailable. Domain-rule failures are terminal for the
// operation; retrying a disallowed transition cannot succeed.
var (
	ErrNotAuthorized    = errors.New("not_authorized")
	ErrAlreadyRequested = errors.New("already_requested")
	ErrInvalidState     = errors.New("invalid_state")
	ErrRoomFull         = errors.New("room_full")
	ErrNotFound         = errors.New("not_found")
	ErrStoreUnavailable = errors.New("collaborator_unavailable")
)

// MembershipStore is the persistence contract the membership manager
// runs against. CreateParticipant must refuse a second non-terminal
// record per (room, user); UpdateParticipantStatus must be conditional
// on the expected current status and, for approvals, must re-check room
// capacity atomically so concurrent approvals cannot jointly exceed it.
type MembershipStore interface {
	GetRoom(ctx context.Context, roomID uint) (*models.Room, error)
	ListParticipants(ctx context.Context, roomID uint, statuses ...string) ([]models.Participant, error)
	CreateParticipant(ctx context.Context, roomID, userID uint, message string) (*models.Participant, error)
	UpdateParticipantStatus(ctx context.Context, participantID uint, expected, next string) (*models.Participant, error)
}

// Membership owns the participation state machine for (room, user)
// pairs: pending -> approved | rejected, both terminal. It never caches
// state; each operation re-reads the room and participants from the
// store before validating a transition.
type Membership struct {
	store MembershipStore
}

func NewMembership(store MembershipStore) *Membership {
	return &Membership{store: store}
}

// RequestJoin files a pending join request for userID. The room's
// creator cannot request (they are already an approved member), and a
// user with a pending or approved record cannot request again. A user
// whose previous request was rejected gets a fresh record.
func (m *Membership) RequestJoin(ctx context.Context, roomID, userID uint, message string) (*models.Participant, error) {
	room, err := m.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, storeErr(err)
	}

	if room.CreatorID == userID {
		return nil, fmt.Errorf("creator is already a member: %w", ErrAlreadyRequested)
	}

	participants, err := m.store.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, storeErr(err)
	}
	for i := range participants {
		if participants[i].UserID == userID && participants[i].Active() {
			return nil, ErrAlreadyRequested
		}
	}

	participant, err := m.store.CreateParticipant(ctx, roomID, userID, message)
	if err != nil {
		return nil, storeErr(err)
	}
	return participant, nil
}

// Approve transitions a pending request to approved. Only the room's
// creator may approve, and the approval must not push the approved
// count (creator included) past the room's capacity. The store
// re-checks both conditions atomically at commit time; the checks here
// reject with the precise kind before touching the store.
func (m *Membership) Approve(ctx context.Context, roomID, participantID, actingUserID uint) (*models.Participant, error) {
	room, participants, target, err := m.loadForModeration(ctx, roomID, participantID, actingUserID)
	if err != nil {
		return nil, err
	}

	if target.Terminal() {
		return nil, ErrInvalidState
	}
	if CountApproved(participants, room.CreatorID) >= room.MaxPeople {
		return nil, ErrRoomFull
	}

	updated, err := m.store.UpdateParticipantStatus(ctx, participantID, models.ParticipantPending, models.ParticipantApproved)
	if err != nil {
		return nil, storeErr(err)
	}
	return updated, nil
}

// Reject transitions a pending request to rejected (terminal). Only the
// room's creator may reject.
func (m *Membership) Reject(ctx context.Context, roomID, participantID, actingUserID uint) (*models.Participant, error) {
	_, _, target, err := m.loadForModeration(ctx, roomID, participantID, actingUserID)
	if err != nil {
		return nil, err
	}

	if target.Terminal() {
		return nil, ErrInvalidState
	}

	updated, err := m.store.UpdateParticipantStatus(ctx, participantID, models.ParticipantPending, models.ParticipantRejected)
	if err != nil {
		return nil, storeErr(err)
	}
	return updated, nil
}

func (m *Membership) loadForModeration(ctx context.Context, roomID, participantID, actingUserID uint) (*models.Room, []models.Participant, *models.Participant, error) {
	room, err := m.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, nil, storeErr(err)
	}
	if room.CreatorID != actingUserID {
		return nil, nil, nil, ErrNotAuthorized
	}

	participants, err := m.store.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, nil, nil, storeErr(err)
	}

	idx := slices.IndexFunc(participants, func(p models.Participant) bool {
		return p.ID == participantID
	})
	if idx < 0 {
		return nil, nil, nil, ErrNotFound
	}
	return room, participants, &participants[idx], nil
}

// Access is the set of derived predicates the client renders a room
// with. Computed from a full read of the room and its participants,
// never stored.
type Access struct {
	IsOwner           bool `json:"isOwner"`
	IsApprovedMember  bool `json:"isApprovedMember"`
	HasPendingRequest bool `json:"hasPendingRequest"`
	IsFull            bool `json:"isFull"`
	CanEnterChat      bool `json:"canEnterChat"`
}

// ComputeAccess is a pure derivation; it never mutates its inputs.
func ComputeAccess(room *models.Room, participants []models.Participant, userID uint) Access {
	var access Access
	access.IsOwner = userID == room.CreatorID
	for i := range participants {
		if participants[i].UserID != userID {
			continue
		}
		switch participants[i].Status {
		case models.ParticipantApproved:
			access.IsApprovedMember = true
		case models.ParticipantPending:
			access.HasPendingRequest = true
		}
	}
	if access.IsOwner {
		access.IsApprovedMember = true
	}
	access.IsFull = CountApproved(participants, room.CreatorID) >= room.MaxPeople
	access.CanEnterChat = access.IsOwner || access.IsApprovedMember
	return access
}

// CountApproved counts approved participants plus one for the creator,
// who is implicitly approved and occupies a capacity slot without a
// stored row.
func CountApproved(participants []models.Participant, creatorID uint) int {
	count := 1
	for i := range participants {
		if participants[i].Status == models.ParticipantApproved && participants[i].UserID != creatorID {
			count++
		}
	}
	return count
}

// storeErr passes domain kinds through untouched and wraps everything
// else as a store availability failure.
func storeErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyRequested),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrRoomFull):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
