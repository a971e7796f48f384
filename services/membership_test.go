package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nuhgnoej/weDive/models"
)

// memStore is an in-memory MembershipStore that honors the same
// contract as the gorm store: duplicate-active conflicts on create and
// conditional, capacity-checked status updates. The mutex stands in
// for the room-row lock that serializes writes in the gorm store.
type memStore struct {
	mu           sync.Mutex
	rooms        map[uint]models.Room
	participants map[uint]models.Participant
	nextID       uint
	failAll      bool
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        map[uint]models.Room{},
		participants: map[uint]models.Participant{},
		nextID:       1,
	}
}

func (s *memStore) addRoom(id, creatorID uint, maxPeople int) {
	s.rooms[id] = models.Room{ID: id, CreatorID: creatorID, MaxPeople: maxPeople, Title: fmt.Sprintf("room-%d", id)}
}

func (s *memStore) GetRoom(_ context.Context, roomID uint) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errors.New("connection refused")
	}
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return &room, nil
}

func (s *memStore) ListParticipants(_ context.Context, roomID uint, statuses ...string) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errors.New("connection refused")
	}
	var out []models.Participant
	for _, p := range s.participants {
		if p.RoomID != roomID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, st := range statuses {
				if p.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) CreateParticipant(_ context.Context, roomID, userID uint, message string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errors.New("connection refused")
	}
	if _, ok := s.rooms[roomID]; !ok {
		return nil, ErrNotFound
	}
	for _, p := range s.participants {
		if p.RoomID == roomID && p.UserID == userID && p.Active() {
			return nil, ErrAlreadyRequested
		}
	}
	participant := models.Participant{
		ID:        s.nextID,
		RoomID:    roomID,
		UserID:    userID,
		Status:    models.ParticipantPending,
		Message:   message,
		CreatedAt: time.Now(),
	}
	s.nextID++
	s.participants[participant.ID] = participant
	return &participant, nil
}

func (s *memStore) UpdateParticipantStatus(_ context.Context, participantID uint, expected, next string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errors.New("connection refused")
	}
	participant, ok := s.participants[participantID]
	if !ok {
		return nil, ErrNotFound
	}
	room := s.rooms[participant.RoomID]
	if next == models.ParticipantApproved {
		approved := 0
		for _, p := range s.participants {
			if p.RoomID == room.ID && p.Status == models.ParticipantApproved && p.UserID != room.CreatorID {
				approved++
			}
		}
		if approved+1 >= room.MaxPeople {
			return nil, ErrRoomFull
		}
	}
	if participant.Status != expected {
		return nil, ErrInvalidState
	}
	now := time.Now()
	participant.Status = next
	participant.RespondedAt = &now
	s.participants[participantID] = participant
	return &participant, nil
}

func (s *memStore) activeCount(roomID, userID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.participants {
		if p.RoomID == roomID && p.UserID == userID && p.Active() {
			n++
		}
	}
	return n
}

const (
	creator = uint(1)
	userA   = uint(2)
	userB   = uint(3)
)

func setup(maxPeople int) (*Membership, *memStore) {
	store := newMemStore()
	store.addRoom(10, creator, maxPeople)
	return NewMembership(store), store
}

func TestRequestJoinHappyPath(t *testing.T) {
	manager, store := setup(2)
	ctx := context.Background()

	participant, err := manager.RequestJoin(ctx, 10, userA, "hi")
	if err != nil {
		t.Fatalf("RequestJoin: %v", err)
	}
	if participant.Status != models.ParticipantPending {
		t.Fatalf("expected pending, got %s", participant.Status)
	}

	approved, err := manager.Approve(ctx, 10, participant.ID, creator)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != models.ParticipantApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}

	participants, _ := store.ListParticipants(ctx, 10)
	access := ComputeAccess(&models.Room{ID: 10, CreatorID: creator, MaxPeople: 2}, participants, userA)
	if !access.IsApprovedMember || !access.CanEnterChat {
		t.Fatalf("approved member should have chat access, got %+v", access)
	}
}

func TestRequestJoinDuplicate(t *testing.T) {
	manager, store := setup(3)
	ctx := context.Background()

	if _, err := manager.RequestJoin(ctx, 10, userA, ""); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := manager.RequestJoin(ctx, 10, userA, "")
	if !errors.Is(err, ErrAlreadyRequested) {
		t.Fatalf("expected already_requested, got %v", err)
	}
	if n := store.activeCount(10, userA); n != 1 {
		t.Fatalf("expected exactly 1 active record, got %d", n)
	}
}

func TestRequestJoinConcurrentDuplicates(t *testing.T) {
	manager, store := setup(3)
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.RequestJoin(ctx, 10, userA, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrAlreadyRequested) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly 1 request to win, got %d", succeeded)
	}
	if n := store.activeCount(10, userA); n != 1 {
		t.Fatalf("expected exactly 1 active record, got %d", n)
	}
}

func TestRequestJoinApprovedMemberCannotRerequest(t *testing.T) {
	manager, store := setup(3)
	ctx := context.Background()

	participant, _ := manager.RequestJoin(ctx, 10, userA, "")
	if _, err := manager.Approve(ctx, 10, participant.ID, creator); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	_, err := manager.RequestJoin(ctx, 10, userA, "")
	if !errors.Is(err, ErrAlreadyRequested) {
		t.Fatalf("expected already_requested, got %v", err)
	}
	if n := store.activeCount(10, userA); n != 1 {
		t.Fatalf("expected exactly 1 active record, got %d", n)
	}
}

func TestRequestJoinByCreator(t *testing.T) {
	manager, _ := setup(3)

	_, err := manager.RequestJoin(context.Background(), 10, creator, "")
	if !errors.Is(err, ErrAlreadyRequested) {
		t.Fatalf("expected already_requested for creator, got %v", err)
	}
}

func TestRequestJoinRoomNotFound(t *testing.T) {
	manager, _ := setup(3)

	_, err := manager.RequestJoin(context.Background(), 99, userA, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestApproveRequiresCreator(t *testing.T) {
	manager, store := setup(3)
	ctx := context.Background()

	participant, _ := manager.RequestJoin(ctx, 10, userA, "")

	if _, err := manager.Approve(ctx, 10, participant.ID, userB); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected not_authorized, got %v", err)
	}
	if _, err := manager.Reject(ctx, 10, participant.ID, userB); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected not_authorized, got %v", err)
	}
	if store.participants[participant.ID].Status != models.ParticipantPending {
		t.Fatal("unauthorized call must not change state")
	}
}

func TestApproveCapacity(t *testing.T) {
	// Capacity 2: the creator's implicit slot plus one approval.
	manager, _ := setup(2)
	ctx := context.Background()

	pa, _ := manager.RequestJoin(ctx, 10, userA, "")
	pb, _ := manager.RequestJoin(ctx, 10, userB, "")

	if _, err := manager.Approve(ctx, 10, pa.ID, creator); err != nil {
		t.Fatalf("first approval should fit: %v", err)
	}
	if _, err := manager.Approve(ctx, 10, pb.ID, creator); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected room_full, got %v", err)
	}
}

func TestApproveCapacityOneCreatorOccupiesSoleSlot(t *testing.T) {
	manager, _ := setup(1)
	ctx := context.Background()

	participant, _ := manager.RequestJoin(ctx, 10, userA, "")
	if _, err := manager.Approve(ctx, 10, participant.ID, creator); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("creator fills capacity 1, expected room_full, got %v", err)
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	manager, _ := setup(3)
	ctx := context.Background()

	pa, _ := manager.RequestJoin(ctx, 10, userA, "")
	pb, _ := manager.RequestJoin(ctx, 10, userB, "")
	manager.Approve(ctx, 10, pa.ID, creator)
	manager.Reject(ctx, 10, pb.ID, creator)

	for _, id := range []uint{pa.ID, pb.ID} {
		if _, err := manager.Approve(ctx, 10, id, creator); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("approve on terminal record: expected invalid_state, got %v", err)
		}
		if _, err := manager.Reject(ctx, 10, id, creator); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("reject on terminal record: expected invalid_state, got %v", err)
		}
	}
}

func TestRejectionDoesNotBlockOthers(t *testing.T) {
	manager, _ := setup(3)
	ctx := context.Background()

	pa, _ := manager.RequestJoin(ctx, 10, userA, "")
	if _, err := manager.Reject(ctx, 10, pa.ID, creator); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	pb, err := manager.RequestJoin(ctx, 10, userB, "")
	if err != nil {
		t.Fatalf("unrelated user should still be able to request: %v", err)
	}
	if _, err := manager.Approve(ctx, 10, pb.ID, creator); err != nil {
		t.Fatalf("unrelated user should still be approvable: %v", err)
	}
}

func TestRejectedUserMayReapply(t *testing.T) {
	manager, store := setup(3)
	ctx := context.Background()

	pa, _ := manager.RequestJoin(ctx, 10, userA, "")
	manager.Reject(ctx, 10, pa.ID, creator)

	fresh, err := manager.RequestJoin(ctx, 10, userA, "second try")
	if err != nil {
		t.Fatalf("re-application after rejection should create a fresh record: %v", err)
	}
	if fresh.ID == pa.ID {
		t.Fatal("re-application must not reuse the rejected record")
	}
	if store.participants[pa.ID].Status != models.ParticipantRejected {
		t.Fatal("rejected record must stay rejected")
	}
	if n := store.activeCount(10, userA); n != 1 {
		t.Fatalf("expected exactly 1 active record, got %d", n)
	}
}

func TestApproveParticipantNotFound(t *testing.T) {
	manager, _ := setup(3)

	_, err := manager.Approve(context.Background(), 10, 999, creator)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestStoreFailureWrapsAsUnavailable(t *testing.T) {
	store := newMemStore()
	store.addRoom(10, creator, 3)
	store.failAll = true
	manager := NewMembership(store)

	_, err := manager.RequestJoin(context.Background(), 10, userA, "")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected collaborator_unavailable, got %v", err)
	}
}

func TestComputeAccess(t *testing.T) {
	room := &models.Room{ID: 10, CreatorID: creator, MaxPeople: 2}
	participants := []models.Participant{
		{ID: 1, RoomID: 10, UserID: userA, Status: models.ParticipantApproved},
		{ID: 2, RoomID: 10, UserID: userB, Status: models.ParticipantPending},
	}

	cases := []struct {
		name   string
		userID uint
		want   Access
	}{
		{"owner", creator, Access{IsOwner: true, IsApprovedMember: true, IsFull: true, CanEnterChat: true}},
		{"approved member", userA, Access{IsApprovedMember: true, IsFull: true, CanEnterChat: true}},
		{"pending applicant", userB, Access{HasPendingRequest: true, IsFull: true}},
		{"stranger", uint(42), Access{IsFull: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeAccess(room, participants, tc.userID)
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestComputeAccessIsPure(t *testing.T) {
	room := &models.Room{ID: 10, CreatorID: creator, MaxPeople: 3}
	participants := []models.Participant{
		{ID: 1, RoomID: 10, UserID: userA, Status: models.ParticipantApproved},
	}
	snapshot := make([]models.Participant, len(participants))
	copy(snapshot, participants)

	first := ComputeAccess(room, participants, userA)
	second := ComputeAccess(room, participants, userA)
	if first != second {
		t.Fatalf("identical inputs produced different outputs: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(participants, snapshot) {
		t.Fatal("ComputeAccess must not mutate its inputs")
	}
}

func TestCountApprovedIncludesCreator(t *testing.T) {
	participants := []models.Participant{
		{UserID: userA, Status: models.ParticipantApproved},
		{UserID: userB, Status: models.ParticipantPending},
		// A stray creator row must not double-count the creator.
		{UserID: creator, Status: models.ParticipantApproved},
	}
	if got := CountApproved(participants, creator); got != 2 {
		t.Fatalf("expected 2 (creator + one approved), got %d", got)
	}
	if got := CountApproved(nil, creator); got != 1 {
		t.Fatalf("empty room should still count the creator, got %d", got)
	}
}
