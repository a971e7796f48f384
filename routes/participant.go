package routes

import (
	"errors"
	"net/http"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"

	"github.com/nuhgnoej/weDive/models"
	"github.com/nuhgnoej/weDive/services"
	"github.com/nuhgnoej/weDive/storage"
	"github.com/nuhgnoej/weDive/utils"
)

type requestJoinInput struct {
	Message string `json:"message" validate:"max=500"`
}

// RequestJoin files a pending join request for the caller
func RequestJoin(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	roomID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	// Body is optional; when present it must validate.
	var input requestJoinInput
	if ctx.GetContentLength() > 0 {
		if err := ctx.ReadJSON(&input); err != nil {
			utils.HandleValidationErrors(err, ctx)
			return
		}
	}

	manager := services.NewMembership(services.NewMembershipStore())
	participant, err := manager.RequestJoin(ctx, roomID, user.ID, input.Message)
	if err != nil {
		membershipError(ctx, err)
		return
	}

	// Notify the owner; the request itself already committed
	var room models.Room
	var requester models.User
	if storage.DB.First(&room, roomID).Error == nil && storage.DB.First(&requester, user.ID).Error == nil {
		services.NewNotificationService().NotifyJoinRequested(&room, &requester)
	}

	ctx.JSON(iris.Map{"success": true, "participant": participant})
}

// Approve lets the room creator approve a pending request
func Approve(ctx iris.Context) {
	respondToRequest(ctx, true)
}

// Reject lets the room creator reject a pending request
func Reject(ctx iris.Context) {
	respondToRequest(ctx, false)
}

func respondToRequest(ctx iris.Context, approve bool) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	participantID, err := ctx.Params().GetUint("participantID")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	// The room is resolved from the participant so the owner check runs
	// against the record actually being moderated.
	var record models.Participant
	if err := storage.DB.First(&record, participantID).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "participant not found")
		return
	}

	manager := services.NewMembership(services.NewMembershipStore())

	var participant *models.Participant
	var action string
	if approve {
		participant, err = manager.Approve(ctx, record.RoomID, participantID, user.ID)
		action = "participant.approve"
	} else {
		participant, err = manager.Reject(ctx, record.RoomID, participantID, user.ID)
		action = "participant.reject"
	}
	if err != nil {
		membershipError(ctx, err)
		return
	}

	utils.Audit(ctx, action, "participant", participantID, &record, participant)

	var room models.Room
	if storage.DB.First(&room, record.RoomID).Error == nil {
		services.NewNotificationService().NotifyJoinResponded(&room, record.UserID, approve)
	}

	ctx.JSON(iris.Map{"success": true, "participant": participant})
}

// ListApplicants returns a room's pending requests (owner only)
func ListApplicants(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	roomID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	store := services.NewMembershipStore()
	room, err := store.GetRoom(ctx, roomID)
	if err != nil {
		membershipError(ctx, err)
		return
	}
	if room.CreatorID != user.ID {
		utils.JSONError(ctx, http.StatusForbidden, "not_authorized", "only the room creator may review applicants")
		return
	}

	applicants, err := store.ListParticipants(ctx, roomID, models.ParticipantPending)
	if err != nil {
		membershipError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"success": true, "applicants": applicants})
}

// MyJoinRequests returns the caller's join requests across rooms
func MyJoinRequests(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	var requests []models.Participant
	storage.DB.Where("user_id = ?", user.ID).
		Preload("Room").
		Preload("Room.Creator").
		Order("created_at DESC").
		Find(&requests)

	ctx.JSON(iris.Map{"success": true, "requests": requests})
}

// GetRoomAccess returns the caller's derived access predicates for a room
func GetRoomAccess(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	roomID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	access, err := computeAccessFor(ctx, roomID, user.ID)
	if err != nil {
		membershipError(ctx, err)
		return
	}
	ctx.JSON(iris.Map{"success": true, "access": access})
}

func computeAccessFor(ctx iris.Context, roomID, userID uint) (services.Access, error) {
	store := services.NewMembershipStore()
	room, err := store.GetRoom(ctx, roomID)
	if err != nil {
		return services.Access{}, err
	}
	participants, err := store.ListParticipants(ctx, roomID)
	if err != nil {
		return services.Access{}, err
	}
	return services.ComputeAccess(room, participants, userID), nil
}

// membershipError maps the membership error kinds onto HTTP responses
// with stable codes the client can branch on.
func membershipError(ctx iris.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotAuthorized):
		utils.JSONError(ctx, http.StatusForbidden, "not_authorized", "only the room creator may do this")
	case errors.Is(err, services.ErrAlreadyRequested):
		utils.JSONError(ctx, http.StatusConflict, "already_requested", "you already have an active request for this room")
	case errors.Is(err, services.ErrInvalidState):
		utils.JSONError(ctx, http.StatusConflict, "invalid_state", "this request has already been processed")
	case errors.Is(err, services.ErrRoomFull):
		utils.JSONError(ctx, http.StatusConflict, "room_full", "the room is full")
	case errors.Is(err, services.ErrNotFound):
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "room or participant not found")
	default:
		utils.JSONError(ctx, http.StatusInternalServerError, "collaborator_unavailable", "the data store did not respond, try again")
	}
}
