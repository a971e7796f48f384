package routes

import (
	"net/http"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"

	"github.com/nuhgnoej/weDive/models"
	"github.com/nuhgnoej/weDive/services"
	"github.com/nuhgnoej/weDive/storage"
	"github.com/nuhgnoej/weDive/utils"
)

type createRoomInput struct {
	Title           string `json:"title" validate:"required,max=100"`
	Location        string `json:"location" validate:"required,max=100"`
	Date            string `json:"date" validate:"required,len=10"` // YYYY-MM-DD
	MeetTime        string `json:"meetTime" validate:"max=5"`       // HH:MM
	MeetPoint       string `json:"meetPoint" validate:"max=200"`
	Description     string `json:"description" validate:"max=5000"`
	Type            string `json:"type" validate:"required,oneof=freediving scuba"`
	MaxPeople       int    `json:"maxPeople" validate:"required,min=1,max=50"`
	LicenseRequired string `json:"licenseRequired" validate:"max=50"`
	GearRequired    bool   `json:"gearRequired"`
	Public          *bool  `json:"public"`
}

// CreateRoom opens a new matching room. The creator's membership is
// derived, not stored: no Participant row is written for them, and the
// approved count compensates with one implicit slot.
func CreateRoom(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	var input createRoomInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	public := true
	if input.Public != nil {
		public = *input.Public
	}

	room := models.Room{
		CreatorID:       user.ID,
		Title:           input.Title,
		Location:        input.Location,
		Date:            input.Date,
		MeetTime:        input.MeetTime,
		MeetPoint:       input.MeetPoint,
		Description:     input.Description,
		Type:            input.Type,
		MaxPeople:       input.MaxPeople,
		LicenseRequired: input.LicenseRequired,
		GearRequired:    input.GearRequired,
		Public:          public,
	}
	if err := storage.DB.Create(&room).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "room": room})
}

// ListRooms returns public rooms, newest first, paged
func ListRooms(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 50 {
		perPage = 20
	}
	roomType := ctx.URLParamDefault("type", "")

	query := storage.DB.Model(&models.Room{}).Where("public = ?", true)
	if roomType != "" {
		query = query.Where("type = ?", roomType)
	}

	var total int64
	query.Count(&total)

	var rooms []models.Room
	if err := query.Preload("Creator").
		Order("created_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&rooms).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, rooms, page, perPage, total)
}

// GetRoom returns room detail with its participants and the caller's
// derived access predicates
func GetRoom(ctx iris.Context) {
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
	participants, err := store.ListParticipants(ctx, roomID,
		models.ParticipantPending, models.ParticipantApproved)
	if err != nil {
		membershipError(ctx, err)
		return
	}

	access := services.ComputeAccess(room, participants, user.ID)
	ctx.JSON(iris.Map{
		"success":      true,
		"room":         room,
		"participants": participants,
		"access":       access,
	})
}

// DeleteRoom lets the creator delete the room along with its
// participants and messages
func DeleteRoom(ctx iris.Context) {
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

	var room models.Room
	if err := storage.DB.First(&room, roomID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if room.CreatorID != user.ID {
		ctx.StopWithStatus(http.StatusForbidden)
		return
	}

	// Participants and messages first, then the room
	if err := storage.DB.Where("room_id = ?", roomID).Delete(&models.Participant{}).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if err := storage.DB.Where("room_id = ?", roomID).Delete(&models.ChatMessage{}).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if err := storage.DB.Delete(&room).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true})
}
