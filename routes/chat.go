package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"

	"github.com/nuhgnoej/weDive/models"
	"github.com/nuhgnoej/weDive/storage"
	"github.com/nuhgnoej/weDive/utils"
)

type sendMessageInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// ListRoomMessages returns the last 100 messages of a room's chat.
// Entry is gated on the derived access predicates: owner or approved
// member only.
func ListRoomMessages(ctx iris.Context) {
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
	if !access.CanEnterChat {
		utils.JSONError(ctx, http.StatusForbidden, "not_authorized", "only approved members may enter the chat")
		return
	}

	var msgs []models.ChatMessage
	storage.DB.Where("room_id = ?", roomID).
		Preload("Sender").
		Order("id DESC").Limit(100).Find(&msgs)
	// reverse to chronological
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	ctx.JSON(iris.Map{"success": true, "messages": msgs})
}

// SendRoomMessage persists a message; the confirmed row is the sole
// source of truth returned to the client.
func SendRoomMessage(ctx iris.Context) {
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
	if !access.CanEnterChat {
		utils.JSONError(ctx, http.StatusForbidden, "not_authorized", "only approved members may enter the chat")
		return
	}

	var input sendMessageInput
	if err := ctx.ReadJSON(&input); err != nil || input.Content == "" {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	msg := models.ChatMessage{
		RoomID:   roomID,
		SenderID: user.ID,
		Content:  input.Content,
		Type:     "message",
	}
	if err := storage.DB.Create(&msg).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	// preload sender for client display
	storage.DB.Preload("Sender").First(&msg, msg.ID)
	ctx.JSON(iris.Map{"success": true, "message": msg})
}

// Typing indicator: set a short-lived key in Redis for 5 seconds
func Typing(ctx iris.Context) {
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
	if !access.CanEnterChat {
		ctx.StopWithStatus(http.StatusForbidden)
		return
	}

	key := typingKey(roomID, user.ID)
	storage.Redis.Set(ctx, key, "1", 5*time.Second)
	ctx.JSON(iris.Map{"success": true})
}

// ListTyping reports which approved members are currently typing by
// checking their Redis keys
func ListTyping(ctx iris.Context) {
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
	if !access.CanEnterChat {
		ctx.StopWithStatus(http.StatusForbidden)
		return
	}

	var room models.Room
	if err := storage.DB.Preload("Creator").First(&room, roomID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var members []models.Participant
	if err := storage.DB.Where("room_id = ? AND status = ?", roomID, models.ParticipantApproved).
		Preload("User").Find(&members).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	typing := []iris.Map{}
	for _, c := range typingCandidates(&room, members, user.ID) {
		key := typingKey(roomID, c.UserID)
		if val, err := storage.Redis.Get(ctx, key).Result(); err == nil && val == "1" {
			typing = append(typing, iris.Map{
				"userID": c.UserID,
				"name":   c.Name,
			})
		}
	}
	ctx.JSON(iris.Map{"success": true, "typing": typing})
}

type typingCandidate struct {
	UserID uint
	Name   string
}

// typingCandidates lists whose typing keys are worth probing: the
// creator (who has no Participant row) plus the approved members,
// minus the caller.
func typingCandidates(room *models.Room, members []models.Participant, callerID uint) []typingCandidate {
	candidates := []typingCandidate{}
	if room.CreatorID != callerID {
		candidates = append(candidates, typingCandidate{UserID: room.CreatorID, Name: room.Creator.Nickname})
	}
	for _, m := range members {
		if m.UserID == callerID || m.UserID == room.CreatorID {
			continue
		}
		candidates = append(candidates, typingCandidate{UserID: m.UserID, Name: m.User.Nickname})
	}
	return candidates
}

func typingKey(roomID uint, userID uint) string {
	return fmt.Sprintf("typing:room:%d:user:%d", roomID, userID)
}
