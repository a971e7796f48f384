package routes

import (
	"net/http"
	"time"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"

	"github.com/nuhgnoej/weDive/models"
	"github.com/nuhgnoej/weDive/storage"
	"github.com/nuhgnoej/weDive/utils"
)

// ListNotifications returns the caller's notifications, newest first
func ListNotifications(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	unreadOnly := ctx.URLParamBoolDefault("unread", false)

	query := storage.DB.Where("user_id = ?", user.ID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	query.Order("created_at DESC").Limit(100).Find(&notifications)

	ctx.JSON(iris.Map{"success": true, "notifications": notifications})
}

// MarkNotificationRead marks one of the caller's notifications as read
func MarkNotificationRead(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	notifID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var notification models.Notification
	if err := storage.DB.First(&notification, notifID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if notification.UserID != user.ID {
		ctx.StopWithStatus(http.StatusForbidden)
		return
	}

	now := time.Now()
	storage.DB.Model(&notification).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": &now,
	})

	ctx.JSON(iris.Map{"success": true})
}
