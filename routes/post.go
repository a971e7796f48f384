package routes

import (
	"net/http"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"

	"github.com/nuhgnoej/weDive/models"
	"github.com/nuhgnoej/weDive/storage"
	"github.com/nuhgnoej/weDive/utils"
)

type createPostInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=10000"`
}

type createCommentInput struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// CreatePost adds a community board entry
func CreatePost(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	var input createPostInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	post := models.Post{
		AuthorID: user.ID,
		Title:    input.Title,
		Content:  input.Content,
	}
	if err := storage.DB.Create(&post).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	storage.DB.Preload("Author").First(&post, post.ID)
	ctx.JSON(iris.Map{"success": true, "post": post})
}

// ListPosts returns the community feed, newest first, paged
func ListPosts(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 50 {
		perPage = 20
	}

	var total int64
	storage.DB.Model(&models.Post{}).Count(&total)

	var posts []models.Post
	if err := storage.DB.Preload("Author").Preload("Likes").
		Order("created_at DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&posts).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, posts, page, perPage, total)
}

// GetPost returns one post with comments and likes
func GetPost(ctx iris.Context) {
	postID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var post models.Post
	if err := storage.DB.Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.Author").
		Preload("Likes").
		First(&post, postID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "post": post})
}

// DeletePost lets the author delete their post and its comments/likes
func DeletePost(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	postID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var post models.Post
	if err := storage.DB.First(&post, postID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if post.AuthorID != user.ID {
		ctx.StopWithStatus(http.StatusForbidden)
		return
	}

	storage.DB.Where("post_id = ?", postID).Delete(&models.PostComment{})
	storage.DB.Where("post_id = ?", postID).Delete(&models.PostLike{})
	if err := storage.DB.Delete(&post).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true})
}

// CreateComment adds a comment to a post
func CreateComment(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	postID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var post models.Post
	if err := storage.DB.First(&post, postID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var input createCommentInput
	if err := ctx.ReadJSON(&input); err != nil || input.Content == "" {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	comment := models.PostComment{
		PostID:   postID,
		AuthorID: user.ID,
		Content:  input.Content,
	}
	if err := storage.DB.Create(&comment).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	storage.DB.Preload("Author").First(&comment, comment.ID)
	ctx.JSON(iris.Map{"success": true, "comment": comment})
}

// LikePost records a like; liking twice is a no-op
func LikePost(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	postID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var existing models.PostLike
	if err := storage.DB.Where("post_id = ? AND user_id = ?", postID, user.ID).First(&existing).Error; err == nil {
		ctx.JSON(iris.Map{"success": true})
		return
	}

	like := models.PostLike{PostID: postID, UserID: user.ID}
	if err := storage.DB.Create(&like).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true})
}

// UnlikePost removes the caller's like
func UnlikePost(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)
	postID, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	storage.DB.Where("post_id = ? AND user_id = ?", postID, user.ID).Delete(&models.PostLike{})
	ctx.JSON(iris.Map{"success": true})
}
