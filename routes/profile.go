package routes

import (
	"encoding/json"
	"net/http"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/datatypes"

	"github.com/nuhgnoej/weDive/models"
	"github.com/nuhgnoej/weDive/storage"
	"github.com/nuhgnoej/weDive/utils"
)

type diveProfileInput struct {
	Nickname       string   `json:"nickname" validate:"max=100"`
	Bio            string   `json:"bio" validate:"max=2000"`
	DiveType       string   `json:"diveType" validate:"omitempty,oneof=freediving scuba both"`
	LicenseLevel   string   `json:"licenseLevel" validate:"max=50"`
	Certifications []string `json:"certifications"`
	YearsOfDiving  int      `json:"yearsOfDiving" validate:"min=0"`
	MaxDepthMeters int      `json:"maxDepthMeters" validate:"min=0"`
	HomeRegion     string   `json:"homeRegion" validate:"max=100"`
	Languages      []string `json:"languages"`
	OwnsGear       bool     `json:"ownsGear"`
	IsPublic       *bool    `json:"isPublic"`
}

// GetDiveProfile returns the caller's dive profile
func GetDiveProfile(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	var profile models.DiveProfile
	if err := storage.DB.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		ctx.JSON(iris.Map{"success": true, "profile": nil})
		return
	}
	ctx.JSON(iris.Map{"success": true, "profile": &profile})
}

// CreateOrUpdateDiveProfile upserts the caller's dive profile
func CreateOrUpdateDiveProfile(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	var input diveProfileInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	certifications, _ := json.Marshal(input.Certifications)
	languages, _ := json.Marshal(input.Languages)

	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	var profile models.DiveProfile
	err := storage.DB.Where("user_id = ?", user.ID).First(&profile).Error
	if err != nil {
		profile = models.DiveProfile{
			UserID:         user.ID,
			Nickname:       input.Nickname,
			Bio:            input.Bio,
			DiveType:       input.DiveType,
			LicenseLevel:   input.LicenseLevel,
			Certifications: datatypes.JSON(certifications),
			YearsOfDiving:  input.YearsOfDiving,
			MaxDepthMeters: input.MaxDepthMeters,
			HomeRegion:     input.HomeRegion,
			Languages:      datatypes.JSON(languages),
			OwnsGear:       input.OwnsGear,
			IsPublic:       isPublic,
		}
		if err := storage.DB.Create(&profile).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		ctx.JSON(iris.Map{"success": true, "profile": &profile})
		return
	}

	updates := map[string]interface{}{
		"nickname":         input.Nickname,
		"bio":              input.Bio,
		"dive_type":        input.DiveType,
		"license_level":    input.LicenseLevel,
		"certifications":   datatypes.JSON(certifications),
		"years_of_diving":  input.YearsOfDiving,
		"max_depth_meters": input.MaxDepthMeters,
		"home_region":      input.HomeRegion,
		"languages":        datatypes.JSON(languages),
		"owns_gear":        input.OwnsGear,
		"is_public":        isPublic,
	}
	if err := storage.DB.Model(&profile).Updates(updates).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"success": true, "profile": &profile})
}

// DeleteDiveProfile soft-deletes the caller's dive profile
func DeleteDiveProfile(ctx iris.Context) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(http.StatusUnauthorized)
		return
	}
	user := tok.(*utils.AccessToken)

	if err := storage.DB.Where("user_id = ?", user.ID).Delete(&models.DiveProfile{}).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true})
}
