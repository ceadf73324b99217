package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/settings"
	"github.com/storefront/backend/internal/domain/social"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SettingsHandler serves the social links document
type SettingsHandler struct {
	BaseHandler
	settingsService *settings.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *settings.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// SocialLinksRequest is the body of a settings save. Absent fields are
// stored as empty strings.
type SocialLinksRequest struct {
	Whatsapp  string `json:"whatsapp" binding:"max=512"`
	Facebook  string `json:"facebook" binding:"max=512"`
	Instagram string `json:"instagram" binding:"max=512"`
	Snapchat  string `json:"snapchat" binding:"max=512"`
}

// SaveSettingsResponse is returned after the links are stored
type SaveSettingsResponse struct {
	Success   bool   `json:"success"`
	SocialURL string `json:"socialUrl"`
}

// Get handles GET /settings
// Unset links are empty strings; a failed read returns all empty
func (h *SettingsHandler) Get(c *gin.Context) {
	links, err := h.settingsService.Links(c.Request.Context())
	if err != nil {
		logger.GetGinLogger(c).Error("Settings read degraded to empty", zap.Error(err))
		links = social.Links{}
	}
	h.Success(c, links)
}

// Links handles GET /settings/links
// Display URLs per network; networks without a usable value are absent
func (h *SettingsHandler) Links(c *gin.Context) {
	links, err := h.settingsService.FormattedLinks(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, links)
}

// Save handles POST /settings
func (h *SettingsHandler) Save(c *gin.Context) {
	var req SocialLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.settingsService.Save(c.Request.Context(), social.Links{
		Whatsapp:  req.Whatsapp,
		Facebook:  req.Facebook,
		Instagram: req.Instagram,
		Snapchat:  req.Snapchat,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SaveSettingsResponse{Success: true, SocialURL: result.URL})
}
