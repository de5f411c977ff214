package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/joaodebarro/backend/internal/application/finance"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
)

// PreferenceHandler reads and writes per-screen UI preferences
type PreferenceHandler struct {
	BaseHandler
	preferences *financeapp.PreferenceService
}

// NewPreferenceHandler creates a new PreferenceHandler
func NewPreferenceHandler(preferences *financeapp.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferences: preferences}
}

// Get godoc
// @Summary      Get preferences
// @Description  Stored preferences of a screen, or the defaults
// @Tags         preferences
// @Produce      json
// @Param        scope path string true "Screen" Enums(receivables, payables, dashboard)
// @Success      200 {object} dto.Response{data=finance.Preferences}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /preferences/{scope} [get]
func (h *PreferenceHandler) Get(c *gin.Context) {
	prefs, err := h.preferences.Get(c.Request.Context(), c.Param("scope"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prefs)
}

// Put godoc
// @Summary      Save preferences
// @Description  Unknown values are replaced by defaults; the stored preferences are returned
// @Tags         preferences
// @Accept       json
// @Produce      json
// @Param        scope   path string                 true "Screen" Enums(receivables, payables, dashboard)
// @Param        request body dto.PreferencesRequest true "Preferences"
// @Success      200 {object} dto.Response{data=finance.Preferences}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /preferences/{scope} [put]
func (h *PreferenceHandler) Put(c *gin.Context) {
	var req dto.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	prefs, err := h.preferences.Set(c.Request.Context(), c.Param("scope"), req.ToDomain())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, prefs)
}

// Delete godoc
// @Summary      Clear preferences
// @Tags         preferences
// @Param        scope path string true "Screen" Enums(receivables, payables, dashboard)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /preferences/{scope} [delete]
func (h *PreferenceHandler) Delete(c *gin.Context) {
	if err := h.preferences.Clear(c.Request.Context(), c.Param("scope")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
