package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-app/database"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/utils"
)

const defaultTopLimit = 5

type MenuController struct {
	menu *database.MenuStore
}

func NewMenuController(menu *database.MenuStore) *MenuController {
	return &MenuController{menu: menu}
}

type menuRequest struct {
	Name          string  `json:"name" binding:"required"`
	NameEn        string  `json:"nameEn"`
	Description   string  `json:"description"`
	DescriptionEn string  `json:"descriptionEn"`
	Price         *int64  `json:"price" binding:"required"`
	Category      string  `json:"category"`
	Image         string  `json:"image"`
	Rating        float64 `json:"rating"`
}

func (r menuRequest) apply(item *models.MenuItem) error {
	if strings.TrimSpace(r.Name) == "" {
		return utils.NewValidationError(utils.ReasonInvalidInput, "name is required")
	}
	if *r.Price < 0 {
		return utils.NewValidationError(utils.ReasonInvalidInput, "price must not be negative")
	}
	item.Name = strings.TrimSpace(r.Name)
	item.NameEn = r.NameEn
	item.Description = r.Description
	item.DescriptionEn = r.DescriptionEn
	item.Price = *r.Price
	item.Category = r.Category
	item.Image = r.Image
	item.Rating = r.Rating
	return nil
}

func menuError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return utils.NewNotFoundError(utils.ReasonNotFound, "menu item not found")
	}
	return utils.NewInternalError(err)
}

// GetAllMenus -> GET /menu, optionally filtered by ?category=
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	items, err := mc.menu.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, menuError(err))
		return
	}
	if category := c.Query("category"); category != "" {
		filtered := make([]models.MenuItem, 0, len(items))
		for _, item := range items {
			if strings.EqualFold(item.Category, category) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	utils.RespondJSON(c, http.StatusOK, items)
}

// GetTopMenus -> GET /menu/top?limit=
func (mc *MenuController) GetTopMenus(c *gin.Context) {
	limit := defaultTopLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondError(c, utils.NewValidationError(utils.ReasonInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	items, err := mc.menu.Top(c.Request.Context(), limit)
	if err != nil {
		utils.RespondError(c, menuError(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, items)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := mc.menu.FindByID(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, menuError(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, item)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req menuRequest
	if !bindJSON(c, &req) {
		return
	}
	var item models.MenuItem
	if err := req.apply(&item); err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := mc.menu.Create(c.Request.Context(), &item); err != nil {
		utils.RespondError(c, menuError(err))
		return
	}
	utils.InfoLogger.WithField("menu_item_id", item.ID).Infof("Menu item created: %s", item.Name)
	utils.RespondJSON(c, http.StatusCreated, item)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req menuRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := mc.menu.FindByID(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, menuError(err))
		return
	}
	if err := req.apply(item); err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := mc.menu.Save(c.Request.Context(), item); err != nil {
		utils.RespondError(c, menuError(err))
		return
	}
	utils.RespondJSON(c, http.StatusOK, item)
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := mc.menu.Delete(c.Request.Context(), id); err != nil {
		utils.RespondError(c, menuError(err))
		return
	}
	c.Status(http.StatusNoContent)
}
