package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-app/middlewares"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/services"
	"github.com/yeremiapane/cafe-app/utils"
)

type RewardController struct {
	rewards *services.RewardService
}

func NewRewardController(rewards *services.RewardService) *RewardController {
	return &RewardController{rewards: rewards}
}

func (rc *RewardController) GetAllRewards(c *gin.Context) {
	rewards, err := rc.rewards.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, rewards)
}

// CreateReward -> POST /rewards (admin, staff). Rewards are available
// unless the body says otherwise.
func (rc *RewardController) CreateReward(c *gin.Context) {
	var req struct {
		Name           string `json:"name" binding:"required"`
		NameEn         string `json:"nameEn"`
		Description    string `json:"description"`
		DescriptionEn  string `json:"descriptionEn"`
		PointsRequired int    `json:"pointsRequired"`
		Image          string `json:"image"`
		Available      *bool  `json:"available"`
	}
	if !bindJSON(c, &req) {
		return
	}
	reward := &models.Reward{
		Name:           req.Name,
		NameEn:         req.NameEn,
		Description:    req.Description,
		DescriptionEn:  req.DescriptionEn,
		PointsRequired: req.PointsRequired,
		Image:          req.Image,
		Available:      req.Available == nil || *req.Available,
	}
	if err := rc.rewards.Create(c.Request.Context(), reward); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, reward)
}

// RedeemReward -> POST /rewards/:id/redeem, debits the caller's points.
func (rc *RewardController) RedeemReward(c *gin.Context) {
	principal := middlewares.MustPrincipal(c)
	if principal == nil {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, reward, err := rc.rewards.Redeem(c.Request.Context(), principal.UserID, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, gin.H{
		"reward": reward,
		"user":   user,
	})
}
