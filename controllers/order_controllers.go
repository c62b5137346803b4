package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-app/middlewares"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/services"
	"github.com/yeremiapane/cafe-app/utils"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

type orderItemRequest struct {
	MenuItemID uint   `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	Price      int64  `json:"price"`
	Notes      string `json:"notes"`
}

// CreateOrder -> POST /orders. Customers order for themselves; staff and
// admins may order on behalf of another user through userId. The total in
// the body is ignored and recomputed from the items.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	principal := middlewares.MustPrincipal(c)
	if principal == nil {
		return
	}
	var req struct {
		UserID      uint               `json:"userId"`
		Items       []orderItemRequest `json:"items"`
		Total       *int64             `json:"total"`
		TableNumber *int               `json:"tableNumber"`
	}
	if !bindJSON(c, &req) {
		return
	}

	userID := principal.UserID
	if req.UserID != 0 && req.UserID != principal.UserID {
		if !principal.Role.IsStaff() {
			utils.RespondError(c, utils.NewForbiddenError("cannot place an order for another user"))
			return
		}
		userID = req.UserID
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.OrderItem{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Notes:      it.Notes,
		})
	}

	order, err := oc.orders.CreateOrder(c.Request.Context(), services.CreateOrderInput{
		UserID:      userID,
		Items:       items,
		TableNumber: req.TableNumber,
		ClientTotal: req.Total,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, order)
}

// GetOrderByID -> GET /orders/:id, owner or staff.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	principal := middlewares.MustPrincipal(c)
	if principal == nil {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := oc.orders.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if order.UserID != principal.UserID && !principal.Role.IsStaff() {
		// another customer's order is reported as missing
		utils.RespondError(c, utils.NewNotFoundError(utils.ReasonNotFound, "order not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, order)
}

// GetOrdersByUser -> GET /orders/user/:userId
func (oc *OrderController) GetOrdersByUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	orders, err := oc.orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, orders)
}

// UpdateOrderStatus -> PATCH /orders/:id/status (staff, admin)
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	order, err := oc.orders.UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, order)
}
