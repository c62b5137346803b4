package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yeremiapane/cafe-app/controllers"
	"github.com/yeremiapane/cafe-app/database"
	"github.com/yeremiapane/cafe-app/kds"
	"github.com/yeremiapane/cafe-app/middlewares"
	"github.com/yeremiapane/cafe-app/models"
	"github.com/yeremiapane/cafe-app/services"
	"github.com/yeremiapane/cafe-app/utils"
)

type Options struct {
	DB     *gorm.DB
	Tokens *utils.TokenService
	// Redis backs the shared /auth rate limiter; nil uses a local one.
	Redis *redis.Client
	// Publisher receives order events next to the board hub, e.g. RabbitMQ.
	Publisher services.EventPublisher
	Hub       *kds.Hub

	BcryptCost          int
	CORSOrigins         []string
	AuthRateLimit       int
	PointsRetryInterval time.Duration
}

// SetupRouter wires stores, services and controllers onto a gin engine. The
// returned monitor is not started.
func SetupRouter(opts Options) (*gin.Engine, *services.PointsMonitor) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(opts.CORSOrigins))

	hub := opts.Hub
	if hub == nil {
		hub = kds.NewHub()
	}
	events := services.MultiPublisher{hub, opts.Publisher}

	userStore := database.NewUserStore(opts.DB)
	orderStore := database.NewOrderStore(opts.DB)
	menuStore := database.NewMenuStore(opts.DB)
	rewardStore := database.NewRewardStore(opts.DB)

	ledger := services.NewPointsLedger(userStore, orderStore)
	monitor := services.NewPointsMonitor(ledger, orderStore, events, opts.PointsRetryInterval)

	authCtrl := controllers.NewAuthController(services.NewAuthService(userStore, opts.Tokens, opts.BcryptCost))
	userCtrl := controllers.NewUserController(services.NewUserService(userStore, ledger, opts.BcryptCost))
	menuCtrl := controllers.NewMenuController(menuStore)
	orderCtrl := controllers.NewOrderController(services.NewOrderService(userStore, orderStore, menuStore, ledger, events, monitor))
	rewardCtrl := controllers.NewRewardController(services.NewRewardService(rewardStore, ledger))
	kdsCtrl := controllers.NewKDSController(hub, opts.CORSOrigins)

	staff := []models.Role{models.RoleAdmin, models.RoleStaff}
	requireAuth := middlewares.RequireAuth(opts.Tokens)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      AUTH
	// ----------------------------------------------------------------
	limiter := middlewares.NewRateLimiter("ratelimit:auth", opts.AuthRateLimit, opts.Redis)
	auth := r.Group("/auth")
	{
		limited := auth.Group("", limiter.RateLimit())
		limited.POST("/register", authCtrl.Register)
		limited.POST("/login", authCtrl.Login)
		limited.POST("/refresh-token", authCtrl.RefreshToken)

		auth.GET("/me", requireAuth, authCtrl.Me)
	}

	// ----------------------------------------------------------------
	//                      MENU
	// ----------------------------------------------------------------
	menu := r.Group("/menu")
	{
		menu.GET("", menuCtrl.GetAllMenus)
		menu.GET("/top", menuCtrl.GetTopMenus)
		menu.GET("/:id", menuCtrl.GetMenuByID)

		manage := menu.Group("", middlewares.RequireAuth(opts.Tokens, staff...))
		manage.POST("", menuCtrl.CreateMenu)
		manage.PUT("/:id", menuCtrl.UpdateMenu)
		manage.DELETE("/:id", menuCtrl.DeleteMenu)
	}

	// ----------------------------------------------------------------
	//                      USERS
	// ----------------------------------------------------------------
	users := r.Group("/users", requireAuth)
	{
		users.GET("", middlewares.RoleCheck(staff...), userCtrl.GetAllUsers)
		users.POST("", middlewares.RoleCheck(models.RoleAdmin), userCtrl.CreateUser)
		users.GET("/:id", middlewares.SelfOrRoles("id", staff...), userCtrl.GetUser)
		users.PUT("/:id", middlewares.SelfOrRoles("id", models.RoleAdmin), userCtrl.UpdateUser)
		users.DELETE("/:id", middlewares.RoleCheck(models.RoleAdmin), userCtrl.DeleteUser)
		users.PATCH("/:id/points", middlewares.RoleCheck(staff...), userCtrl.AdjustPoints)
		users.PATCH("/:id/role", middlewares.RoleCheck(models.RoleAdmin), userCtrl.SetRole)
		users.PATCH("/:id/in-store", middlewares.RoleCheck(staff...), userCtrl.SetInStore)
	}

	// ----------------------------------------------------------------
	//                      ORDERS
	// ----------------------------------------------------------------
	orders := r.Group("/orders", requireAuth)
	{
		orders.POST("", orderCtrl.CreateOrder)
		orders.GET("/user/:userId", middlewares.SelfOrRoles("userId", staff...), orderCtrl.GetOrdersByUser)
		orders.GET("/:id", orderCtrl.GetOrderByID)
		orders.PATCH("/:id/status", middlewares.RoleCheck(staff...), orderCtrl.UpdateOrderStatus)
	}

	// ----------------------------------------------------------------
	//                      REWARDS
	// ----------------------------------------------------------------
	rewards := r.Group("/rewards")
	{
		rewards.GET("", rewardCtrl.GetAllRewards)
		rewards.POST("", middlewares.RequireAuth(opts.Tokens, staff...), rewardCtrl.CreateReward)
		rewards.POST("/:id/redeem", requireAuth, rewardCtrl.RedeemReward)
	}

	// live order board for staff
	r.GET("/ws/orders", middlewares.WebSocketAuthMiddleware(opts.Tokens, staff...), kdsCtrl.KDSHandler)

	return r, monitor
}
