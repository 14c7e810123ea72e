package routers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/config"
	"github.com/Gopher0727/StudyRoom/internal/handlers"
	"github.com/Gopher0727/StudyRoom/internal/middlewares"
	"github.com/Gopher0727/StudyRoom/internal/services"
	"github.com/Gopher0727/StudyRoom/internal/ws"
	logger "github.com/Gopher0727/StudyRoom/middleware/log"
	pkgmiddlewares "github.com/Gopher0727/StudyRoom/pkg/middlewares"
	"github.com/Gopher0727/StudyRoom/pkg/mq"
	pkgutils "github.com/Gopher0727/StudyRoom/pkg/utils"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Auth         *handlers.AuthHandler
	Course       *handlers.CourseHandler
	Group        *handlers.GroupHandler
	Resource     *handlers.ResourceHandler
	Message      *handlers.MessageHandler
	Notification *handlers.NotificationHandler
	Planner      *handlers.PlannerHandler
	Report       *handlers.ReportHandler
}

// SetupRoutes 设置所有路由
func SetupRoutes(r *gin.Engine, cfg *config.Config,
	h *Handlers,
	hub *ws.Hub, // 注入 Hub
	chatService *services.ChatService, // 注入 ChatService 用于 WS
	kafkaProducer *mq.Producer, // 注入 Producer 用于 WS
	tokens *pkgutils.TokenManager,
	appLogger *logger.Logger,
) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	if appLogger != nil {
		r.Use(logger.GinMiddleware(appLogger))
	}

	// 全局限流中间件 (防止 QPS 过高)
	r.Use(pkgmiddlewares.RateLimitMiddleware(2 * time.Second))

	auth := middlewares.AuthMiddleware(tokens)

	// WebSocket 路由 (必须在 AsyncMiddleware 之前注册，避免握手请求被放入协程池)
	r.GET("/ws", auth, func(c *gin.Context) {
		ws.ServeWs(hub, chatService, kafkaProducer, c)
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"Status": "OK",
		})
	})

	// 异步处理中间件
	// 将请求放入协程池排队执行
	r.Use(middlewares.AsyncMiddleware())

	RegisterUserRoutes(r, auth, h.Auth)
	RegisterCourseRoutes(r, auth, h.Course)
	RegisterGroupRoutes(r, auth, h.Group, h.Message)
	RegisterResourceRoutes(r, auth, h.Resource)
	RegisterNotificationRoutes(r, auth, h.Notification)
	RegisterPlannerRoutes(r, auth, h.Planner)
	RegisterReportRoutes(r, auth, h.Report)
	RegisterPresenceRoutes(r, auth, h.Message)
}

// 用户认证与个人信息
func RegisterUserRoutes(r *gin.Engine, auth gin.HandlerFunc, authHandler *handlers.AuthHandler) {
	userGroup := r.Group("/api/v1/users")
	{
		userGroup.POST("/register", authHandler.Register) // 注册
		userGroup.POST("/login", authHandler.Login)       // 登录
	}
	userGroup.Use(auth)
	{
		userGroup.GET("/me", authHandler.Profile)                   // 获取当前用户信息
		userGroup.PUT("/me", authHandler.UpdateProfile)             // 更新昵称、院系
		userGroup.PATCH("/me/password", authHandler.ChangePassword) // 修改密码
	}
}

// 课程目录
func RegisterCourseRoutes(r *gin.Engine, auth gin.HandlerFunc, courseHandler *handlers.CourseHandler) {
	courseGroup := r.Group("/api/v1/courses")
	courseGroup.Use(auth)
	{
		courseGroup.POST("", courseHandler.CreateCourse) // 创建课程
		courseGroup.GET("", courseHandler.ListCourses)   // 课程列表
		courseGroup.GET("/:id", courseHandler.GetCourse) // 课程详情
	}
}

// 学习小组与成员管理
func RegisterGroupRoutes(r *gin.Engine, auth gin.HandlerFunc, groupHandler *handlers.GroupHandler, messageHandler *handlers.MessageHandler) {
	groupGroup := r.Group("/api/v1/groups")
	groupGroup.Use(auth)
	{
		groupGroup.POST("", groupHandler.CreateGroup)       // 创建小组
		groupGroup.GET("/mine", groupHandler.MyGroups)      // 我的小组列表
		groupGroup.GET("/requests", groupHandler.MyRequests) // 我的待处理申请

		groupGroup.GET("/:id", groupHandler.GetGroup)       // 小组详情
		groupGroup.PUT("/:id", groupHandler.UpdateGroup)    // 更新小组设置
		groupGroup.DELETE("/:id", groupHandler.DeleteGroup) // 删除小组

		// 成员与申请
		groupGroup.POST("/:id/join", groupHandler.Join)            // 公开组直接加入
		groupGroup.POST("/:id/join-request", groupHandler.Join)    // 私有组提交申请
		groupGroup.DELETE("/:id/join-request", groupHandler.CancelRequest) // 撤回申请
		groupGroup.POST("/:id/leave", groupHandler.Leave)          // 退出小组
		groupGroup.GET("/:id/user-status", groupHandler.GetUserStatus) // 我在该小组的状态
		groupGroup.GET("/:id/members", groupHandler.ListMembers)   // 成员列表
		groupGroup.POST("/:id/remove-member/:userID", groupHandler.RemoveMember)          // 移除成员
		groupGroup.GET("/:id/join-requests", groupHandler.ListJoinRequests)               // 待处理申请列表
		groupGroup.POST("/:id/approve-request/:requestID", groupHandler.ApproveRequest)   // 批准申请
		groupGroup.POST("/:id/reject-request/:requestID", groupHandler.RejectRequest)     // 拒绝申请

		// 消息相关
		groupGroup.GET("/:id/messages", messageHandler.History) // 获取消息列表
	}
}

// 课程资源与评论
func RegisterResourceRoutes(r *gin.Engine, auth gin.HandlerFunc, resourceHandler *handlers.ResourceHandler) {
	resourceGroup := r.Group("/api/v1/resources")
	resourceGroup.Use(auth)
	{
		resourceGroup.POST("", resourceHandler.CreateResource)          // 上传资源
		resourceGroup.GET("", resourceHandler.ListByCourse)             // 按课程列出资源
		resourceGroup.GET("/:id", resourceHandler.GetResource)          // 资源详情
		resourceGroup.DELETE("/:id", resourceHandler.DeleteResource)    // 删除资源
		resourceGroup.POST("/:id/vote", resourceHandler.Vote)           // 投票
		resourceGroup.POST("/:id/comments", resourceHandler.AddComment) // 添加评论
		resourceGroup.GET("/:id/comments", resourceHandler.ListComments) // 评论列表
	}
}

// 通知
func RegisterNotificationRoutes(r *gin.Engine, auth gin.HandlerFunc, notificationHandler *handlers.NotificationHandler) {
	notificationGroup := r.Group("/api/v1/notifications")
	notificationGroup.Use(auth)
	{
		notificationGroup.GET("", notificationHandler.List)               // 通知列表
		notificationGroup.GET("/unread", notificationHandler.UnreadCount) // 未读数量
		notificationGroup.POST("/read", notificationHandler.MarkAllRead)  // 全部已读
		notificationGroup.POST("/:id/read", notificationHandler.MarkRead) // 单条已读
	}
}

// 学习日程
func RegisterPlannerRoutes(r *gin.Engine, auth gin.HandlerFunc, plannerHandler *handlers.PlannerHandler) {
	plannerGroup := r.Group("/api/v1/planner")
	plannerGroup.Use(auth)
	{
		plannerGroup.POST("/events", plannerHandler.CreateEvent)       // 创建日程
		plannerGroup.GET("/events", plannerHandler.ListEvents)         // 日程列表
		plannerGroup.PATCH("/events/:id", plannerHandler.UpdateEvent)  // 更新日程
		plannerGroup.DELETE("/events/:id", plannerHandler.DeleteEvent) // 删除日程
	}
}

// 举报与审核
func RegisterReportRoutes(r *gin.Engine, auth gin.HandlerFunc, reportHandler *handlers.ReportHandler) {
	reportGroup := r.Group("/api/v1/reports")
	reportGroup.Use(auth)
	{
		reportGroup.POST("", reportHandler.CreateReport)           // 提交举报
		reportGroup.GET("", reportHandler.ListReports)             // 举报列表 (审核员)
		reportGroup.POST("/:id/resolve", reportHandler.ResolveReport) // 处理举报 (审核员)
	}
}

// 在线状态
func RegisterPresenceRoutes(r *gin.Engine, auth gin.HandlerFunc, messageHandler *handlers.MessageHandler) {
	presenceGroup := r.Group("/api/v1/presence")
	presenceGroup.Use(auth)
	{
		presenceGroup.GET("/:userID", messageHandler.Presence) // 用户是否在线
	}
}
