package main

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StudyRoom/config"
	"github.com/Gopher0727/StudyRoom/internal/consumer"
	"github.com/Gopher0727/StudyRoom/internal/handlers"
	"github.com/Gopher0727/StudyRoom/internal/repositories"
	"github.com/Gopher0727/StudyRoom/internal/routers"
	"github.com/Gopher0727/StudyRoom/internal/services"
	"github.com/Gopher0727/StudyRoom/internal/storage"
	"github.com/Gopher0727/StudyRoom/internal/utils"
	"github.com/Gopher0727/StudyRoom/internal/ws"
	logger "github.com/Gopher0727/StudyRoom/middleware/log"
	"github.com/Gopher0727/StudyRoom/pkg/middlewares"
	"github.com/Gopher0727/StudyRoom/pkg/mq"
	pkgutils "github.com/Gopher0727/StudyRoom/pkg/utils"
	"github.com/Gopher0727/StudyRoom/utils/snowflake"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("配置初始化失败: %v", err)
	}

	// 初始化结构化日志
	appLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer appLogger.Close()

	// JWT 签发与校验
	tokenManager := pkgutils.NewTokenManager(&cfg.JWT)

	// 初始化全局限流器
	middlewares.InitGlobalLimiter(cfg.RateLimit.Burst, cfg.RateLimit.QPS)

	// 初始化全局协程池，防止高并发下 Goroutine 暴涨
	utils.InitGlobalTaskPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)

	// 初始化 PostgreSQL
	dsn := storage.BuildDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName)
	postgres, err := storage.InitPostgres(dsn, cfg.Postgres.MaxIdleConns, cfg.Postgres.MaxOpenConns)
	if err != nil {
		log.Fatalf("postgres 初始化失败: %v", err)
	}

	// 初始化 Redis
	redisClient, err := storage.InitRedis(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		log.Fatalf("redis 初始化失败: %v", err)
	}

	// 消息 ID 生成器
	idGen, err := snowflake.NewGenerator(snowflake.Config{WorkerID: 1})
	if err != nil {
		log.Fatalf("snowflake 初始化失败: %v", err)
	}

	// 初始化仓储层
	userRepo := repositories.NewUserRepository(postgres)
	courseRepo := repositories.NewCourseRepository(postgres)
	groupRepo := repositories.NewGroupRepository(postgres)
	resourceRepo := repositories.NewResourceRepository(postgres)
	messageRepo := repositories.NewMessageRepository(postgres)
	notificationRepo := repositories.NewNotificationRepository(postgres)
	plannerRepo := repositories.NewPlannerRepository(postgres)
	reportRepo := repositories.NewReportRepository(postgres)

	// 初始化 Kafka Producer (消息 + 通知两个 topic)
	messageProducer, err := mq.NewProducer(&cfg.Kafka, cfg.Kafka.MessageTopic)
	if err != nil {
		log.Printf("Kafka 消息生产者初始化失败: %v。系统将以降级模式运行（直接写入数据库）。", err)
		messageProducer = nil
	} else {
		defer messageProducer.Close()
	}
	var notificationProducer *mq.Producer
	if messageProducer != nil {
		notificationProducer, err = mq.NewProducer(&cfg.Kafka, cfg.Kafka.NotificationTopic)
		if err != nil {
			log.Printf("Kafka 通知生产者初始化失败: %v。通知将直接写入数据库。", err)
			notificationProducer = nil
		} else {
			defer notificationProducer.Close()
		}
	}

	// 初始化服务层
	authService := services.NewAuthService(userRepo, tokenManager)
	courseService := services.NewCourseService(courseRepo)
	notificationService := services.NewNotificationService(notificationRepo, notificationProducer)
	membershipService := services.NewMembershipService(groupRepo, courseRepo, notificationService)
	resourceService := services.NewResourceService(resourceRepo, courseRepo)
	chatService := services.NewChatService(messageRepo, groupRepo, redisClient, idGen)
	plannerService := services.NewPlannerService(plannerRepo, courseRepo)
	reportService := services.NewReportService(reportRepo, resourceRepo, userRepo, notificationService)

	// 初始化 WebSocket Hub
	hub := ws.NewHub(redisClient)
	go hub.Run()

	// 初始化 Kafka Consumer (如果 Kafka 可用)
	if messageProducer != nil {
		msgConsumer := consumer.NewMessageConsumer(chatService, hub)
		consumer.StartConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.MessageTopic, msgConsumer)
	}
	if notificationProducer != nil {
		notifyConsumer := consumer.NewNotificationConsumer(notificationService, hub)
		consumer.StartConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationTopic, notifyConsumer)
	}

	// 初始化处理器
	h := &routers.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Course:       handlers.NewCourseHandler(courseService),
		Group:        handlers.NewGroupHandler(membershipService),
		Resource:     handlers.NewResourceHandler(resourceService),
		Message:      handlers.NewMessageHandler(chatService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Planner:      handlers.NewPlannerHandler(plannerService),
		Report:       handlers.NewReportHandler(reportService),
	}

	// 配置并创建 Gin 引擎
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// 设置路由
	routers.SetupRoutes(r, cfg, h, hub, chatService, messageProducer, tokenManager, appLogger)

	// 启动服务器
	log.Printf("正在启动服务器，监听端口 :%d\n", cfg.Server.Port)
	if err := r.Run(":" + strconv.FormatInt(int64(cfg.Server.Port), 10)); err != nil {
		log.Fatalf("启动服务器失败: %v", err)
	}
}
