// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-smart-go/internal/config"
	"campus-smart-go/internal/handler"
	"campus-smart-go/internal/middleware"
	"campus-smart-go/internal/model"
	"campus-smart-go/internal/pipeline"
	"campus-smart-go/internal/relevance"
	"campus-smart-go/internal/repository"
	"campus-smart-go/internal/service"
	"campus-smart-go/pkg/classifier"
	"campus-smart-go/pkg/database"
	"campus-smart-go/pkg/embedding"
	"campus-smart-go/pkg/es"
	"campus-smart-go/pkg/kafka"
	"campus-smart-go/pkg/log"
	"campus-smart-go/pkg/storage"
	"campus-smart-go/pkg/tika"
	"campus-smart-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、缓存与外部存储
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	if err := database.DB.AutoMigrate(
		&model.User{},
		&model.Announcement{},
		&model.CandidateDocument{},
		&model.FAQ{},
		&model.Feedback{},
		&model.KnowledgeFile{},
	); err != nil {
		log.Fatalf("数据库表结构迁移失败: %v", err)
	}

	// 4. 初始化 Repository
	userRepository := repository.NewUserRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)
	announcementRepo := repository.NewAnnouncementRepository(database.DB)
	documentRepo := repository.NewDocumentRepository(database.DB)
	faqRepo := repository.NewFAQRepository(database.DB)
	feedbackRepo := repository.NewFeedbackRepository(database.DB)
	knowledgeFileRepo := repository.NewKnowledgeFileRepository(database.DB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	classifierClient := classifier.NewClient(cfg.Classifier)

	intentService, err := service.NewIntentService(cfg.Intents.CorpusPath)
	if err != nil {
		log.Fatalf("意图语料加载失败: %v", err)
	}

	contextService := service.NewContextService(service.DefaultOfficeRules)
	ranker := relevance.NewRanker(relevance.NewScorer())
	userService := service.NewUserService(userRepository, jwtManager)
	searchService := service.NewSearchService(embeddingClient, es.ESClient, cfg.Elasticsearch.IndexName)
	announcementService := service.NewAnnouncementService(announcementRepo, embeddingClient, cfg.Elasticsearch.IndexName, cfg.Embedding.Model)
	faqService := service.NewFAQService(faqRepo, embeddingClient, cfg.Elasticsearch.IndexName, cfg.Embedding.Model)
	feedbackService := service.NewFeedbackService(feedbackRepo)
	knowledgeService := service.NewKnowledgeService(knowledgeFileRepo, documentRepo, cfg.MinIO)
	conversationService := service.NewConversationService(conversationRepo)
	adminService := service.NewAdminService(userRepository, conversationRepo)
	resolverService := service.NewResolverService(
		cfg.Resolver,
		cfg.Offices,
		contextService,
		intentService,
		classifierClient,
		searchService,
		announcementService,
		conversationRepo,
		ranker,
		documentRepo,
	)

	// 6. 初始化知识文件摄取管道并启动后台 Kafka 消费者
	processor := pipeline.NewProcessor(
		tikaClient,
		embeddingClient,
		cfg.Elasticsearch,
		cfg.MinIO,
		cfg.Embedding,
		knowledgeFileRepo,
		documentRepo,
	)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 6.1 启动时播种意图索引：把语料中的模式句与应答写入向量检索（幂等）
	seedCtx, cancelSeed := context.WithCancel(context.Background())
	defer cancelSeed()
	go seedIntentIndex(seedCtx, intentService, embeddingClient, cfg.Elasticsearch.IndexName, cfg.Embedding.Model)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	userHandler := handler.NewUserHandler(userService)
	chatHandler := handler.NewChatHandler(resolverService, userService, jwtManager)
	announcementHandler := handler.NewAnnouncementHandler(announcementService)
	faqHandler := handler.NewFAQHandler(faqService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService)
	adminHandler := handler.NewAdminHandler(adminService)

	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			authed := users.Group("/")
			authed.Use(middleware.AuthMiddleware(jwtManager, userService))
			{
				authed.GET("/me", userHandler.Profile)
				authed.POST("/logout", userHandler.Logout)
			}
		}

		// Chat 路由：REST 与 WebSocket 两个入口
		chat := apiV1.Group("/chat")
		chat.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			chat.POST("", chatHandler.Chat)
		}
		r.GET("/chat/:token", chatHandler.Handle)

		conversation := apiV1.Group("/users/conversation")
		conversation.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			conversation.GET("", conversationHandler.GetHistory)
		}

		announcements := apiV1.Group("/announcements")
		{
			announcements.GET("", announcementHandler.ListActive)
			announcements.GET("/:id", announcementHandler.GetByID)
		}

		faqs := apiV1.Group("/faqs")
		{
			faqs.GET("", faqHandler.List)
		}

		feedback := apiV1.Group("/feedback")
		feedback.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			feedback.POST("", feedbackHandler.Submit)
		}

		admin := apiV1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtManager, userService), middleware.AdminAuthMiddleware())
		{
			admin.GET("/users/list", adminHandler.ListUsers)
			admin.GET("/conversation", adminHandler.GetAllConversations)
			admin.GET("/feedback", feedbackHandler.List)

			admin.POST("/announcements", announcementHandler.Create)
			admin.DELETE("/announcements/:id", announcementHandler.Deactivate)

			admin.POST("/faqs", faqHandler.Create)
			admin.PUT("/faqs/:id", faqHandler.Update)
			admin.DELETE("/faqs/:id", faqHandler.Delete)

			admin.POST("/knowledge/upload", knowledgeHandler.Upload)
			admin.GET("/knowledge/files", knowledgeHandler.List)
			admin.DELETE("/knowledge/:fileMd5", knowledgeHandler.Delete)
		}
	}

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

// seedIntentIndex 把意图语料的模式句与应答写入向量索引。
// 条目 ID 由标签与序号构成，重复播种会覆盖同 ID 条目，因此幂等。
func seedIntentIndex(ctx context.Context, intentService service.IntentService, embeddingClient embedding.Client, indexName, modelVersion string) {
	seeded := 0
	for _, record := range intentService.All() {
		for i, pattern := range record.Patterns {
			if err := seedEntry(ctx, embeddingClient, indexName, model.EsEntry{
				EntryID:      fmt.Sprintf("pattern-%s-%d", record.Tag, i),
				Tag:          record.Tag,
				EntryType:    model.EntryTypePattern,
				Text:         pattern,
				ModelVersion: modelVersion,
			}); err != nil {
				log.Warnf("seedIntentIndex: 模式句播种失败, tag: %s, error: %v", record.Tag, err)
				continue
			}
			seeded++
		}
		for i, response := range record.Responses {
			if err := seedEntry(ctx, embeddingClient, indexName, model.EsEntry{
				EntryID:      fmt.Sprintf("response-%s-%d", record.Tag, i),
				Tag:          record.Tag,
				EntryType:    model.EntryTypeResponse,
				Text:         response,
				ModelVersion: modelVersion,
			}); err != nil {
				log.Warnf("seedIntentIndex: 应答播种失败, tag: %s, error: %v", record.Tag, err)
				continue
			}
			seeded++
		}
	}
	log.Infof("seedIntentIndex: 意图索引播种完成, entries: %d", seeded)
}

func seedEntry(ctx context.Context, embeddingClient embedding.Client, indexName string, entry model.EsEntry) error {
	vector, err := embeddingClient.CreateEmbedding(ctx, entry.Text)
	if err != nil {
		return err
	}
	entry.Vector = vector
	return es.IndexEntry(ctx, indexName, entry)
}
