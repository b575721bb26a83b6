// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"kids-talk-go/internal/config"
	"kids-talk-go/internal/handler"
	"kids-talk-go/internal/middleware"
	"kids-talk-go/internal/repository"
	"kids-talk-go/internal/service"
	"kids-talk-go/internal/staging"
	"kids-talk-go/pkg/database"
	"kids-talk-go/pkg/llm"
	"kids-talk-go/pkg/log"
	"kids-talk-go/pkg/speech"
	"kids-talk-go/pkg/token"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("./configs/config.yaml")
	if err != nil {
		panic(err)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 外部服务凭证缺失只告警，不阻止启动；对应请求会在调用时失败
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		log.Warnf("以下外部服务凭证未配置: %s，相关请求将在调用阶段失败", strings.Join(missing, ", "))
	}

	// 3. 初始化数据库和 Redis
	db, err := database.InitMySQL(cfg.Database.MySQL.DSN)
	if err != nil {
		log.Fatal("MySQL 初始化失败", err)
	}
	rdb, err := database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	if err != nil {
		log.Fatal("Redis 初始化失败", err)
	}

	// 4. 静态素材复制（幂等），在对外服务之前完成
	if err := staging.Run(cfg.Media.AssetsDir, cfg.Media.StaticDir); err != nil {
		log.Fatal("静态素材初始化失败", err)
	}

	// 5. 初始化 Repository 与外部服务客户端
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(rdb)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	llmClient := llm.NewClient(cfg.LLM)
	transcriber := speech.NewTranscriber(cfg.STT)
	synthesizer := speech.NewSynthesizer(cfg.TTS)

	// 6. 初始化 Service (依赖注入)
	userService := service.NewUserService(userRepo, sessionRepo, jwtManager)
	conversationService := service.NewConversationService(llmClient, transcriber, synthesizer, cfg.Media.TempDir())

	// 7. 初始化 Handler
	sessionMaxAgeSec := int(jwtManager.SessionDuration() / time.Second)
	userHandler := handler.NewUserHandler(userService, sessionMaxAgeSec)
	pageHandler := handler.NewPageHandler(userService)
	conversationHandler := handler.NewConversationHandler(conversationService, cfg.Media.TempDir())

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.LoadHTMLGlob(cfg.Media.TemplatesGlob)
	r.Static("/static", cfg.Media.StaticDir)

	// 9. 注册路由
	// 公开路由
	r.GET("/", pageHandler.Index)
	r.GET("/check-auth", userHandler.CheckAuth)
	r.GET("/signup", userHandler.SignupPage)
	r.POST("/signup", userHandler.Signup)
	r.GET("/signin", userHandler.SigninPage)
	r.POST("/signin", userHandler.Signin)
	r.GET("/signout", userHandler.Signout)
	r.GET("/check-audio/:filename", conversationHandler.CheckAudio)

	// 对话路由，需要认证
	authed := r.Group("", middleware.AuthMiddleware(userService))
	{
		authed.POST("/generate-response", conversationHandler.GenerateResponse)
		authed.POST("/process-audio", conversationHandler.ProcessAudio)
	}

	// 启动 HTTP 服务器并实现优雅停机
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

	// 等待中断信号以实现优雅停机
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
