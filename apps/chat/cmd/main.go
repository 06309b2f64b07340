package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LinkChat/apps/chat/internal/handler"
	"LinkChat/apps/chat/internal/manager"
	"LinkChat/apps/chat/internal/middleware"
	"LinkChat/apps/chat/internal/repository"
	"LinkChat/apps/chat/internal/router"
	v1 "LinkChat/apps/chat/internal/router/v1"
	"LinkChat/apps/chat/internal/server"
	"LinkChat/apps/chat/internal/service"
	"LinkChat/apps/chat/internal/session"
	"LinkChat/config"
	"LinkChat/model"
	"LinkChat/pkg/async"
	"LinkChat/pkg/logger"
	pkgminio "LinkChat/pkg/minio"
	"LinkChat/pkg/mysql"
	pkgredis "LinkChat/pkg/redis"
	"LinkChat/pkg/util"
)

func main() {
	// 启动期日志使用固定 trace_id 串联
	ctx := context.WithValue(context.Background(), "trace_id", "0")

	// 1. 初始化日志（必须最先完成，后续模块初始化都依赖日志输出）
	logCfg := config.DefaultLoggerConfig()
	zl, err := logger.Build(logCfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	logger.ReplaceGlobal(zl)
	defer zl.Sync()

	// 2. 初始化 MySQL 并迁移表结构
	dbCfg := config.DefaultMySQLConfig()
	db, err := mysql.Build(dbCfg)
	if err != nil {
		log.Fatalf("初始化MySQL失败: %v", err)
	}
	mysql.ReplaceGlobal(db)

	if err := db.AutoMigrate(
		&model.UserInfo{},
		&model.UserRelation{},
		&model.FriendApply{},
		&model.Message{},
		&model.CallRecord{},
	); err != nil {
		log.Fatalf("表结构迁移失败: %v", err)
	}

	// 3. 初始化 Redis
	// 快速失败：读写超时 50ms，故障时各依赖方自行降级
	redisCfg := config.DefaultRedisConfig()
	redisCfg.ReadTimeout = 50 * time.Millisecond
	redisCfg.WriteTimeout = 50 * time.Millisecond

	redisClient, err := pkgredis.Build(redisCfg)
	if err != nil {
		// Redis 初始化失败不阻塞启动（降级到只用 MySQL）
		logger.Warn(ctx, "Redis 初始化失败，将降级到 MySQL-Only 模式",
			logger.ErrorField("error", err),
		)
		redisClient = nil
	} else {
		pkgredis.ReplaceGlobal(redisClient)
		logger.Info(ctx, "Redis 初始化成功",
			logger.String("addr", redisCfg.Addr),
		)
	}

	// 4. 初始化 MinIO（可选：不可用时 base64 图片上传不可用，其余功能正常）
	var uploader service.ImageUploader
	minioCfg := config.DefaultMinIOConfig()
	minioClient, err := pkgminio.Build(ctx, minioCfg)
	if err != nil {
		logger.Warn(ctx, "MinIO 初始化失败，图片上传功能不可用",
			logger.ErrorField("error", err),
		)
	} else {
		uploader = minioClient
		logger.Info(ctx, "MinIO 初始化成功",
			logger.String("endpoint", minioCfg.Endpoint),
		)
	}

	// 5. 初始化异步任务池（缓存回填等后台任务）
	async.SetContextPropagator(func(parent context.Context) context.Context {
		bg := context.Background()
		if traceID := parent.Value("trace_id"); traceID != nil {
			bg = context.WithValue(bg, "trace_id", traceID)
		}
		return bg
	})
	if err := async.Init(config.DefaultAsyncConfig()); err != nil {
		log.Fatalf("初始化异步任务池失败: %v", err)
	}
	defer async.Release()

	// 6. 初始化 JWT 签名组件
	jwtCfg := config.DefaultJWTConfig()
	util.InitJWT(jwtCfg)

	// 7. 组装依赖 - Repository 层
	authRepo := repository.NewAuthRepository(db, redisClient)
	userRepo := repository.NewUserRepository(db, redisClient)
	friendRepo := repository.NewFriendRepository(db, redisClient)
	messageRepo := repository.NewMessageRepository(db)
	callRepo := repository.NewCallRepository(db)

	// 8. 组装依赖 - 连接管理器与 Service 层
	connManager := manager.NewConnectionManager()

	authService := service.NewAuthService(authRepo, jwtCfg)
	userService := service.NewUserService(userRepo, uploader)
	friendService := service.NewFriendService(userRepo, friendRepo, connManager)
	messageService := service.NewMessageService(messageRepo, userRepo, uploader, connManager)

	callCfg := config.DefaultCallConfig()
	callStore := session.NewMemoryStore()
	callService := service.NewCallService(callStore, userRepo, callRepo, connManager, callCfg)
	signalService := service.NewSignalService(connManager)

	// 9. 组装依赖 - Handler 层与路由
	handlers := router.Handlers{
		Auth:    v1.NewAuthHandler(authService, userService),
		User:    v1.NewUserHandler(userService),
		Friend:  v1.NewFriendHandler(friendService),
		Message: v1.NewMessageHandler(messageService),
		Call:    v1.NewCallHandler(callService),
		WS:      handler.NewWSHandler(connManager, authService, userService, callService, signalService),
	}

	server.SetGinMode()
	srvCfg := config.DefaultServerConfig()
	engine := router.InitRouter(srvCfg, authService, handlers)
	srv := server.New(srvCfg, engine)

	// 10. 后台刷新运行指标（在线连接数、会话表规模）
	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-metricsCtx.Done():
				return
			case <-ticker.C:
				middleware.SetOnlineConnections(connManager.Count())
				middleware.SetLiveCallSessions(callStore.Len())
			}
		}
	}()

	// 11. 后台启动 HTTP 监听
	go func() {
		logger.Info(ctx, "LinkChat 服务启动中",
			logger.String("addr", srvCfg.Addr),
		)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "LinkChat 服务启动失败",
				logger.ErrorField("error", err),
			)
		}
	}()

	// 12. 阻塞等待系统退出信号（Ctrl+C / SIGTERM）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// 13. 优雅关闭流程：
	// - 停掉通话定时器，避免停机过程中触发状态流转；
	// - 关闭连接管理器，主动断开所有 WebSocket 连接；
	// - 最后关闭 HTTP 服务，等待进行中的请求在超时时间内结束。
	logger.Info(ctx, "LinkChat 服务开始优雅停机")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()

	stopMetrics()
	callService.Shutdown()
	connManager.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "LinkChat 服务优雅停机失败",
			logger.ErrorField("error", err),
		)
		return
	}

	logger.Info(ctx, "LinkChat 服务已退出")
}
