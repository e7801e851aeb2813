package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-seat-api/internal/handler"
	internalmiddleware "github.com/noah-isme/exam-seat-api/internal/middleware"
	"github.com/noah-isme/exam-seat-api/internal/repository"
	"github.com/noah-isme/exam-seat-api/internal/service"
	"github.com/noah-isme/exam-seat-api/pkg/cache"
	"github.com/noah-isme/exam-seat-api/pkg/config"
	"github.com/noah-isme/exam-seat-api/pkg/database"
	"github.com/noah-isme/exam-seat-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/exam-seat-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/exam-seat-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The allocation list cache is a read optimisation; the API stays
		// up without it.
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	examRepo := repository.NewExamRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	roomSvc := service.NewRoomService(roomRepo, nil, logr)
	examSvc := service.NewExamService(examRepo, nil, logr)
	allocationSvc := service.NewAllocationService(allocationRepo, roomRepo, examRepo, studentRepo, cacheRepo, metricsSvc, cfg.Cache.AllocationTTL, nil, logr)
	exportSvc := service.NewExportService(allocationSvc, nil, nil, logr)
	importSvc := service.NewImportService(studentSvc, logr)

	studentHandler := handler.NewStudentHandler(studentSvc, importSvc, cfg.Imports.MaxFileSizeBytes)
	roomHandler := handler.NewRoomHandler(roomSvc)
	examHandler := handler.NewExamHandler(examSvc)
	allocationHandler := handler.NewAllocationHandler(allocationSvc, exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		students := api.Group("/students")
		students.GET("", studentHandler.List)
		students.POST("", studentHandler.Create)
		students.GET("/search", studentHandler.Search)
		students.POST("/upload", studentHandler.Upload)
		students.GET("/:id", studentHandler.Get)
		students.PUT("/:id", studentHandler.Update)
		students.DELETE("/:id", studentHandler.Delete)

		rooms := api.Group("/rooms")
		rooms.GET("", roomHandler.List)
		rooms.POST("", roomHandler.Create)
		rooms.GET("/:id", roomHandler.Get)
		rooms.PUT("/:id", roomHandler.Update)
		rooms.DELETE("/:id", roomHandler.Delete)

		exams := api.Group("/exams")
		exams.GET("", examHandler.List)
		exams.POST("", examHandler.Create)
		exams.GET("/:id", examHandler.Get)
		exams.PUT("/:id", examHandler.Update)
		exams.DELETE("/:id", examHandler.Delete)

		allocations := api.Group("/allocations")
		allocations.GET("", allocationHandler.List)
		allocations.POST("", allocationHandler.Create)
		allocations.POST("/auto", allocationHandler.AutoAllocate)
		allocations.GET("/student/:studentId", allocationHandler.StudentSeat)
		allocations.GET("/export/csv", allocationHandler.ExportCSV)
		allocations.GET("/export/pdf", allocationHandler.ExportPDF)
		allocations.DELETE("/:id", allocationHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
