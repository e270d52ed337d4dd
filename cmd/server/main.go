package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"bike-lane-sentinel-go/internal/client"
	"bike-lane-sentinel-go/internal/config"
	"bike-lane-sentinel-go/internal/database"
	"bike-lane-sentinel-go/internal/geo"
	"bike-lane-sentinel-go/internal/handler"
	"bike-lane-sentinel-go/internal/repository"
	"bike-lane-sentinel-go/internal/service"
)

func main() {
	// Загружаем .env, если он есть
	_ = godotenv.Load()

	// Получаем конфигурацию из переменных окружения
	cfg := config.LoadConfig()

	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Запуск Bike Lane Sentinel API Server")

	// Проверяем обязательные параметры: без API ключа модели не стартуем
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Ошибка конфигурации: %v", err)
	}

	// Выбираем хранилище нарушений. По умолчанию данные живут в памяти
	// процесса и теряются при перезапуске (осознанное упрощение демо),
	// DB_ENABLED=true включает PostgreSQL
	var violationRepo repository.ViolationRepository
	if cfg.Database.Enabled {
		logger.Info("Подключение к базе данных...")
		if err := database.Connect(); err != nil {
			logger.Fatalf("Ошибка подключения к базе данных: %v", err)
		}

		logger.Info("Выполнение миграций базы данных...")
		if err := database.Migrate(); err != nil {
			logger.Fatalf("Ошибка выполнения миграций: %v", err)
		}

		if err := database.HealthCheck(); err != nil {
			logger.Fatalf("База данных недоступна: %v", err)
		}

		logger.Info("База данных успешно подключена и готова к работе")
		violationRepo = repository.NewViolationRepository(database.DB)
	} else {
		logger.Info("Используется хранилище нарушений в памяти процесса")
		violationRepo = repository.NewMemoryRepository()
	}

	// Выбираем движок инференса
	var engine service.InferenceEngine
	switch cfg.Inference.Engine {
	case "openai":
		logger.Infof("Движок инференса: OpenAI-совместимый API, модель %s", cfg.OpenAI.Model)
		engine = client.NewOpenAIClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.Inference.Timeout, logger)
	default:
		logger.Info("Движок инференса: Moondream API")
		engine = client.NewMoondreamClient(cfg.Moondream.BaseURL, cfg.Moondream.APIKey, cfg.Inference.Timeout, logger)
	}

	// Инициализируем сервисы
	geoCalc := geo.NewCalculator()
	cameraService := service.NewCameraService(cfg.Cameras.DataURL, cfg.Cameras.FetchTimeout, cfg.Cameras.CacheTTL, geoCalc, logger)
	detectionService := service.NewDetectionService(engine, cameraService, violationRepo, logger, cfg.Inference.Mode, cfg.Upload.MaxFileSize)

	// Инициализируем обработчики
	detectionHandler := handler.NewDetectionHandler(detectionService, logger)
	cameraHandler := handler.NewCameraHandler(cameraService, logger)
	violationHandler := handler.NewViolationHandler(violationRepo, logger)

	// Настраиваем Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg))

	// Регистрируем маршруты под /api с ограничением частоты запросов
	api := router.Group("/api")
	api.Use(handler.RateLimitMiddleware(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests))

	detectionHandler.RegisterRoutes(api)
	cameraHandler.RegisterRoutes(api)
	violationHandler.RegisterRoutes(api)

	// Добавляем базовый маршрут для проверки
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Bike Lane Sentinel API Server",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Endpoint not found",
		})
	})

	// Запускаем сервер
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Сервер запущен на порту %d", cfg.Server.Port)
	logger.Infof("API доступно по адресу: http://localhost:%d/api", cfg.Server.Port)

	if err := router.Run(serverAddr); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

// corsMiddleware настраивает CORS: в development разрешен любой origin
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if cfg.Server.Environment == "production" {
		corsConfig.AllowOrigins = []string{"https://localhost"}
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}

	return cors.New(corsConfig)
}
