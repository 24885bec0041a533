package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"claims-service/internal/ai/gemini"
	"claims-service/internal/config"
	"claims-service/internal/database/minio"
	"claims-service/internal/database/postgres"
	"claims-service/internal/database/redis"
	"claims-service/internal/event"
	"claims-service/internal/handlers"
	"claims-service/internal/models"
	"claims-service/internal/repository"
	"claims-service/internal/services"
)

func setupLogging() (*os.File, error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic: %v\n", r)
		}
	}()

	logDir := filepath.Join("/claims", "log", "claims_service")
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	slog.SetDefault(slog.New(slog.NewJSONHandler(file, nil)))

	return file, nil
}

func loadSessionPolicy(path string) (*models.PolicyConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy config %s: %w", path, err)
	}
	var policy models.PolicyConfig
	if err := json.Unmarshal(raw, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy config %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy config %s is invalid: %w", path, err)
	}
	return &policy, nil
}

func buildGeminiSelector(cfg config.GeminiAPIConfig) *gemini.GeminiClientSelector {
	var clients []gemini.GeminiClient
	for _, key := range strings.Split(cfg.APIKey, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		client, err := gemini.NewGenAIClient(key, cfg.FlashName, cfg.ProName)
		if err != nil {
			slog.Error("failed to initialize Gemini client", "error", err)
			continue
		}
		clients = append(clients, *client)
	}
	if len(clients) == 0 {
		slog.Warn("no Gemini clients configured, document extraction will fail")
	}
	return gemini.NewGeminiClientSelector(clients)
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.New()

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Printf("error connect to database: %s", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		slog.Warn("Redis unavailable, utilization caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		slog.Warn("MinIO unavailable, document storage disabled", "error", err)
		minioClient = nil
	}

	var notifier services.DecisionNotifier
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Warn("RabbitMQ unavailable, decision events disabled", "error", err)
	} else {
		defer rabbitConn.Close()
		notifier = event.NewDecisionPublisher(rabbitConn)
	}

	selector := buildGeminiSelector(cfg.GeminiAPICfg)

	sessionPolicy, err := loadSessionPolicy(cfg.PolicyPath)
	if err != nil {
		log.Fatalf("Failed to load session policy: %v", err)
	}

	policyRepo := repository.NewPolicyRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	itemRepo := repository.NewClaimItemRepository(db)
	issueRepo := repository.NewIssueRepository(db)
	indicatorRepo := repository.NewFraudIndicatorRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	uploadRepo := repository.NewDocumentUploadRepository(db)

	if db != nil {
		if err := policyRepo.Upsert(context.Background(), sessionPolicy); err != nil {
			slog.Warn("failed to sync session policy to storage", "policy_id", sessionPolicy.PolicyID, "error", err)
		}
	}

	utilization := services.NewCachedUtilizationSource(policyRepo, redisClient)
	extractor := services.NewExtractionService(selector)

	processing := services.NewClaimProcessingService(sessionPolicy, services.ProcessingDeps{
		Extractor:   extractor,
		Merger:      services.NewDocumentMerger(claimRepo),
		Eligibility: services.NewEligibilityChecker(memberRepo),
		Validator:   services.NewDocumentValidator(),
		Verifier:    services.NewCoverageVerifier(),
		Analyzer:    services.NewCoverageAnalyzer(services.NewGeminiTestMatcher(selector)),
		Limits:      services.NewLimitValidator(utilization),
		Necessity:   services.NewMedicalNecessityReviewer(services.NewGeminiNecessityReviewer(selector)),
		Fraud:       services.NewFraudDetector(),
		Engine:      services.NewDecisionEngine(),

		Claims:     claimRepo,
		Items:      itemRepo,
		Issues:     issueRepo,
		Indicators: indicatorRepo,
		Audit:      auditRepo,
		Uploads:    uploadRepo,
		Policies:   policyRepo,
		Members:    memberRepo,

		Storage:  minioClient,
		Notifier: notifier,
		Cache:    utilization,
	})

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024,
	})
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Claims service is healthy")
	})

	handlers.NewClaimHandler(processing, extractor).Register(app)
	handlers.NewPolicyHandler(policyRepo, utilization).Register(app)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
