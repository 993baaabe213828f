// oxkair-workflow-service runs the case billing orchestrator behind an
// HTTP API: POST /cases accepts clinical notes and case metadata, runs the
// full CPT->{ICD->LCD, CCI->MODIFIER, RVU} pipeline, and returns the
// assembled CaseOutput.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/thomasfortoul/oxkair-workflow/pkg/config"
	"github.com/thomasfortoul/oxkair-workflow/pkg/logging"
	"github.com/thomasfortoul/oxkair-workflow/pkg/version"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agent"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/agents"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/orchestrator"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/services"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/services/aimodel"
	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// caseRequest is the POST /cases request body.
type caseRequest struct {
	CaseID          string                 `json:"caseId"`
	PatientID       string                 `json:"patientId"`
	ProviderID      string                 `json:"providerId"`
	PrimaryNoteText string                 `json:"primaryNoteText"`
	AdditionalNotes []state.AdditionalNote `json:"additionalNotes"`
	MACJurisdiction string                 `json:"macJurisdiction"`
}

func buildRegistry() *agent.Registry {
	reg := agent.NewRegistry()
	reg.RegisterSingle(agents.NewCPTAgent())
	reg.RegisterSingle(agents.NewICDAgent())
	reg.RegisterSingle(agents.NewCCIAgent())
	reg.RegisterSingle(agents.NewLCDAgent())
	reg.RegisterSingle(agents.NewModifierAgent())
	reg.RegisterSingle(agents.NewRVUAgent())
	return reg
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: could not load %s: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	ginMode := getEnv("GIN_MODE", "release")
	gin.SetMode(ginMode)

	log.Printf("Starting %s", version.Full())
	log.Printf("HTTP Port: %s", httpPort)

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	aiModel, err := services.NewDefaultAIModel(resolveAIModelConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to construct AI model backend: %v", err)
	}
	cache := services.NewDefaultCache(cfg.CacheURL)
	perfMonitor := services.NewDefaultPerformanceMonitor(prometheus.DefaultRegisterer)

	svcRegistry := services.NewRegistry(aiModel, cache, perfMonitor)
	for name, backend := range cfg.Backends {
		svcRegistry.AssignBackend(state.AgentName(name), services.Backend{
			Endpoint:   backend.Endpoint,
			Deployment: backend.Deployment,
		})
	}

	reg := buildRegistry()

	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version.Full(),
		})
	})

	router.POST("/cases", func(c *gin.Context) {
		var req caseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Minute)
		defer cancel()

		notes := state.CaseNotes{
			PrimaryNoteText: req.PrimaryNoteText,
			AdditionalNotes: req.AdditionalNotes,
		}
		meta := state.CaseMeta{
			CaseID:     req.CaseID,
			PatientID:  req.PatientID,
			ProviderID: req.ProviderID,
		}

		jurisdiction := req.MACJurisdiction
		if jurisdiction == "" {
			jurisdiction = cfg.Defaults.MACJurisdiction
		}
		opts := workflow.ProcessingOptions{
			MACJurisdiction: jurisdiction,
			ErrorPolicy:     orchestrator.ErrorPolicy(cfg.Defaults.ErrorPolicy),
		}
		if secs := cfg.Defaults.WorkflowTimeoutSeconds; secs != nil {
			opts.Timeout = time.Duration(*secs) * time.Second
		}
		if rp := cfg.Defaults.RetryPolicy; rp != nil {
			opts.RetryPolicy = &workflow.RetryPolicyOptions{MaxRetries: rp.MaxRetries, BackoffMs: rp.BackoffMs}
		}

		logger := logging.New(req.CaseID)
		defer logger.Close()

		result := workflow.ProcessCase(reqCtx, notes, meta, reg, logger, nil, opts, svcRegistry.ServicesFor)
		status := http.StatusOK
		if !result.Success {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, result)
	})

	log.Printf("HTTP server listening on :%s", httpPort)
	if err := router.Run(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func resolveAIModelConfig(cfg *config.Config) aimodel.Config {
	if cfg.AIModel == nil {
		return aimodel.Config{Provider: aimodel.ProviderLocal, Model: "local-default"}
	}
	return aimodel.Config{
		Provider:    aimodel.Provider(cfg.AIModel.Provider),
		Model:       cfg.AIModel.Model,
		Temperature: cfg.AIModel.Temperature,
		MaxTokens:   cfg.AIModel.MaxTokens,
	}
}
