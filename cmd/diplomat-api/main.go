package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/diplomat-labs/diplomat/internal/adapters/llm"
	firestorestore "github.com/diplomat-labs/diplomat/internal/adapters/storage/firestore"
	memstore "github.com/diplomat-labs/diplomat/internal/adapters/storage/memory"
	sqlitestore "github.com/diplomat-labs/diplomat/internal/adapters/storage/sqlite"
	"github.com/diplomat-labs/diplomat/internal/adapters/transport/ws"
	"github.com/diplomat-labs/diplomat/internal/config"
	"github.com/diplomat-labs/diplomat/internal/constitution"
	"github.com/diplomat-labs/diplomat/internal/domain"
	"github.com/diplomat-labs/diplomat/internal/mediator"
	"github.com/diplomat-labs/diplomat/internal/session"

	httpadapter "github.com/diplomat-labs/diplomat/internal/adapters/http"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	model := buildModel(ctx, cfg)
	conversations, messages, constitutions := buildStores(ctx, cfg)

	hub := ws.NewHub()

	prompts := mediator.NewPromptBuilder(config.ReadTextFile(cfg.SystemPromptPath, ""))
	engine := mediator.NewEngine(model, conversations, messages, constitutions, hub, prompts, cfg.ContextWindow)

	sessionSvc := session.NewService(conversations, messages)
	constitutionSvc := constitution.NewService(constitutions, engine,
		config.ReadTextFile(cfg.ConstitutionTemplatePath, ""))

	wsHandler := ws.NewHandler(hub, sessionSvc, engine)
	handler := httpadapter.NewServer(sessionSvc, constitutionSvc, engine, wsHandler)

	addr := ":" + cfg.Port
	log.Println("Diplomat API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}

func buildModel(ctx context.Context, cfg *config.Config) domain.ChatModel {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second

	switch cfg.LLMProvider {
	case config.ProviderVertex:
		log.Println("[LLM] Using Vertex AI model")
		model, err := llm.NewVertexModel(ctx, cfg.GCPProjectID, cfg.GCPLocation,
			cfg.ModelName, cfg.LLMTemperature, timeout)
		if err != nil {
			log.Fatalf("error initializing Vertex model: %v", err)
		}
		return model
	case config.ProviderOpenAI:
		log.Println("[LLM] Using OpenAI-compatible model")
		model, err := llm.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
			cfg.ModelName, cfg.LLMTemperature, timeout)
		if err != nil {
			log.Fatalf("error initializing OpenAI model: %v", err)
		}
		return model
	default:
		log.Println("[LLM] Using MOCK model")
		return llm.NewMockModel()
	}
}

func buildStores(ctx context.Context, cfg *config.Config) (domain.ConversationStore, domain.MessageStore, domain.ConstitutionStore) {
	switch cfg.StorageBackend {
	case "sqlite":
		log.Printf("[STORE] Using SQLite storage (%s)", cfg.SQLitePath)
		store, err := sqlitestore.NewStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		return store, store, store
	case "firestore":
		if cfg.GCPProjectID == "" {
			log.Fatal("DIPLOMAT_GCP_PROJECT is required for the firestore storage backend")
		}
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		store, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		return store, store, store
	default:
		log.Println("[STORE] Using in-memory storage")
		store := memstore.NewStore()
		return store, store, store
	}
}
