package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eluia/engine/config"
	"github.com/eluia/engine/internal/cache"
	"github.com/eluia/engine/internal/chat"
	"github.com/eluia/engine/internal/db"
	"github.com/eluia/engine/internal/documents"
	"github.com/eluia/engine/internal/embeddings"
	"github.com/eluia/engine/internal/llm"
	"github.com/eluia/engine/internal/rag"
	"github.com/eluia/engine/internal/ratelimit"
	"github.com/eluia/engine/internal/tui"
)

func main() {
	var (
		migrateFlag  = flag.Bool("migrate", false, "Print database migration instructions")
		ingestFlag   = flag.String("ingest", "", "Path of a program document to ingest")
		categoryFlag = flag.String("category", "program", "Document category for -ingest (program, talking_points, competitive)")
		statsFlag    = flag.Bool("stats", false, "Print today's spend and recent conversations")
	)
	flag.Parse()

	// Load configuration; invalid chunking parameters fail here, at
	// startup, not on the first upload.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *migrateFlag {
		printMigrations()
		return
	}

	database, err := db.New(cfg.Database.ConnectionString)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	embedder := embeddings.NewOllamaEmbedder(cfg.Embeddings.BaseURL, cfg.Embeddings.Model)

	if *ingestFlag != "" {
		if err := runIngest(cfg, database, embedder, *ingestFlag, *categoryFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing document: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *statsFlag {
		if err := runStats(cfg, database); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stats: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runChat(cfg, database, embedder); err != nil {
		fmt.Fprintf(os.Stderr, "Error running chat: %v\n", err)
		os.Exit(1)
	}
}

// runIngest processes one document upload for the configured candidate.
func runIngest(cfg *config.Config, database *db.DB, embedder embeddings.Embedder, path, category string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	chunker, err := documents.NewChunker(cfg.Processing.ChunkSize, cfg.Processing.ChunkOverlap)
	if err != nil {
		return err
	}
	extractor := documents.NewExtractor(cfg.Processing.MaxPages, cfg.Processing.UnitWords)
	processor := documents.NewProcessor(database, embedder, extractor, chunker)

	stats, err := processor.Process(context.Background(), cfg.Agent.CandidateID, category, data, filepath.Base(path))
	if err != nil {
		return err
	}

	fmt.Printf("Processed %s: %d units, %d chunks (%s)\n", filepath.Base(path), stats.Units, stats.Chunks, category)
	return nil
}

// runStats prints today's provider spend and the latest exchanges for
// the configured candidate.
func runStats(cfg *config.Config, database *db.DB) error {
	ctx := context.Background()
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	spend, err := database.DailyCost(ctx, cfg.Agent.CandidateID, startOfDay)
	if err != nil {
		return err
	}
	fmt.Printf("Spend today (UTC): $%.4f\n", spend)

	convs, err := database.RecentConversations(ctx, cfg.Agent.CandidateID, 10)
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}
	fmt.Printf("Last %d conversations:\n", len(convs))
	for _, conv := range convs {
		fmt.Printf("  [%s] %s (%dms)\n",
			conv.CreatedAt.Format(time.RFC3339), conv.Question, conv.ResponseTimeMS)
	}
	return nil
}

// runChat launches the interactive chat TUI against the configured
// candidate.
func runChat(cfg *config.Config, database *db.DB, embedder embeddings.Embedder) error {
	generator, err := llm.NewGenerator(llm.Config{
		Provider:  cfg.Generation.Provider,
		Model:     cfg.Generation.Model,
		APIKey:    cfg.APIKey(),
		BaseURL:   cfg.Generation.BaseURL,
		MaxTokens: cfg.Generation.MaxTokens,
	})
	if err != nil {
		return err
	}

	retriever := rag.NewRetriever(database, embedder, cfg.Processing.TopK)
	answerCache := cache.New(database)
	limiter := ratelimit.New(database, cfg.RateLimit.PerDay)
	service := chat.NewService(retriever, answerCache, limiter, generator, database)

	profile := &rag.AgentProfile{
		CandidateID:    cfg.Agent.CandidateID,
		Name:           cfg.Agent.Name,
		AgentName:      cfg.Agent.AgentName,
		Tone:           cfg.Agent.Tone,
		ResponseLength: cfg.Agent.ResponseLength,
	}

	program := tea.NewProgram(tui.New(service, profile), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func printMigrations() {
	fmt.Println("Run the schema migration against your PostgreSQL database:")
	fmt.Println("  psql $DATABASE_URL -f migrations/00001_init_schema.up.sql")
	fmt.Println("The pgvector extension must be available: CREATE EXTENSION IF NOT EXISTS vector;")
}
