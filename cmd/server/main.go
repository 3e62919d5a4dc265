package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docquery/internal/api"
	"docquery/internal/config"
	"docquery/internal/embedding"
	"docquery/internal/generator"
	"docquery/internal/rag"
	"docquery/internal/retry"
	"docquery/internal/vectorstore"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, relying on environment")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
	}

	embedder, err := embedding.NewFromConfig(&cfg.EmbedLLM, policy,
		time.Duration(cfg.Timeouts.EmbedSecs)*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	gen, err := generator.NewFromConfig(&cfg.GenLLM, cfg.RAG.Temperature, policy,
		time.Duration(cfg.Timeouts.GenerateSecs)*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generator")
	}

	pipeline, err := rag.New(embedder, store, gen, rag.Options{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		TopK:         cfg.RAG.TopK,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing pipeline")
	}

	server := api.NewServer(pipeline)
	if err := server.Run(cfg.Server.Addr); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}

func buildStore(cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.RAG.Store {
	case config.StorePostgres:
		db, err := vectorstore.ConnectPostgres(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return vectorstore.NewPostgresStore(context.Background(), db)
	default:
		return vectorstore.NewChromemStore(cfg.RAG.StoreRoot)
	}
}
