// Command memoryctl wires the memory subsystem together and exposes it as
// a small operator CLI: fetch-context, add, ingest, and promote.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"memoria/internal/config"
	"memoria/internal/contradiction"
	"memoria/internal/domain"
	"memoria/internal/dynamics"
	"memoria/internal/embedding"
	"memoria/internal/emotion"
	"memoria/internal/extract"
	"memoria/internal/fsrs"
	"memoria/internal/graphstore"
	"memoria/internal/ingest"
	"memoria/internal/llm"
	"memoria/internal/memory"
	"memoria/internal/repository"
	"memoria/internal/score"
	"memoria/internal/topic"
	"memoria/internal/vectorstore"
)

const embeddingCacheTTL = 24 * time.Hour

// stack bundles the assembled service, the lower-level SmartIngest handle
// the ingest subcommand talks to directly, and a cleanup func for whatever
// connections were opened.
type stack struct {
	service *memory.MemoryService
	ingest  *ingest.SmartIngest
	dynam   *dynamics.MemoryDynamics
	close   func()
}

func buildStack(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stack, error) {
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis ping failed, embedding cache disabled", zap.Error(err))
			rdb = nil
		}
	}
	embedder := embedding.NewClient(embedding.NewHTTPProvider(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel), rdb, embeddingCacheTTL, logger)

	entityExtractor := extract.NewEntityExtractor(llmClient, logger)
	factExtractor := extract.NewFactExtractor(llmClient, logger)
	topicExtractor := extract.NewTopicExtractor(llmClient, logger)
	detector := contradiction.New(llmClient)

	var (
		vectors  vectorstore.Store
		graph    graphstore.Store
		fsrsRepo repository.FsrsRepository
		closers  []func()
	)

	switch {
	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("memoryctl: connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		pgFsrs := repository.NewPgFsrsRepository(pool)
		if err := pgFsrs.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("memoryctl: ensure fsrs schema: %w", err)
		}
		fsrsRepo = pgFsrs

		pgGraph := graphstore.NewPgStore(pool, entityExtractor)
		if err := pgGraph.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("memoryctl: ensure graph schema: %w", err)
		}
		graph = pgGraph

		vectors = vectorstore.NewPgStore(pool)

	case cfg.SqvectPath != "":
		sv, err := vectorstore.NewSqvectStore(ctx, cfg.SqvectPath, cfg.SqvectDim)
		if err != nil {
			return nil, fmt.Errorf("memoryctl: open sqvect store: %w", err)
		}
		closers = append(closers, func() { _ = sv.Close() })
		vectors = sv
		graph = graphstore.NewMemStore(entityExtractor)
		fsrsRepo = repository.NewMemFsrsRepository()

	default:
		vectors = vectorstore.NewMemStore()
		graph = graphstore.NewMemStore(entityExtractor)
		fsrsRepo = repository.NewMemFsrsRepository()
	}

	engine := fsrs.New()
	if cfg.FSRSWeightsOverride != "" {
		weights, err := fsrs.ParseWeights(cfg.FSRSWeightsOverride)
		if err != nil {
			return nil, fmt.Errorf("memoryctl: %w", err)
		}
		engine = fsrs.NewWithWeights(weights)
	}
	dynam := dynamics.NewWithEngine(fsrsRepo, engine, logger)

	ingester := ingest.New(vectors, embedder, detector, dynam)
	emo := emotion.New(embedder, vectors)
	top := topic.New(embedder, vectors)
	scorer := score.New()

	svc := memory.New(embedder, vectors, graph, emo, top, factExtractor, topicExtractor, ingester, dynam, dynam, scorer, logger)

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return &stack{service: svc, ingest: ingester, dynam: dynam, close: closeAll}, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "memoryctl: load config:", err)
		os.Exit(1)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	root := &cobra.Command{
		Use:   "memoryctl",
		Short: "Operate the persistent memory subsystem",
	}

	var withStack func(run func(*stack) error) error
	withStack = func(run func(*stack) error) error {
		ctx := context.Background()
		st, err := buildStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.close()
		return run(st)
	}

	var fetchUsers string
	fetchCmd := &cobra.Command{
		Use:   "fetch-context <query>",
		Short: "Assemble and print prompt-ready context for a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(func(st *stack) error {
				users := splitCSV(fetchUsers)
				if len(users) == 0 {
					return fmt.Errorf("memoryctl: --users is required")
				}
				mctx := st.service.FetchContext(cmd.Context(), args[0], users)
				sections := st.service.BuildPromptSections(mctx)
				if len(sections) == 0 {
					fmt.Println("(no context)")
					return nil
				}
				fmt.Println(strings.Join(sections, "\n"))
				return nil
			})
		},
	}
	fetchCmd.Flags().StringVar(&fetchUsers, "users", "", "comma-separated user ids (required)")

	var (
		addUser, addChannel, addUserMsg, addAssistantMsg string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Route a conversation turn through extraction, ingestion, and tracking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(func(st *stack) error {
				if addUser == "" {
					return fmt.Errorf("memoryctl: --user is required")
				}
				st.service.Add(cmd.Context(), addUserMsg, addAssistantMsg, addUser, addChannel)
				fmt.Println("ok")
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&addUser, "user", "", "user id (required)")
	addCmd.Flags().StringVar(&addChannel, "channel", "default", "channel id")
	addCmd.Flags().StringVar(&addUserMsg, "user-msg", "", "user message text")
	addCmd.Flags().StringVar(&addAssistantMsg, "assistant-msg", "", "assistant message text")

	var (
		ingestUser, ingestFact string
	)
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run a single fact through SmartIngest directly, bypassing extraction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(func(st *stack) error {
				if ingestUser == "" || ingestFact == "" {
					return fmt.Errorf("memoryctl: --user and --fact are required")
				}
				result, err := st.ingest.Ingest(cmd.Context(), ingestFact, ingestUser)
				if err != nil {
					return err
				}
				fmt.Printf("%s id=%s reason=%q\n", result.Kind, result.ID, result.Reason)
				return nil
			})
		},
	}
	ingestCmd.Flags().StringVar(&ingestUser, "user", "", "user id (required)")
	ingestCmd.Flags().StringVar(&ingestFact, "fact", "", "fact text (required)")

	var (
		promoteUsers, promoteIDs string
	)
	promoteCmd := &cobra.Command{
		Use:   "promote",
		Short: "Record that memories were used in a response, reinforcing their FSRS state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(func(st *stack) error {
				users := splitCSV(promoteUsers)
				ids := splitCSV(promoteIDs)
				if len(users) == 0 || len(ids) == 0 {
					return fmt.Errorf("memoryctl: --users and --ids are required")
				}
				memIDs := make([]domain.MemoryId, len(ids))
				copy(memIDs, ids)
				st.service.PromoteUsed(cmd.Context(), memIDs, users)
				fmt.Println("ok")
				return nil
			})
		},
	}
	promoteCmd.Flags().StringVar(&promoteUsers, "users", "", "comma-separated user ids (required)")
	promoteCmd.Flags().StringVar(&promoteIDs, "ids", "", "comma-separated memory ids (required)")

	root.AddCommand(fetchCmd, addCmd, ingestCmd, promoteCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "memoryctl:", err)
		os.Exit(1)
	}
}
