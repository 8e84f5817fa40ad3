// Package main provides the analyst CLI: offline scoring, one-shot channel
// analysis and snapshot maintenance.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/ai"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/config"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/db"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/middleware"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/model"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/repository"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/service"
	"github.com/agbarbosa/yt-ai-analyst-sub000/internal/youtube"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "analyst",
		Short:        "Score YouTube videos and generate growth recommendations",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			middleware.InitLogger(level, "yt-analyst-cli")
		},
	}

	rootCmd.SetVersionTemplate("analyst version {{.Version}}\n")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newPruneCmd())

	return rootCmd
}

// newScoreCmd scores a metrics file. An object is scored as one video, an
// array as a channel.
func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <metrics.json>",
		Short: "Score video metrics without calling any external service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read metrics: %w", err)
			}
			score, err := scoreMetrics(data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), score)
		},
	}
}

func scoreMetrics(data []byte) (model.AlgorithmScore, error) {
	scoring := service.NewScoringService()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var videos []model.VideoMetrics
		if err := json.Unmarshal(trimmed, &videos); err != nil {
			return model.AlgorithmScore{}, fmt.Errorf("parse metrics array: %w", err)
		}
		for i := range videos {
			if msg := middleware.ValidateStruct(videos[i]); msg != "" {
				return model.AlgorithmScore{}, fmt.Errorf("video %d: %s", i, msg)
			}
		}
		return scoring.ScoreChannel(videos), nil
	}

	var m model.VideoMetrics
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return model.AlgorithmScore{}, fmt.Errorf("parse metrics: %w", err)
	}
	if msg := middleware.ValidateStruct(m); msg != "" {
		return model.AlgorithmScore{}, fmt.Errorf("invalid metrics: %s", msg)
	}
	return scoring.ScoreVideo(m), nil
}

func newAnalyzeCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "analyze <channelId>",
		Short: "Fetch a channel from YouTube and generate recommendations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.YouTubeAPIKey == "" {
				return fmt.Errorf("missing credentials: set YOUTUBE_API_KEY")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			gemini, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return err
			}

			var opts []youtube.Option
			if cfg.YouTubeBaseURL != "" {
				opts = append(opts, youtube.WithBaseURL(cfg.YouTubeBaseURL))
			}
			source := youtube.NewClient(cfg.YouTubeAPIKey, opts...)

			svc := service.NewRecommendationService(store, gemini, source, nil, service.RecommendationConfig{
				Model:             cfg.GeminiModel,
				Temperature:       cfg.AITemperature,
				MaxTokens:         cfg.AIMaxTokens,
				StrictPrompts:     cfg.StrictPrompts,
				ValidateResponses: cfg.AIValidate,
				MinResponseLength: cfg.AIMinResponseLen,
				MaxVideos:         cfg.YouTubeMaxVideos,
				Retrier:           service.NewRetrier(cfg.AIMaxRetries, cfg.AIRetryBaseDelay),
			})

			channel, videos, err := svc.LoadChannel(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %s (%d videos)...\n", channel.Title, len(videos))

			snap, err := svc.GenerateChannelRecommendations(ctx, *channel, videos)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), snap)
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Overall deadline for fetching and generation")

	return cmd
}

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Run one snapshot retention and expiry pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for prune")
			}

			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			worker := service.NewMaintenanceWorker(store, nil, service.MaintenanceConfig{
				KeepSnapshots: cfg.SnapshotRetention,
				ExpireAfter:   cfg.RecommendationExpiry,
			})
			report, err := worker.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "targets: %d\npruned: %d\nexpired: %d\nelapsed: %s\n",
				report.Targets, report.Pruned, report.Expired, report.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
	return cmd
}

// openStore returns the Postgres store when DATABASE_URL is set and an
// in-memory one otherwise.
func openStore(ctx context.Context, cfg *config.Config) (service.SnapshotStore, func(), error) {
	if cfg.DatabaseURL == "" {
		return repository.NewMemoryStore(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewSnapshotRepo(pool), pool.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
