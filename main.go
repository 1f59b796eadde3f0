package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cityzenmag/socialhub/aggregator"
	"github.com/cityzenmag/socialhub/cache"
	"github.com/cityzenmag/socialhub/config"
	"github.com/cityzenmag/socialhub/model"
	"github.com/cityzenmag/socialhub/platform"
	"github.com/cityzenmag/socialhub/platform/facebook"
	"github.com/cityzenmag/socialhub/platform/twitter"
	"github.com/cityzenmag/socialhub/platform/youtube"
	"github.com/cityzenmag/socialhub/server"
	"github.com/cityzenmag/socialhub/state"
)

var configPath string

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	root := &cobra.Command{
		Use:   "socialhub",
		Short: "Multi-platform social aggregation engine for CityzenMag",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	root.AddCommand(
		serveCmd(),
		fetchCmd(),
		publishCmd(),
		statusCmd(),
		syncCmd(),
		analyticsCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

// buildManager assembles the adapters for every enabled platform plus the
// configured sync-status store. Disabled platforms get no adapter.
func buildManager(cfg *config.Config) (*aggregator.Manager, error) {
	var adapters []platform.Adapter

	if cfg.Twitter.Enabled {
		adapters = append(adapters, twitter.New(twitter.Config{
			APIKey:          cfg.Twitter.APIKey,
			APISecret:       cfg.Twitter.APISecret,
			BearerToken:     cfg.Twitter.BearerToken,
			AccessToken:     cfg.Twitter.AccessToken,
			Username:        cfg.Twitter.Username,
			RequestsPerHour: cfg.Twitter.RateLimits.RequestsPerHour,
			Timeout:         cfg.RequestTimeout,
		}))
	}
	if cfg.YouTube.Enabled {
		adapters = append(adapters, youtube.New(youtube.Config{
			APIKey:          cfg.YouTube.APIKey,
			ChannelID:       cfg.YouTube.ChannelID,
			RequestsPerHour: cfg.YouTube.RateLimits.RequestsPerHour,
			Timeout:         cfg.RequestTimeout,
		}))
	}
	if cfg.Facebook.Enabled {
		adapters = append(adapters, facebook.New(facebook.Config{
			AppID:           cfg.Facebook.AppID,
			AppSecret:       cfg.Facebook.AppSecret,
			AccessToken:     cfg.Facebook.AccessToken,
			PageID:          cfg.Facebook.PageID,
			Version:         cfg.Facebook.Version,
			RequestsPerHour: cfg.Facebook.RateLimits.RequestsPerHour,
			Timeout:         cfg.RequestTimeout,
		}))
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no platforms enabled in configuration")
	}

	var store state.Store
	if cfg.Dapr.Enabled {
		daprStore, err := state.NewDaprStore(cfg.Dapr.StoreName)
		if err != nil {
			return nil, fmt.Errorf("connecting Dapr state store: %w", err)
		}
		store = daprStore
	} else {
		store = state.NewMemoryStore()
	}

	return aggregator.New(store, adapters...), nil
}

func setup() (*config.Config, *aggregator.Manager, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := buildManager(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, mgr, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, mgr, err := setup()
			if err != nil {
				return err
			}

			var postCache *cache.PostCache
			if cfg.Redis.Enabled {
				postCache, err = cache.New(cmd.Context(), cfg.Redis.Addr, cfg.Redis.Password,
					cfg.Redis.DB, cfg.Redis.TTL)
				if err != nil {
					return fmt.Errorf("connecting redis: %w", err)
				}
				defer postCache.Close()
			}

			authed := mgr.AuthenticateAll(cmd.Context())
			for p, ok := range authed {
				log.Info().Str("platform", string(p)).Bool("authenticated", ok).
					Msg("Platform authentication")
			}

			return server.New(mgr, postCache).Run(cfg.Server.Addr)
		},
	}
}

func fetchCmd() *cobra.Command {
	var limit int
	var hashtag string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch aggregated posts and print them as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, err := setup()
			if err != nil {
				return err
			}

			posts := mgr.FetchAggregatedPosts(cmd.Context(), model.FetchOptions{
				Limit:   limit,
				Hashtag: hashtag,
			})
			return printJSON(posts)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of merged posts")
	cmd.Flags().StringVar(&hashtag, "hashtag", "", "Filter by hashtag")
	return cmd
}

func publishCmd() *cobra.Command {
	var platforms []string
	var text string
	var hashtags []string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a post to one or more platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, err := setup()
			if err != nil {
				return err
			}

			targets := make([]model.Platform, 0, len(platforms))
			for _, p := range platforms {
				targets = append(targets, model.Platform(strings.ToLower(p)))
			}

			results := mgr.PublishToMany(cmd.Context(), targets, model.PostContent{
				Text:     text,
				Hashtags: hashtags,
			})
			for p, result := range results {
				if result.Err != nil {
					fmt.Printf("%s: FAILED (%s): %v\n", p, platform.KindOf(result.Err), result.Err)
					continue
				}
				fmt.Printf("%s: published %s (%s)\n", p, result.Post.ID, result.Post.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&platforms, "platforms", nil, "Target platforms")
	cmd.Flags().StringVar(&text, "text", "", "Post text")
	cmd.Flags().StringSliceVar(&hashtags, "hashtags", nil, "Hashtags to append")
	cmd.MarkFlagRequired("platforms") //nolint:errcheck
	cmd.MarkFlagRequired("text")      //nolint:errcheck
	return cmd
}

func statusCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print per-platform sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, err := setup()
			if err != nil {
				return err
			}

			if probe {
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				defer cancel()
				if err := printJSON(mgr.TestConnections(ctx)); err != nil {
					return err
				}
			}
			return printJSON(mgr.SyncStatuses(cmd.Context()))
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Probe platform connectivity first")
	return cmd
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh sync statuses without printing posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, err := setup()
			if err != nil {
				return err
			}

			mgr.SyncAll(cmd.Context(), model.FetchOptions{})
			return printJSON(mgr.SyncStatuses(cmd.Context()))
		},
	}
}

func analyticsCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print aggregated analytics for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, mgr, err := setup()
			if err != nil {
				return err
			}

			analytics, err := mgr.Analytics(cmd.Context(), model.Period(period))
			if err != nil {
				return err
			}
			return printJSON(analytics)
		},
	}
	cmd.Flags().StringVar(&period, "period", string(model.PeriodWeek), "day|week|month|year")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
