package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medimatch/medimatch/pkg/cache"
	"github.com/medimatch/medimatch/pkg/ratelimit"
)

func cacheCmd() *cobra.Command {
	var addr string

	c := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the server's Redis state",
	}

	defaultAddr := os.Getenv("REDIS_ADDR")
	if defaultAddr == "" {
		defaultAddr = "localhost:6379"
	}
	c.PersistentFlags().StringVar(&addr, "redis-addr", defaultAddr, "Redis address (env REDIS_ADDR)")

	c.AddCommand(cachePurgeCmd(&addr), cacheQuotaCmd(&addr))
	return c
}

func dialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func cachePurgeCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete all cached upstream responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := dialRedis(cmd.Context(), *addr)
			if err != nil {
				return err
			}
			defer client.Close()

			n, err := cache.NewManager(client).Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d cached responses\n", n)
			return nil
		},
	}
}

func cacheQuotaCmd(addr *string) *cobra.Command {
	var limit int64

	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Show today's upstream request count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := dialRedis(cmd.Context(), *addr)
			if err != nil {
				return err
			}
			defer client.Close()

			state, err := ratelimit.NewTracker(client, limit, zerolog.Nop()).GetState(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "day:       %s\n", state.Day)
			fmt.Fprintf(w, "used:      %d\n", state.Used)
			if state.Limit > 0 {
				fmt.Fprintf(w, "remaining: %d of %d\n", state.Remaining(), state.Limit)
			}
			fmt.Fprintf(w, "exhausted: %v\n", state.Exhausted)
			fmt.Fprintf(w, "resets in: %s\n", state.TimeUntilReset().Round(time.Minute))
			return nil
		},
	}

	cmd.Flags().Int64Var(&limit, "limit", 0, "daily limit of the service key (0 = unknown)")
	return cmd
}
