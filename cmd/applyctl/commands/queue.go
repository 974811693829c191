package commands

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobapply/internal/async"
	"github.com/joseph-ayodele/jobapply/internal/common"
)

func newQueueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Args:  cobra.NoArgs,
		Short: "Inspect the redis task queue",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "depth",
		Args:  cobra.NoArgs,
		Short: "Print pending and in-flight job counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := common.LoadConfig()
			if err != nil {
				return err
			}
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Queue.RedisAddr,
				Password: cfg.Queue.RedisPassword,
				DB:       cfg.Queue.RedisDB,
			})
			defer rdb.Close()

			q := async.NewRedisQueue(rdb, cfg.Queue.RedisPrefix, common.NewLogger(cmd.ErrOrStderr(), cfg.Log))
			pending, processing, err := q.Depth(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pending=%d processing=%d\n", pending, processing)
			return nil
		},
	})
	return cmd
}
