package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"github.com/viant/kvmem/engine"
	"github.com/viant/kvmem/memory"
	"github.com/viant/kvmem/snapshot"
)

// EpisodeStats summarises one synthetic episode.
type EpisodeStats struct {
	Episode int
	// Accuracy per presentation: Accuracy[0] is the first sighting of each
	// example, which a fresh class can only get wrong.
	Accuracy []float64
	MeanLoss float64
}

// simulate runs cfg.Episodes episodes. Each episode draws cfg.Classes random
// prototypes with fresh labels and shows cfg.Shots perturbed examples of each
// one, in shuffled batches of at most cfg.Batch rows.
func simulate(ctx context.Context, mem *memory.Memory, cfg SimulateConfig, logger *slog.Logger) ([]EpisodeStats, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	src := rand.New(rand.NewPCG(seed, seed+1))
	dim := mem.Store().Dim()
	var out []EpisodeStats
	for episode := 0; episode < cfg.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		prototypes := make([][]float32, cfg.Classes)
		for c := range prototypes {
			prototypes[c] = make([]float32, dim)
			for j := range prototypes[c] {
				prototypes[c][j] = float32(src.NormFloat64())
			}
		}
		stats := EpisodeStats{Episode: episode, Accuracy: make([]float64, cfg.Shots)}
		var lossSum float64
		var steps int
		for shot := 0; shot < cfg.Shots; shot++ {
			order := src.Perm(cfg.Classes)
			var correct int
			for start := 0; start < len(order); start += cfg.Batch {
				end := min(start+cfg.Batch, len(order))
				x := make([][]float32, 0, end-start)
				y := make([]int64, 0, end-start)
				for _, c := range order[start:end] {
					x = append(x, perturb(src, prototypes[c], cfg.Spread))
					y = append(y, int64(episode*cfg.Classes+c+1))
				}
				res, err := mem.Query(x, y, true)
				if err != nil {
					return out, fmt.Errorf("episode %d: %w", episode, err)
				}
				for i, label := range res.Labels {
					if label == y[i] {
						correct++
					}
				}
				lossSum += res.Loss
				steps++
			}
			stats.Accuracy[shot] = float64(correct) / float64(cfg.Classes)
		}
		if steps > 0 {
			stats.MeanLoss = lossSum / float64(steps)
		}
		logger.Info("episode done",
			slog.Int("episode", episode),
			slog.Any("accuracy", stats.Accuracy),
			slog.Float64("loss", stats.MeanLoss))
		out = append(out, stats)
	}
	return out, nil
}

func perturb(src *rand.Rand, prototype []float32, spread float64) []float32 {
	out := make([]float32, len(prototype))
	for i, v := range prototype {
		out[i] = v + float32(spread*src.NormFloat64())
	}
	return out
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run synthetic one-shot classification episodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			override := SimulateConfig{}
			override.Episodes, _ = flags.GetInt("episodes")
			override.Classes, _ = flags.GetInt("classes")
			override.Shots, _ = flags.GetInt("shots")
			override.Batch, _ = flags.GetInt("batch")
			override.Seed, _ = flags.GetUint64("seed")
			cfg.Simulate.Merge(&override)

			mem, err := memory.New(cfg.Memory, memory.WithLogger(logger))
			if err != nil {
				return err
			}
			stats, err := simulate(cmd.Context(), mem, cfg.Simulate, logger)
			if err != nil {
				return err
			}
			printSummary(cmd, stats)

			dsn, _ := flags.GetString("snapshot")
			if dsn == "" {
				return nil
			}
			db, err := engine.OpenSingle(dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			id, err := snapshot.Save(cmd.Context(), db, cfg.Table, mem)
			if err != nil {
				return err
			}
			logger.Info("snapshot saved", slog.String("id", id), slog.String("table", cfg.Table))
			fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s\n", id)
			return nil
		},
	}
	cmd.Flags().Int("episodes", 0, "Number of episodes (default from config)")
	cmd.Flags().Int("classes", 0, "Classes per episode")
	cmd.Flags().Int("shots", 0, "Presentations of each class per episode")
	cmd.Flags().Int("batch", 0, "Rows per Query call")
	cmd.Flags().Uint64("seed", 0, "Seed for the synthetic data")
	cmd.Flags().String("snapshot", "", "SQLite DSN to save the final memory into")
	return cmd
}

func printSummary(cmd *cobra.Command, stats []EpisodeStats) {
	if len(stats) == 0 {
		return
	}
	shots := len(stats[0].Accuracy)
	mean := make([]float64, shots)
	for _, s := range stats {
		for i, a := range s.Accuracy {
			mean[i] += a / float64(len(stats))
		}
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "episodes: %d\n", len(stats))
	for i, a := range mean {
		fmt.Fprintf(w, "shot %d accuracy: %.3f\n", i+1, a)
	}
}
