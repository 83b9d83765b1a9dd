package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/MrWong99/hindinames/internal/align"
	"github.com/MrWong99/hindinames/internal/canonical"
	"github.com/MrWong99/hindinames/internal/dataset"
	"github.com/MrWong99/hindinames/internal/observe"
	"github.com/MrWong99/hindinames/pkg/types"
)

func (c *cli) workers() int {
	if c.cfg.Render.Workers > 0 {
		return c.cfg.Render.Workers
	}
	return runtime.NumCPU()
}

func (c *cli) renderCmd() *cobra.Command {
	var file, out string

	cmd := &cobra.Command{
		Use:   "render [word...]",
		Short: "Render English names in Devanagari",
		Long: `Render English names in Devanagari.

Words come from the arguments or, with --file, from a file holding one name
per line. Names no phoneme source knows are reported with an error field and
do not stop the batch.`,
		Example: `  hindinames render Delhi Agra
  hindinames render --file names.txt --out rendered.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			words := args
			if file != "" {
				r, err := input(file)
				if err != nil {
					return err
				}
				defer r.Close()
				fromFile, err := dataset.ReadWords(r)
				if err != nil {
					return err
				}
				words = append(words, fromFile...)
			}
			if len(words) == 0 {
				return errors.New("render: no words given")
			}

			engine, err := c.newEngine()
			if err != nil {
				return err
			}
			results, err := engine.RenderAll(cmd.Context(), words, c.workers())
			if err != nil {
				return err
			}
			return c.output(out, func(w io.Writer) error { return dataset.WriteJSON(w, results) })
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one name per line (- for stdin)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (c *cli) scoreCmd() *cobra.Command {
	var in, out, scorer string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score unscored English-Hindi pairs",
		Long: `Score unscored English-Hindi pairs.

Each pair is scored by comparing the rendering of its English text with its
Hindi text. The input is a JSON array of [english, hindi] records; the output
is a JSON array of [english, hindi, score] triples ready for filtering.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name := c.cfg.Render.Scorer
			if scorer != "" {
				name = scorer
			}
			sc, ok := align.ScorerByName(name)
			if !ok {
				return fmt.Errorf("score: unknown scorer %q; valid values: %v", name, align.ScorerNames())
			}

			r, err := input(in)
			if err != nil {
				return err
			}
			defer r.Close()
			pairs, err := dataset.ReadPairs(r, c.readOptions()...)
			if err != nil {
				return err
			}

			engine, err := c.newEngine()
			if err != nil {
				return err
			}
			aligner, err := align.NewAligner(engine, align.WithScorer(sc), align.WithWorkers(c.workers()))
			if err != nil {
				return err
			}
			triples, err := aligner.ScoreAll(cmd.Context(), pairs)
			if err != nil {
				return err
			}
			slog.Info("pairs scored", "pairs", len(triples), "scorer", name)
			return c.output(out, func(w io.Writer) error { return dataset.WriteTriples(w, triples) })
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input pairs file (- for stdin)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&scorer, "scorer", "", "similarity measure overriding render.scorer")
	return cmd
}

func (c *cli) filterCmd() *cobra.Command {
	var in, out, statsPath string

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Drop implausible name pairs",
		Long: `Drop implausible name pairs.

Reads a JSON array of [english, hindi, score] triples and keeps those that
pass every filter rule, in input order. A record without a numeric score is
rejected as invalid input.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			triples, err := c.readTriples(in)
			if err != nil {
				return err
			}

			opts := append(c.cfg.FilterOptions(), align.WithFilterMetrics(observe.DefaultMetrics()))
			accepted, stats := align.NewFilter(opts...).Apply(cmd.Context(), triples)
			slog.Info("filter complete",
				"total", stats.Total,
				"accepted", stats.Accepted,
				"rejected", stats.Total-stats.Accepted,
			)
			if statsPath != "" {
				if err := c.output(statsPath, func(w io.Writer) error { return dataset.WriteJSON(w, stats) }); err != nil {
					return err
				}
			}
			return c.output(out, func(w io.Writer) error { return dataset.WriteTriples(w, accepted) })
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input triples file (- for stdin)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&statsPath, "stats", "", "write per-rule rejection counts to this file")
	return cmd
}

func (c *cli) tiersCmd() *cobra.Command {
	var in, outDir string

	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "Split triples into high, mid and low confidence tiers",
		Long: `Split triples into high, mid and low confidence tiers.

Writes high.json, mid.json and low.json to --out-dir using the thresholds of
the tiers config section.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			triples, err := c.readTriples(in)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("tiers: %w", err)
			}

			t := align.Split(triples, c.cfg.Tiers)
			for _, name := range []string{"high", "mid", "low"} {
				tier, _ := t.Tier(name)
				if err := dataset.SaveTriples(filepath.Join(outDir, name+".json"), tier); err != nil {
					return err
				}
			}
			slog.Info("tiers written",
				"dir", outDir,
				"high", len(t.High),
				"mid", len(t.Mid),
				"low", len(t.Low),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input triples file (- for stdin)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "d", ".", "directory for the tier files")
	return cmd
}

func (c *cli) canonicalizeCmd() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "canonicalize",
		Short: "Pick one canonical Hindi spelling per English name",
		Long: `Pick one canonical Hindi spelling per English name.

Groups triples by exact English text and chooses the most frequent Hindi
spelling, breaking ties by summed score and then by first appearance. When
a store backend is configured the map is also saved to the database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			triples, err := c.readTriples(in)
			if err != nil {
				return err
			}

			m, err := canonical.New(canonical.WithMetrics(observe.DefaultMetrics())).Run(cmd.Context(), triples)
			if err != nil {
				return err
			}

			store, _, closeFn, err := c.openPersistentStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			if store != nil {
				if err := store.Save(cmd.Context(), m); err != nil {
					return err
				}
				slog.Info("canonical map stored", "entries", m.Len())
			}
			return c.output(out, func(w io.Writer) error { return dataset.WriteCanonical(w, m) })
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input triples file (- for stdin)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (c *cli) readTriples(path string) ([]types.Triple, error) {
	r, err := input(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return dataset.ReadTriples(r, c.readOptions()...)
}
