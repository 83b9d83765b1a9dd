package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MrWong99/hindinames/internal/dataset"
	"github.com/MrWong99/hindinames/internal/report"
	"github.com/MrWong99/hindinames/pkg/types"
)

func (c *cli) reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise pipeline outputs",
		Long: `Summarise pipeline outputs as JSON.

Subcommands:
  canonical    - variant counts of a canonical map
  consistency  - consistency score distribution of a canonical map
  stability    - split a canonical map into stability bands
  confidence   - score profile and most frequent names of a triples file
  sample       - seeded random sample of a triples file`,
	}
	cmd.AddCommand(
		c.canonicalReportCmd("canonical", "Summarise the variant counts of a canonical map",
			func(m types.CanonicalMap) any { return report.Canonical(m) }),
		c.canonicalReportCmd("consistency", "Summarise the consistency scores of a canonical map",
			func(m types.CanonicalMap) any { return report.Consistency(m) }),
		c.stabilityCmd(),
		c.confidenceCmd(),
		c.sampleCmd(),
	)
	return cmd
}

func (c *cli) canonicalReportCmd(use, short string, summarise func(types.CanonicalMap) any) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(_ *cobra.Command, _ []string) error {
			m, err := readCanonical(in)
			if err != nil {
				return err
			}
			return dataset.WriteJSON(c.stdout, summarise(m))
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "canonical map file (- for stdin)")
	return cmd
}

type stabilityCounts struct {
	High int `json:"high"`
	Mid  int `json:"mid"`
	Low  int `json:"low"`
}

func (c *cli) stabilityCmd() *cobra.Command {
	var in, outDir string
	cmd := &cobra.Command{
		Use:   "stability",
		Short: "Split a canonical map into stability bands",
		Long: `Split a canonical map into stability bands.

High holds entries with consistency of at least 0.95, mid those in
[0.90, 0.95) and low the rest. With --out-dir each band is written as a
canonical map file (high.json, mid.json, low.json).`,
		RunE: func(_ *cobra.Command, _ []string) error {
			m, err := readCanonical(in)
			if err != nil {
				return err
			}
			st := report.Stable(m)
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("stability: %w", err)
				}
				for name, band := range map[string]types.CanonicalMap{"high": st.High, "mid": st.Mid, "low": st.Low} {
					if err := dataset.SaveCanonical(filepath.Join(outDir, name+".json"), band); err != nil {
						return err
					}
				}
			}
			return dataset.WriteJSON(c.stdout, stabilityCounts{
				High: st.High.Len(),
				Mid:  st.Mid.Len(),
				Low:  st.Low.Len(),
			})
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "canonical map file (- for stdin)")
	cmd.Flags().StringVarP(&outDir, "out-dir", "d", "", "write each band to this directory")
	return cmd
}

func (c *cli) confidenceCmd() *cobra.Command {
	var in string
	var top int
	cmd := &cobra.Command{
		Use:   "confidence",
		Short: "Summarise the scores and most frequent names of a triples file",
		RunE: func(_ *cobra.Command, _ []string) error {
			triples, err := c.readTriples(in)
			if err != nil {
				return err
			}
			return dataset.WriteJSON(c.stdout, report.Confidence(triples, top))
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input triples file (- for stdin)")
	cmd.Flags().IntVar(&top, "top", 10, "number of most frequent names to list")
	return cmd
}

func (c *cli) sampleCmd() *cobra.Command {
	var in, out string
	var n int
	var seed uint64
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw a seeded random sample of triples for manual review",
		RunE: func(_ *cobra.Command, _ []string) error {
			triples, err := c.readTriples(in)
			if err != nil {
				return err
			}
			sample := report.Sample(triples, n, seed)
			return c.output(out, func(w io.Writer) error { return dataset.WriteTriples(w, sample) })
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "input triples file (- for stdin)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().IntVarP(&n, "n", "n", 20, "sample size")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "random seed")
	return cmd
}

func readCanonical(path string) (types.CanonicalMap, error) {
	r, err := input(path)
	if err != nil {
		return types.CanonicalMap{}, err
	}
	defer r.Close()
	return dataset.ReadCanonical(r)
}
