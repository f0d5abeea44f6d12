package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wildfunctions/treeval/pkg/dataset"
	"github.com/wildfunctions/treeval/pkg/eval"
	"github.com/wildfunctions/treeval/pkg/metrics"
	"github.com/wildfunctions/treeval/pkg/tree"
)

// cliConfig mirrors the flags; fields present in a --config YAML file take
// precedence over flag values.
type cliConfig struct {
	Data      string `yaml:"data"`
	Expr      string `yaml:"expr"`
	Target    string `yaml:"target"`
	Start     int    `yaml:"start"`
	End       int    `yaml:"end"`
	BatchSize int    `yaml:"batch_size"`
}

func (c *cliConfig) load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	return errors.Wrap(yaml.Unmarshal(raw, c), "parse config")
}

func (c *cliConfig) setup() (*tree.Tree, *dataset.Dataset, dataset.Range, error) {
	if c.Data == "" || c.Expr == "" {
		return nil, nil, dataset.Range{}, errors.New("--data and --expr are required")
	}
	ds, err := dataset.FromCSV(c.Data)
	if err != nil {
		return nil, nil, dataset.Range{}, err
	}
	t, err := tree.Parse(c.Expr)
	if err != nil {
		return nil, nil, dataset.Range{}, err
	}
	rng := ds.FullRange()
	if c.End > 0 {
		rng = dataset.NewRange(c.Start, c.End)
	}
	return t, ds, rng, nil
}

func main() {
	var cfg cliConfig
	var cfgPath string

	root := &cobra.Command{
		Use:   "treeval",
		Short: "Batched evaluation and differentiation of expression trees",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath == "" {
				return nil
			}
			return cfg.load(cfgPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&cfg.Data, "data", cfg.Data, "CSV dataset with a header row")
	root.PersistentFlags().StringVar(&cfg.Expr, "expr", cfg.Expr, `postfix expression, e.g. "x 2 * 3 +"`)
	root.PersistentFlags().IntVar(&cfg.Start, "start", 0, "first row")
	root.PersistentFlags().IntVar(&cfg.End, "end", 0, "one past the last row (0 = all rows)")

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the expression over the dataset rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ds, rng, err := cfg.setup()
			if err != nil {
				return err
			}
			var out []float64
			if cfg.BatchSize > 0 {
				in := eval.NewInterpreter[eval.Scalar](nil)
				out = eval.AsFloats(in.EvaluateBatched(t, ds, rng, cfg.BatchSize, nil))
			} else {
				out = eval.Evaluate(t, ds, rng, nil)
			}
			for _, v := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "%g\n", v)
			}
			if cfg.Target != "" {
				y := ds.GetValues(tree.VarHash(cfg.Target))
				if y == nil {
					return errors.Errorf("no column named %q", cfg.Target)
				}
				y = y[rng.Start:rng.End]
				fmt.Fprintf(os.Stderr, "mse %.6g rmse %.6g nmse %.6g r2 %.6g\n",
					metrics.MSE(out, y), metrics.RMSE(out, y), metrics.NMSE(out, y), metrics.RSquared(out, y))
			}
			return nil
		},
	}
	evalCmd.Flags().StringVar(&cfg.Target, "target", "", "target column for fit metrics")
	evalCmd.Flags().IntVar(&cfg.BatchSize, "batch", 0, "explicit chunk size (0 = single pass)")

	jacCmd := &cobra.Command{
		Use:   "jacobian",
		Short: "Print the Jacobian w.r.t. the '?'-marked coefficients",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ds, rng, err := cfg.setup()
			if err != nil {
				return err
			}
			coeff := t.Coefficients()
			if len(coeff) == 0 {
				return errors.New("expression has no optimizable coefficients (mark them with '?')")
			}
			jc := eval.NewJacobianCalculator(nil)
			jac := jc.Jacobian(t, ds, coeff, rng)
			rows, cols := jac.Dims()
			for r := 0; r < rows; r++ {
				fields := make([]string, cols)
				for c := 0; c < cols; c++ {
					fields[c] = fmt.Sprintf("%g", jac.At(r, c))
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(fields, "\t"))
			}
			return nil
		},
	}

	root.AddCommand(evalCmd, jacCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
