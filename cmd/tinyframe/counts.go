package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SimonWaldherr/tinyFrame/internal/engine"
)

func (a *app) newCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "counts FILE COLUMN",
		Short:   "Count occurrences of each distinct value in a column",
		Example: `  tinyframe counts students.csv gender`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s, err := t.Column(args[1])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, s.ValueCounts())
			if n := s.MissingCount(); n > 0 {
				fmt.Fprintf(w, "missing: %d\n", n)
			}
			return nil
		},
	}
}

func (a *app) newAggCmd() *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "agg FILE COLUMN OP",
		Short: "Reduce a column with max, min, mean, median, sum, std or count",
		Example: `  tinyframe agg workouts.csv calories mean
  tinyframe agg students.csv mark max --by gender`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := engine.ParseAggOp(args[2])
			if err != nil {
				return err
			}
			t, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if by != "" {
				g, err := t.GroupBy(by)
				if err != nil {
					return err
				}
				s, err := g.Aggregate(args[1], op)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, s)
				return nil
			}
			v, err := t.Aggregate(args[1], op)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s(%s) = %s\n", op, args[1], v)
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "", "group by this column first")
	return cmd
}
