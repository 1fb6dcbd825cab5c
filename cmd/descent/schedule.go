package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/descent/optim"
)

func newScheduleCmd() *cobra.Command {
	var (
		sched  schedulerFlags
		lr     float64
		epochs int
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the learning rate a scheduler produces for each epoch",
		Example: `  descent schedule --scheduler step --lr 1 --step-size 10 --gamma 0.5 --epochs 30
  descent schedule --scheduler warmup-cosine --lr 0.1 --warmup 5 --t-max 50 --epochs 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if epochs <= 0 {
				return errors.Errorf("epochs must be positive, got %d", epochs)
			}
			opt, err := optim.NewSGD(optim.SGDConfig{LearningRate: lr},
				optim.WithLogger(slog.Default().With("component", "schedule")))
			if err != nil {
				return err
			}
			s, err := sched.build(opt)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "epoch\tlr")
			for range epochs {
				s.Step()
				fmt.Fprintf(w, "%d\t%s\n", s.LastEpoch(), formatLR(float64(opt.LearningRate())))
			}
			return w.Flush()
		},
	}

	cmd.Flags().Float64Var(&lr, "lr", 0.1, "Base learning rate")
	cmd.Flags().IntVar(&epochs, "epochs", 20, "Number of epochs to print")
	sched.bind(cmd.Flags(), "step")
	return cmd
}
