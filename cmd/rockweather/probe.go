package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/san-kum/rockweather/internal/analysis"
	"github.com/san-kum/rockweather/internal/dynamo"
	"github.com/san-kum/rockweather/internal/experiment"
	"github.com/san-kum/rockweather/internal/model"
	"github.com/san-kum/rockweather/internal/viz"
	"github.com/spf13/cobra"
)

// runProbe integrates the chemostat from a small inoculum and compares where
// it settles with the algebraic steady state.
func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	integ, err := experiment.NewRegistry().GetIntegrator(integrator)
	if err != nil {
		return err
	}

	steady, err := model.NewChemostatFromConfig(cfg).Solve(probeD, probeM, cfg.Params)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sys := model.NewChemostatSystem(probeD, probeM, cfg.Params)
	settle := dynamo.DefaultSettleConfig()
	settle.Duration = duration

	printer := viz.NewPrinter(os.Stdout)
	printer.Step("integrating D=%g M=%g with %s for up to %g hr", probeD, probeM, integrator, duration)

	res, err := dynamo.Settle(ctx, sys, integ, sys.Inoculum(1e-3), settle)
	if err != nil {
		return err
	}

	if res.Converged {
		printer.Done("settled after %d steps, %d rejected (t=%.2f hr)", res.StepsTaken, res.Rejected, res.Times[len(res.Times)-1])
	} else {
		printer.Warn("not settled after %d steps, residual %.3g", res.StepsTaken, res.Residual)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tINTEGRATED\tALGEBRAIC")
	rows := []struct {
		name string
		idx  int
		alg  float64
	}{
		{"iron", model.IronIdx, steady.Iron},
		{"glucose", model.GlucoseIdx, steady.Glucose},
		{"siderophore", model.SiderophoreIdx, steady.Siderophore},
		{"cell", model.CellIdx, steady.Cell},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\n", r.name, res.Final[r.idx], r.alg)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printer.Metric("washout", steady.Washout)
	printer.Metric("algebraic residual", fmt.Sprintf("%.3g", model.Residual(probeD, probeM, cfg.Params, steady)))

	cells := analysis.Downsample(analysis.Component(res, model.CellIdx), 400)
	fmt.Println()
	fmt.Println(viz.SeriesPlot(cells, "cell density", 80, 10))
	return nil
}
