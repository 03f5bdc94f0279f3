package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/san-kum/rockweather/internal/boundary"
	"github.com/san-kum/rockweather/internal/config"
	"github.com/san-kum/rockweather/internal/experiment"
	"github.com/san-kum/rockweather/internal/render"
	"github.com/san-kum/rockweather/internal/storage"
	"github.com/san-kum/rockweather/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	gridSize   int
	workers    int
	outDir     string
	writeHTML  bool
	saveRun    bool
	// probe
	probeD     float64
	probeM     float64
	integrator string
	duration   float64
)

// main registers the rockweather commands; with no subcommand it renders the
// published figure set.
func main() {
	rootCmd := &cobra.Command{
		Use:          "rockweather",
		Short:        "steady-state siderophore and rock weathering figures",
		SilenceUsage: true,
		RunE:         runFigures,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rockweather", "run data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().IntVar(&gridSize, "gridsize", config.DefaultGridSize, "samples per axis")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "parallel oracle workers (0 = all cores)")
	addFigureFlags(rootCmd)

	figuresCmd := &cobra.Command{
		Use:   "figures",
		Short: "evaluate the grid and render all figures",
		Args:  cobra.NoArgs,
		RunE:  runFigures,
	}
	addFigureFlags(figuresCmd)

	boundariesCmd := &cobra.Command{
		Use:   "boundaries",
		Short: "print the washout and ridge curves",
		Args:  cobra.NoArgs,
		RunE:  printBoundaries,
	}

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "integrate the chemostat at one (D, M) point",
		Args:  cobra.NoArgs,
		RunE:  runProbe,
	}
	probeCmd.Flags().Float64Var(&probeD, "d", 0.5, "dilution rate (1/hr)")
	probeCmd.Flags().Float64Var(&probeM, "m", 0.5, "rock mass (g)")
	probeCmd.Flags().StringVar(&integrator, "integrator", "rk45", "integrator")
	probeCmd.Flags().Float64Var(&duration, "time", 500, "integration horizon (hr)")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write a saved run's fields as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}

	rootCmd.AddCommand(figuresCmd, boundariesCmd, probeCmd, runsCmd, exportCSVCmd, presetsCmd, initConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addFigureFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outDir, "out", config.DefaultOutputDir, "figure output directory")
	cmd.Flags().BoolVar(&writeHTML, "html", false, "also write an interactive html report")
	cmd.Flags().BoolVar(&saveRun, "save", false, "persist fields and curves to the data directory")
}

// loadConfig resolves defaults, then preset, then config file, then flags
// that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("gridsize") {
		cfg.Grid.Size = gridSize
	}
	if flags.Changed("workers") {
		cfg.Solver.Workers = workers
	}
	if flags.Lookup("out") != nil && flags.Changed("out") {
		cfg.Output.Dir = outDir
	}
	if flags.Lookup("html") != nil && flags.Changed("html") {
		cfg.Output.HTML = writeHTML
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func evaluate(ctx context.Context, cfg *config.Config, printer *viz.Printer) (*experiment.Experiment, *experiment.Result, error) {
	oracle, err := experiment.NewRegistry().GetOracle(cfg.Oracle, cfg)
	if err != nil {
		return nil, nil, err
	}
	exp := experiment.New(cfg, oracle)
	exp.SetPrinter(printer)

	res, err := exp.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return exp, res, nil
}

func runFigures(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	printer := viz.NewPrinter(os.Stdout)
	printer.Header("rockweather")

	exp, res, err := evaluate(ctx, cfg, printer)
	if err != nil {
		return err
	}

	plotter := render.NewPlotter(cfg.Output.Dir, cfg.Output.DPI, cfg.Output.Width, cfg.Output.Height)
	start := time.Now()
	figs, err := exp.RenderAll(res, plotter)
	if err != nil {
		return err
	}
	printer.Done("wrote %d figures to %s in %v", len(figs), cfg.Output.Dir, time.Since(start).Round(time.Millisecond))

	if cfg.Output.HTML {
		path := filepath.Join(cfg.Output.Dir, "report.html")
		if err := render.WriteHTMLReport(path, figs); err != nil {
			return err
		}
		printer.Done("wrote %s", path)
	}

	if saveRun {
		names := make([]string, len(figs))
		for i, f := range figs {
			names[i] = f.Name
		}
		runID, err := saveResult(cfg, res, names)
		if err != nil {
			return err
		}
		printer.Metric("run id", runID)
	}
	return nil
}

func saveResult(cfg *config.Config, res *experiment.Result, figures []string) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(&storage.Run{
		Oracle:  cfg.Oracle,
		Params:  cfg.Params,
		GridCfg: cfg.Grid,
		Grid:    res.Grid,
		Fields:  res.Fields,
		Partial: res.Partial,
		Washout: res.Washout,
		Ridge:   res.Ridge,
		Elapsed: res.Elapsed,
		Figures: figures,
	})
}

func printBoundaries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	printer := viz.NewPrinter(os.Stdout)
	_, res, err := evaluate(ctx, cfg, printer)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CURVE\tD\tM")
	for _, p := range res.Washout.Points {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", res.Washout.Name, p.D, p.M)
	}
	for _, p := range res.Ridge.Points {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", res.Ridge.Name, p.D, p.M)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.CurveSeries(res.Washout, 80, 10))
	fmt.Println()
	fmt.Println(viz.CurveSeries(res.Ridge, 80, 10))
	fmt.Println()

	g := res.Grid
	view := viz.Viewport{
		XMin: g.DSamples[0], XMax: g.DSamples[len(g.DSamples)-1],
		YMin: g.MSamples[0], YMax: g.MSamples[len(g.MSamples)-1],
	}
	fmt.Println(viz.CurveMap([]boundary.Curve{res.Washout, res.Ridge}, view, 60, 15))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tORACLE\tTIME\tGRID\tWASHOUT\tRIDGE\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%d\t%.2fs\n",
			run.ID,
			run.Oracle,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Grid.Size, run.Grid.Size,
			run.WashoutPoints,
			run.RidgePoints,
			run.ElapsedSec,
		)
	}

	return w.Flush()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportFields(args[0], os.Stdout)
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := "rockweather.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
