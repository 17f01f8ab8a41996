package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kamenik/sigflow/internal/analysis"
	"github.com/kamenik/sigflow/internal/builder"
	"github.com/kamenik/sigflow/internal/cache"
	"github.com/kamenik/sigflow/internal/config"
	"github.com/kamenik/sigflow/internal/engine"
	"github.com/kamenik/sigflow/internal/probe"
	"github.com/kamenik/sigflow/internal/progress"
	"github.com/kamenik/sigflow/internal/report"
	"github.com/kamenik/sigflow/internal/storage"
	"github.com/kamenik/sigflow/internal/viz"
)

var (
	dataDir    string
	storeKind  string
	cacheDir   string
	dt         float64
	duration   float64
	seed       int64
	configFile string
	probeName  string
	column     int
	rate       int
	noProgress bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sigflow",
		Short: "discrete-time dataflow simulation engine",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".sigflow", "data directory")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "fs", "run archive backend (fs, sqlite)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache", "", "coefficient cache directory (empty = in-memory)")

	runCmd := &cobra.Command{
		Use:   "run [network.yaml]",
		Short: "run a network and archive the probe series",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in simulated seconds")
	runCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	runCmd.Flags().StringVar(&configFile, "config", "", "run config file (yaml)")
	runCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "show an archived run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run-id]",
		Short: "plot an archived probe series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&probeName, "probe", "", "probe name (default: first)")
	plotCmd.Flags().IntVar(&column, "column", 0, "signal element to plot")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run-id]",
		Short: "amplitude spectrum of an archived probe series",
		Args:  cobra.ExactArgs(1),
		RunE:  showSpectrum,
	}
	spectrumCmd.Flags().StringVar(&probeName, "probe", "", "probe name (default: first)")
	spectrumCmd.Flags().IntVar(&column, "column", 0, "signal element to analyze")

	liveCmd := &cobra.Command{
		Use:   "live [network.yaml]",
		Short: "step a network live in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  liveView,
	}
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	liveCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	liveCmd.Flags().StringVar(&probeName, "probe", "", "probe name (default: first)")
	liveCmd.Flags().IntVar(&column, "column", 0, "signal element to graph")
	liveCmd.Flags().IntVar(&rate, "rate", 10, "simulation steps per frame")

	reportCmd := &cobra.Command{
		Use:   "report [network.yaml]",
		Short: "memory-usage report for a network",
		Args:  cobra.ExactArgs(1),
		RunE:  memoryReport,
	}
	reportCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	reportCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in simulated seconds")
	reportCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, spectrumCmd, liveCmd, reportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCache() cache.Cache {
	if cacheDir == "" {
		return cache.NewMemory()
	}
	return cache.NewFile(cacheDir, 0)
}

func buildSim(path string, opts ...engine.Option) (*engine.Simulator, *builder.NetworkSpec, error) {
	spec, err := builder.Load(path)
	if err != nil {
		return nil, nil, err
	}
	c := newCache()
	m, err := builder.Build(spec, dt, c)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Shrink(); err != nil {
		return nil, nil, err
	}
	sim, err := engine.New(m, opts...)
	if err != nil {
		return nil, nil, err
	}
	return sim, spec, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		dt, duration = cfg.Dt, cfg.Duration
		if cfg.Seed != 0 {
			seed = cfg.Seed
		}
		if cfg.Store != "" {
			storeKind = cfg.Store
		}
		if cfg.DataDir != "" {
			dataDir = cfg.DataDir
		}
		if cfg.CacheDir != "" {
			cacheDir = cfg.CacheDir
		}
	}

	opts := []engine.Option{engine.WithSeed(seed)}
	if !noProgress {
		opts = append(opts, engine.WithProgress(progress.NewBar(os.Stderr)))
	}
	sim, spec, err := buildSim(args[0], opts...)
	if err != nil {
		return err
	}

	if err := sim.Run(duration); err != nil {
		return err
	}
	fmt.Printf("simulated %s for %.3fs (%d steps, seed %d)\n",
		spec.Name, sim.Time(), sim.NSteps(), sim.Seed())

	store, err := storage.NewStore(storeKind, dataDir)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Init(); err != nil {
		return err
	}

	run := storage.Capture(storage.NewRunID(spec.Name), spec.Name, sim)
	if err := store.Save(run); err != nil {
		return err
	}
	fmt.Printf("archived as %s\n", run.ID)
	return nil
}

func openStore() (storage.Store, error) {
	store, err := storage.NewStore(storeKind, dataDir)
	if err != nil {
		return nil, err
	}
	if err := store.Init(); err != nil {
		return nil, err
	}
	return store, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNETWORK\tSTEPS\tDT\tSEED\tWHEN")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%d\t%s\n",
			r.ID, r.Network, r.Steps, r.Dt, r.Seed, r.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func findSeries(run *storage.Run) (*storage.ProbeSeries, error) {
	if len(run.Probes) == 0 {
		return nil, fmt.Errorf("run %s has no probe series", run.ID)
	}
	if probeName == "" {
		return &run.Probes[0], nil
	}
	for i := range run.Probes {
		if run.Probes[i].Name == probeName {
			return &run.Probes[i], nil
		}
	}
	return nil, fmt.Errorf("run %s has no probe %q", run.ID, probeName)
}

func showRun(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run %s: network=%s dt=%g duration=%.3fs steps=%d seed=%d\n",
		run.ID, run.Network, run.Dt, run.Duration, run.Steps, run.Seed)
	for _, ps := range run.Probes {
		every := "every step"
		if ps.SampleEvery != 0 {
			every = fmt.Sprintf("every %gs", ps.SampleEvery)
		}
		fmt.Printf("  probe %-16s %d samples (%s)\n", ps.Name, len(ps.Samples), every)
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Load(args[0])
	if err != nil {
		return err
	}
	ps, err := findSeries(run)
	if err != nil {
		return err
	}
	data := make([]float64, 0, len(ps.Samples))
	for _, row := range ps.Samples {
		if column < len(row) {
			data = append(data, row[column])
		}
	}
	series := probe.SeriesFromColumn(data)
	fmt.Println(viz.PlotSeries(fmt.Sprintf("%s / %s", run.ID, ps.Name), series, 0, 72, 14))
	return nil
}

func showSpectrum(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Load(args[0])
	if err != nil {
		return err
	}
	ps, err := findSeries(run)
	if err != nil {
		return err
	}
	data := make([]float64, 0, len(ps.Samples))
	for _, row := range ps.Samples {
		if column < len(row) {
			data = append(data, row[column])
		}
	}
	sampleEvery := ps.SampleEvery
	if sampleEvery == 0 {
		sampleEvery = run.Dt
	}
	freqs, amps, err := spectrumOf(data, sampleEvery)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f Hz\n\n", analysis.Dominant(freqs, amps))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FREQ (Hz)\tAMPLITUDE")
	for i := range freqs {
		if amps[i] < 1e-6 {
			continue
		}
		fmt.Fprintf(w, "%.3f\t%.6f\n", freqs[i], amps[i])
	}
	return w.Flush()
}

func spectrumOf(data []float64, sampleEvery float64) ([]float64, []float64, error) {
	freqs, amps := analysis.Spectrum(data, sampleEvery)
	if freqs == nil {
		return nil, nil, fmt.Errorf("series too short for a spectrum (%d samples)", len(data))
	}
	return freqs, amps, nil
}

func liveView(cmd *cobra.Command, args []string) error {
	sim, _, err := buildSim(args[0], engine.WithSeed(seed))
	if err != nil {
		return err
	}

	probes := sim.Data().Probes()
	if len(probes) == 0 {
		return fmt.Errorf("network has no probes to watch")
	}
	target := probes[0]
	if probeName != "" {
		target = nil
		for _, p := range probes {
			if p.Name() == probeName {
				target = p
				break
			}
		}
		if target == nil {
			return fmt.Errorf("no probe %q", probeName)
		}
	}

	_, err = tea.NewProgram(viz.NewLive(sim, target, column, rate), tea.WithAltScreen()).Run()
	return err
}

func memoryReport(cmd *cobra.Command, args []string) error {
	sim, _, err := buildSim(args[0], engine.WithSeed(seed))
	if err != nil {
		return err
	}
	if err := sim.Run(duration); err != nil {
		return err
	}
	report.Memory(os.Stdout, sim)
	return nil
}
