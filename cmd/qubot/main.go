package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"qubot/builder"
	"qubot/config"
	"qubot/driver"
	"qubot/engine"
	"qubot/experiments"
	"qubot/stats"
	"qubot/ui"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
)

type options struct {
	htmlFile string
	output   string
	sweepDir string
	seed     uint64
	logLevel string
	alphas   []float64
	gammas   []float64
	decays   []float64
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "qubot",
		Short:        "Explore a web application with Q-learning to find terminal pages",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("failed to parse log level: %w", err)
			}
			zerolog.SetGlobalLevel(level)
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.htmlFile, "html", "", "build the tree from this HTML file instead of crawling")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "zerolog level")

	run := &cobra.Command{
		Use:   "run <config.qu>",
		Short: "Train then test an agent and write its statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQubot(cmd, args[0], opts)
		},
	}
	run.Flags().StringVar(&opts.output, "output", "runs", "directory receiving the run statistics")
	run.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed, overrides the config's")

	tree := &cobra.Command{
		Use:   "tree [config.qu]",
		Short: "Print the UI tree of a page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTree(cmd, args, opts)
		},
	}

	sweep := &cobra.Command{
		Use:   "sweep <config.qu>",
		Short: "Run one agent per combination of hyperparameters on the same tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, args[0], opts)
		},
	}
	sweep.Flags().StringVar(&opts.sweepDir, "output", "sweeps", "directory receiving the sweep statistics")
	sweep.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed, overrides the config's")
	sweep.Flags().Float64SliceVar(&opts.alphas, "alpha", nil, "learning rates to try")
	sweep.Flags().Float64SliceVar(&opts.gammas, "gamma", nil, "discount factors to try")
	sweep.Flags().Float64SliceVar(&opts.decays, "decay", nil, "epsilon decay rates to try")

	root.AddCommand(run, tree, sweep)
	return root
}

func load(path string, opts *options) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.htmlFile != "" {
		cfg.HTMLFile = opts.htmlFile
	}
	if opts.seed != 0 {
		cfg.Seed = opts.seed
	}
	return cfg, nil
}

// construct builds the tree, starting a browser only when a url is crawled.
func construct(ctx context.Context, cfg *config.Config, collector stats.Collector) (*ui.Tree, error) {
	var fetcher builder.Fetcher
	if cfg.HTMLFile == "" {
		d := driver.New(driver.Config{
			RemoteURL:  cfg.Driver.RemoteURL,
			Headless:   cfg.Driver.Headless,
			Timeout:    cfg.Driver.Timeout,
			Retries:    cfg.Driver.Retries,
			RetryDelay: cfg.Driver.RetryDelay,
		})
		defer d.Close()
		fetcher = d
	}
	return engine.Construct(ctx, cfg, fetcher, collector)
}

func runQubot(cmd *cobra.Command, path string, opts *options) error {
	cfg, err := load(path, opts)
	if err != nil {
		return err
	}

	collector := stats.NewCollector()
	collector.Start()

	tree, err := construct(cmd.Context(), cfg, collector)
	if err != nil {
		return err
	}
	log.Info().Msgf("UI tree has %d nodes, rewarding with %s", tree.NodeCount(), cfg.Reward.Preset)

	q := engine.New(cfg, tree, collector)
	report := q.Run()
	render(cmd.OutOrStdout(), report)

	writer, err := stats.NewWriter(opts.output)
	if err != nil {
		return err
	}
	records := report.Records(writer.RunID())
	if err := writer.WriteEpisodes(records); err != nil {
		return err
	}
	if err := writer.WriteParquet(records); err != nil {
		return err
	}
	if err := writer.WriteSummary(report); err != nil {
		return err
	}
	if err := writer.WriteMetrics(collector.Gatherer()); err != nil {
		return err
	}
	log.Info().Msgf("Statistics written to %s", writer.Dir())
	return nil
}

func runSweep(cmd *cobra.Command, path string, opts *options) error {
	cfg, err := load(path, opts)
	if err != nil {
		return err
	}
	tree, err := construct(cmd.Context(), cfg, stats.NewDummyCollector())
	if err != nil {
		return err
	}

	results, err := experiments.Sweep(cfg, tree, experiments.Grid(opts.alphas, opts.gammas, opts.decays))
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(fmt.Sprintf("Trial %d", r.Trial.ID)))
		fmt.Fprintln(cmd.OutOrStdout(), boxStyle.Render(r.Report.Summary.String()))
	}

	writer, err := stats.NewWriter(opts.sweepDir)
	if err != nil {
		return err
	}
	if err := experiments.Write(writer, results); err != nil {
		return err
	}
	log.Info().Msgf("Sweep written to %s", writer.Dir())
	return nil
}

func printTree(cmd *cobra.Command, args []string, opts *options) error {
	var tree *ui.Tree
	switch {
	case len(args) == 1:
		cfg, err := load(args[0], opts)
		if err != nil {
			return err
		}
		tree, err = construct(cmd.Context(), cfg, stats.NewDummyCollector())
		if err != nil {
			return err
		}
	case opts.htmlFile != "":
		data, err := os.ReadFile(opts.htmlFile)
		if err != nil {
			return fmt.Errorf("failed to read html file: %w", err)
		}
		tree, err = builder.Build(string(data))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("tree needs a config file or --html")
	}
	return tree.Print(cmd.OutOrStdout())
}

func render(w io.Writer, report engine.Report) {
	fmt.Fprintln(w, titleStyle.Render("Q-learning agent"))
	fmt.Fprintln(w, boxStyle.Render(report.Summary.String()))
}
