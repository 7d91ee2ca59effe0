package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/skypilot/internal/config"
	"github.com/san-kum/skypilot/internal/craft"
	"github.com/san-kum/skypilot/internal/logging"
	"github.com/san-kum/skypilot/internal/pid"
	"github.com/san-kum/skypilot/internal/pilot"
	"github.com/san-kum/skypilot/internal/status"
	"github.com/san-kum/skypilot/internal/supervise"
	"github.com/san-kum/skypilot/internal/testbed"
	"github.com/san-kum/skypilot/internal/testbed/metrics"
	"github.com/san-kum/skypilot/internal/tui"
	"github.com/san-kum/skypilot/internal/vehicle"
)

var (
	configFile string
	duration   float64
	heading    float64
	live       bool
	statusAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "skypilot",
		Short: "autopilot for simulated aircraft",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the autopilot against discovered instances",
		RunE:  runServe,
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "fly one testbed aircraft closed-loop and plot convergence",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Float64Var(&duration, "time", 40.0, "simulated seconds")
	simulateCmd.Flags().Float64Var(&heading, "heading", 0, "target heading override (deg)")
	simulateCmd.Flags().BoolVar(&live, "live", false, "render a live terminal view")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "query a running serve instance",
		RunE:  runStatus,
	}
	statusCmd.Flags().StringVar(&statusAddr, "addr", "", "status server address")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	rootCmd.AddCommand(serveCmd, simulateCmd, statusCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	// A .env alongside the binary may point at the config file.
	_ = godotenv.Load()
	path := configFile
	if path == "" {
		path = os.Getenv("SKYPILOT_CONFIG")
	}
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func stageConfig(g config.StageGains, modulo float64) pid.Config {
	return pid.Config{
		P:         g.Kp,
		I:         g.Ki,
		D:         g.Kd,
		OutputMin: g.OutputMin,
		OutputMax: g.OutputMax,
		Modulo:    modulo,
	}
}

func pilotConfig(cfg *config.Config) pilot.Config {
	return pilot.Config{
		TickPeriod: time.Duration(cfg.TickMillis) * time.Millisecond,
		Engaged:    cfg.Engaged,
		Modes: map[craft.Mode]bool{
			craft.ModeHeading:  cfg.Modes.Heading,
			craft.ModeAltitude: cfg.Modes.Altitude,
			craft.ModeAirspeed: cfg.Modes.Airspeed,
		},
		HeadingGains:     stageConfig(cfg.Gains.Heading, 360),
		RollGains:        stageConfig(cfg.Gains.Roll, 0),
		YawGains:         stageConfig(cfg.Gains.Yaw, 0),
		TargetHeadingDeg: cfg.TargetHeadingDeg,
	}
}

func flightGains(cfg *config.Config) testbed.FlightGains {
	return testbed.FlightGains{
		Heading: stageConfig(cfg.Gains.Heading, 360),
		Roll:    stageConfig(cfg.Gains.Roll, 0),
		Yaw:     stageConfig(cfg.Gains.Yaw, 0),
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogDir)

	cluster := testbed.NewCluster(cfg.Testbed.Vehicles)
	pcfg := pilotConfig(cfg)

	spawn := func(ctx context.Context, inst vehicle.Instance) error {
		l, err := pilot.New(inst, cluster, cluster, pcfg, log)
		if err != nil {
			return err
		}
		return l.Run(ctx)
	}

	sup := supervise.New(cluster, spawn, supervise.Config{
		PollInterval: time.Duration(cfg.PollMillis) * time.Millisecond,
		MaxRestarts:  cfg.Supervise.MaxRestarts,
		BackoffMin:   time.Duration(cfg.Supervise.BackoffMinMS) * time.Millisecond,
		BackoffMax:   time.Duration(cfg.Supervise.BackoffMaxMS) * time.Millisecond,
	}, log)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return cluster.Run(ctx, time.Duration(cfg.Testbed.DtMillis)*time.Millisecond)
	})
	g.Go(func() error { return sup.Run(ctx) })
	if cfg.StatusAddr != "" {
		srv := status.New(cfg.StatusAddr, sup, log)
		g.Go(func() error { return srv.Run(ctx) })
	}

	log.Info("skypilot serving", "vehicles", cfg.Testbed.Vehicles, "status", cfg.StatusAddr)
	if err := g.Wait(); err != nil && sigCtx.Err() == nil {
		return err
	}
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	target := cfg.TargetHeadingDeg
	if cmd.Flags().Changed("heading") {
		target = heading
	}

	cluster := testbed.NewCluster(1)
	flight, err := testbed.NewFlight(cluster, "sim-01:5500", flightGains(cfg), target)
	if err != nil {
		return err
	}

	dt := float64(cfg.TickMillis) / 1000.0

	if live {
		p := tea.NewProgram(tui.NewModel(flight, dt))
		_, err := p.Run()
		return err
	}

	effort := metrics.NewControlEffort()
	settling := metrics.NewSettlingTime(1.0)

	steps := int(duration / dt)
	trace := make([]float64, 0, steps)
	t := 0.0
	for i := 0; i < steps; i++ {
		if err := flight.Tick(dt); err != nil {
			return err
		}
		t += dt
		headingErr := flight.HeadingErrorDeg()
		aileron, _ := flight.Value(craft.AileronTrim)
		effort.Observe(t, headingErr, aileron)
		settling.Observe(t, headingErr, aileron)
		trace = append(trace, headingErr)
	}

	fmt.Println(asciigraph.Plot(downsample(trace, 120),
		asciigraph.Height(14),
		asciigraph.Caption(fmt.Sprintf("heading error (deg), %.0fs to target %.0f°", duration, target))))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "final error\t%.3f deg\n", flight.HeadingErrorDeg())
	fmt.Fprintf(w, "%s\t%.4f\n", effort.Name(), effort.Value())
	if s := settling.Value(); s >= 0 {
		fmt.Fprintf(w, "%s\t%.2fs\n", settling.Name(), s)
	} else {
		fmt.Fprintf(w, "%s\tnever settled\n", settling.Name())
	}
	return w.Flush()
}

func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = data[i*len(data)/n]
	}
	return out
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := statusAddr
	if addr == "" {
		addr = cfg.StatusAddr
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/api/v1/instances", addr))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status server returned %s", resp.Status)
	}

	var body struct {
		Workers []supervise.WorkerStatus `json:"workers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INSTANCE\tWORKER\tUPTIME\tRESTARTS\tSTATE")
	for _, ws := range body.Workers {
		state := "running"
		if ws.Failed {
			state = "failed"
		}
		uptime := time.Since(ws.StartedAt).Round(time.Second)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", ws.Instance.Addr, ws.ID, uptime, ws.Restarts, state)
	}
	if len(body.Workers) == 0 {
		fmt.Fprintln(w, "(no workers)")
	}
	return w.Flush()
}
