package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"LPSentinel/internal/notifier"
	"LPSentinel/internal/scheduler"
)

func runCmd(flags *rootFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scan loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(true)
			if err != nil {
				return err
			}
			a, err := build(cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			a.monitor.Load(ctx)
			if force || cfg.ForcePostNow {
				a.monitor.Force()
			}
			a.serveMetrics(ctx)

			sched := scheduler.NewScheduler(ctx, a.monitor, cfg.Profile.ScanInterval)
			if err := sched.Register(); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if a.telegram != nil {
				go a.telegram.StartPolling(ctx, sched.HandleCommand)
				mainLog.L().Info().Msg("telegram polling started")
			}

			// First cycle runs now rather than one interval from now.
			go sched.RunNow()

			mainLog.L().Info().
				Str("preset", cfg.Preset).
				Dur("scan_interval", cfg.Profile.ScanInterval).
				Str("cadence", cfg.Profile.Cadence.String()).
				Msg("LPSentinel is running, press Ctrl+C to stop")

			<-ctx.Done()
			mainLog.L().Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "post a fresh selection on the first cycle")
	return cmd
}

func onceCmd(flags *rootFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(true)
			if err != nil {
				return err
			}
			a, err := build(cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			a.monitor.Load(cmd.Context())
			if force || cfg.ForcePostNow {
				a.monitor.Force()
			}
			rep, err := a.monitor.RunCycle(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cycle %s: universe=%d posted=%t alerts=%d reselected=%t dropped=%d\n",
				rep.ID, rep.UniverseSize, rep.Posted, len(rep.Alerts), rep.Reselected, len(rep.Dropped))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "post regardless of cadence")
	return cmd
}

func picksCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "picks",
		Short: "Print the current selection without posting or saving",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(false)
			if err != nil {
				return err
			}
			a, err := build(cfg, true)
			if err != nil {
				return err
			}
			defer a.close()

			picks, err := a.monitor.Preview(cmd.Context())
			if err != nil {
				return err
			}
			p := cfg.Profile
			out := cmd.OutOrStdout()
			if len(picks) == 0 {
				fmt.Fprintln(out, notifier.FormatNoPicks(p.Label, false, time.Now()))
				return nil
			}
			fmt.Fprintln(out, notifier.FormatPicks(p.Label+" LP PICKS (preview)", p.Mode, p.Chains, picks, time.Now()))
			for i, pk := range picks {
				fmt.Fprintf(out, "%d. %-10s %-14s score=%.3f net=%.2f%% tier=%s id=%s\n",
					i+1, pk.Category, pk.Pool.Project, pk.Score, pk.NetAPY, pk.Tier, pk.Pool.ID)
			}
			return nil
		},
	}
}
