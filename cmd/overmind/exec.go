package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/overmind/internal/execution"
)

var (
	execDryRun bool
	execStep   bool
	execSpeed  float64
	execPort   string
)

var execCmd = &cobra.Command{
	Use:   "exec [workspace.ovm]",
	Short: "Dispatch the plan to the workers",
	Long: `Compute the plan and send every sequence to its worker at its start time.
With --step the operator confirms each sequence: enter sends it, "s" skips it,
"q" stops. Commands already sent cannot be recalled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bridge, closeBridge, err := openBridge(execDryRun, execPort)
		if err != nil {
			return err
		}
		defer closeBridge()

		opts := execOptions()
		if execSpeed > 0 {
			opts.Speed = execSpeed
		}
		vm, err := openViewModel(args, bridge, opts)
		if err != nil {
			return err
		}
		if vm.Plan() == nil {
			return fmt.Errorf("no plan: %s", vm.ErrorMsg())
		}
		fmt.Fprintln(cmd.OutOrStdout(), vm.InfoMsg())

		if execStep {
			return stepThrough(cmd, vm.Plan().NumSeqs(), vm.StepExecCurrentPlan, vm.SkipExecStep, vm.ExecNumComplete)
		}

		if err := vm.ExecCurrentPlan(cmd.Context()); err != nil {
			return err
		}
		return vm.WaitExec()
	},
}

// openBridge returns the log bridge for a dry run, otherwise a frame bridge on
// the serial device port, or the configured one when port is empty.
func openBridge(dryRun bool, port string) (execution.Bridge, func() error, error) {
	if dryRun {
		return execution.LogBridge{}, func() error { return nil }, nil
	}
	if port == "" {
		port = cfg.SerialPort
	}
	sb, err := execution.OpenSerialBridge(port, cfg.BaudRate)
	if err != nil {
		return nil, nil, err
	}
	return sb, sb.Close, nil
}

// execOptions addresses workers by the command history first, then the config.
func execOptions() execution.Options {
	opts := execution.OptionsFromConfig(cfg)
	opts.AddrOf = history.AddrResolver(cfg)
	return opts
}

func stepThrough(cmd *cobra.Command, total int, step func() (bool, error), skip func() bool, done func() int) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	for done() < total {
		fmt.Fprintf(out, "[%d/%d] send? ", done()+1, total)
		if !in.Scan() {
			return in.Err()
		}
		switch strings.TrimSpace(in.Text()) {
		case "q":
			return nil
		case "s":
			skip()
		default:
			if _, err := step(); err != nil {
				return err
			}
		}
	}
	return nil
}

func init() {
	execCmd.Flags().BoolVar(&execDryRun, "dry-run", false, "log commands instead of sending them")
	execCmd.Flags().BoolVar(&execStep, "step", false, "confirm every sequence by hand")
	execCmd.Flags().Float64Var(&execSpeed, "speed", 0, "time scale for timed execution (2 runs twice as fast)")
	execCmd.Flags().StringVar(&execPort, "port", "", "serial device, overrides the config")
	rootCmd.AddCommand(execCmd)
}
