package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/overmind/internal/action"
	"github.com/piwi3910/overmind/internal/console"
	"github.com/piwi3910/overmind/internal/execution"
	"github.com/piwi3910/overmind/internal/export"
	"github.com/piwi3910/overmind/internal/model"
	"github.com/piwi3910/overmind/internal/project"
)

var (
	planPDFPath   string
	planCardsPath string
	planXLSXPath  string
	planTitle     string
)

var planCmd = &cobra.Command{
	Use:   "plan [workspace.ovm]",
	Short: "Compute the plan from the current to the target arrangement",
	Long: `Compute the plan that turns the current arrangement of a workspace into its
target arrangement and print it in dispatch order. Without a workspace the
feeder demo is planned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vm, err := openViewModel(args, execution.LogBridge{}, execOptions())
		if err != nil {
			return err
		}
		if vm.Plan() == nil {
			return fmt.Errorf("no plan: %s", vm.ErrorMsg())
		}

		out := cmd.OutOrStdout()
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tWORKER\tT0\tT1\tMACRO\tSEQ")
		for i, ws := range vm.Plan().SeqTimeOrdered() {
			fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%s\t%s\n", i+1, ws.Worker, ws.Seq.T0, ws.Seq.T1, ws.Seq.Label, ws.Seq.FullDesc())
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out, vm.InfoMsg())

		info := export.PlanInfo{Title: planTitle, Opcode: cfg.Opcode, AddrOf: history.AddrResolver(cfg)}
		for _, e := range []struct {
			path string
			fn   func(string, *action.Plan, export.PlanInfo) error
		}{
			{planPDFPath, export.ExportPDF},
			{planCardsPath, export.ExportCards},
			{planXLSXPath, export.ExportXLSX},
		} {
			if e.path == "" {
				continue
			}
			if err := e.fn(e.path, vm.Plan(), info); err != nil {
				return err
			}
			slog.Info("exported", "path", e.path)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planPDFPath, "pdf", "", "write a PDF plan report")
	planCmd.Flags().StringVar(&planCardsPath, "cards", "", "write a PDF sheet of QR sequence cards")
	planCmd.Flags().StringVar(&planXLSXPath, "xlsx", "", "write the plan as an Excel workbook")
	planCmd.Flags().StringVar(&planTitle, "title", "", "report title")
	rootCmd.AddCommand(planCmd)
}

// openViewModel loads the workspace named by args, or the feeder demo.
func openViewModel(args []string, bridge execution.Bridge, opts execution.Options) (*console.PlanViewModel, error) {
	var curr, target *model.ScaffoldModel
	var err error
	if len(args) == 0 {
		curr, target, err = console.DemoScenes()
	} else {
		curr, target, err = project.LoadWorkspace(args[0])
	}
	if err != nil {
		return nil, err
	}
	return console.NewPlanViewModel(curr, target, history, bridge, opts), nil
}
