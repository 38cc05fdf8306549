package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/overmind/internal/console"
	"github.com/piwi3910/overmind/internal/export"
	"github.com/piwi3910/overmind/internal/project"
)

var layoutTarget bool

var demoCmd = &cobra.Command{
	Use:   "demo <out.ovm>",
	Short: "Write the feeder demo workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		curr, target, err := console.DemoScenes()
		if err != nil {
			return err
		}
		if err := project.SaveWorkspace(args[0], curr, target); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
		return nil
	},
}

var layoutCmd = &cobra.Command{
	Use:   "layout <workspace.ovm> <out.dxf>",
	Short: "Export a top-down DXF layout of an arrangement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		curr, target, err := project.LoadWorkspace(args[0])
		if err != nil {
			return err
		}
		m := curr
		if layoutTarget {
			m = target
		}
		for _, e := range m.CheckErrors() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s at (%.3f, %.3f, %.3f)\n", e.Msg, e.Pos.X, e.Pos.Y, e.Pos.Z)
		}
		if err := export.ExportDXF(args[1], m); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List saved workspaces",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := project.DefaultScenesDir()
		if len(args) == 1 {
			dir = args[0]
		}
		files, err := project.ListWorkspaces(dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

func init() {
	layoutCmd.Flags().BoolVar(&layoutTarget, "target", false, "export the target arrangement instead of the current one")
	rootCmd.AddCommand(demoCmd, layoutCmd, listCmd)
}
