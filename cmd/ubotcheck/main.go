// ubotcheck loads a ubot module description, prints its summary, and runs
// forward-kinematics sanity checks against it.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ubotlab/ubot/pkg/kinematics"
	"github.com/ubotlab/ubot/pkg/mjcf"
	"github.com/ubotlab/ubot/pkg/script"
	"github.com/ubotlab/ubot/pkg/spec"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
})

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	var moduleName string

	root := &cobra.Command{
		Use:           "ubotcheck",
		Short:         "Summarize a ubot module description and check its kinematics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&moduleName, "module", "m", "", "module name to extract from the description")

	root.AddCommand(newSummaryCmd(&moduleName))
	root.AddCommand(newFKCmd(&moduleName))
	root.AddCommand(newScriptCmd(&moduleName))
	return root
}

func loadModule(path, moduleName string) (*spec.ModuleSpec, error) {
	logger.Debug("loading description", "path", path, "module", moduleName)
	m, err := mjcf.Load(path, moduleName)
	if err != nil {
		logger.Error("load failed", "path", path, "err", err)
		return nil, err
	}
	logger.Debug("loaded module", "name", m.ModuleName)
	return m, nil
}

func newSummaryCmd(moduleName *string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <mjcf>",
		Short: "Print the bodies, joints, and connector faces of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModule(args[0], *moduleName)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), spec.Summarize(m).String())
			return nil
		},
	}
}

func newFKCmd(moduleName *string) *cobra.Command {
	var q1, q2 float64

	cmd := &cobra.Command{
		Use:   "fk <mjcf>",
		Short: "Compute the chain poses for a joint configuration",
		Long: "Computes the ax-in-ma, mb-in-ax, and mb-in-ma poses for the\n" +
			"given joint angles, and verifies the zero-configuration pose\n" +
			"against the module's nominal static offset.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModule(args[0], *moduleName)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			q := [2]float64{q1, q2}
			poses, err := kinematics.ForwardKinematics(m, q)
			if err != nil {
				logger.Error("forward kinematics failed", "q1", q1, "q2", q2, "err", err)
				return err
			}
			fmt.Fprintf(out, "q=[%g, %g]\n", q[0], q[1])
			printPose(out, "ax in ma", poses.AxInMa)
			printPose(out, "mb in ax", poses.MbInAx)
			printPose(out, "mb in ma", poses.MbInMa)

			// Zero-configuration sanity check: the composed pose must
			// reduce to the nominal static offset.
			zero, err := kinematics.ForwardKinematics(m, [2]float64{0, 0})
			if err != nil {
				return err
			}
			want := kinematics.Pose{R: kinematics.Identity3(), T: m.NominalOffset()}
			if !zero.MbInMa.Equals(want, spec.NormalTolerance) {
				logger.Error("zero-configuration pose does not match nominal offset")
				return fmt.Errorf("FK sanity check failed at q=[0, 0]")
			}
			fmt.Fprintf(out, "zero-configuration check: ok (offset %g, %g, %g)\n",
				want.T.X, want.T.Y, want.T.Z)
			return nil
		},
	}
	cmd.Flags().Float64Var(&q1, "q1", 0, "ma-ax joint angle in radians")
	cmd.Flags().Float64Var(&q2, "q2", 0, "ax-mb joint angle in radians")
	return cmd
}

func printPose(out io.Writer, label string, p kinematics.Pose) {
	fmt.Fprintf(out, "%s: t=(%g, %g, %g)\n", label, p.T.X, p.T.Y, p.T.Z)
	for i := 0; i < 3; i++ {
		fmt.Fprintf(out, "  [% .6f % .6f % .6f]\n", p.R[i][0], p.R[i][1], p.R[i][2])
	}
}

func newScriptCmd(moduleName *string) *cobra.Command {
	var expr string

	cmd := &cobra.Command{
		Use:   "script <mjcf> [script-file]",
		Short: "Evaluate a checker script against a loaded module",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadModule(args[0], *moduleName)
			if err != nil {
				return err
			}

			source := expr
			if len(args) == 2 {
				data, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("read script: %w", err)
				}
				source = string(data)
			}
			if source == "" {
				return fmt.Errorf("nothing to evaluate: pass a script file or -e")
			}

			eng := script.NewEngineWith(m)
			res, evalErrs, err := eng.Evaluate(source)
			if err != nil {
				return err
			}
			if len(evalErrs) > 0 {
				for _, e := range evalErrs {
					logger.Error("script error", "err", e)
				}
				return fmt.Errorf("script failed with %d error(s)", len(evalErrs))
			}
			for _, line := range res.Output {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&expr, "eval", "e", "", "evaluate an inline expression instead of a file")
	return cmd
}
