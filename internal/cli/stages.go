package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/warndiff/internal/output"
	"github.com/dshills/warndiff/internal/stage"
)

var stagesCmd = &cobra.Command{
	Use:   "stages <log>",
	Short: "Print the stage tree of a build log",
	Long: "Print every stage found in a build log with its depth, line range and the number " +
		"of diagnostics in its own lines. Target stages are marked.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		errOut := cmd.ErrOrStderr()

		a, _, err := newAnalyzer(cmd, nil)
		if err != nil {
			fail(errOut, err)
			return nil
		}
		_, roots, err := a.Forest(args[0])
		if err != nil {
			fail(errOut, err)
			return nil
		}
		targets, err := a.Targets(args[0], roots)
		if err != nil {
			fail(errOut, err)
			return nil
		}

		ex := a.Extractor()
		count := func(n *stage.Node) int {
			c := 0
			for _, line := range n.Lines {
				if _, ok := ex.Classify(line); ok {
					c++
				}
			}
			return c
		}
		if err := output.WriteStages(cmd.OutOrStdout(), roots, targets, count); err != nil {
			fail(errOut, err)
		}
		return nil
	},
}
