package main

import (
	"fmt"

	"github.com/spf13/cobra"

	csp "github.com/BeAnMo/async-csp"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline [n]",
	Short: "Run n integers through a two-stage pipeline (+1, *2) and print the results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 5
		if len(args) == 1 {
			if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
				return err
			}
		}

		head, tail := csp.Pipeline(
			csp.Map(func(v int) (int, bool) { return v + 1, true }),
			csp.Map(func(v int) (int, bool) { return v * 2, true }),
		)

		go func() {
			for i := 0; i < n; i++ {
				head.Put(i)
			}
			head.Close(true)
		}()

		for _, v := range tail.ToSlice() {
			fmt.Println(v)
		}
		return nil
	},
}
