package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	csp "github.com/BeAnMo/async-csp"
)

var produceConsumeCmd = &cobra.Command{
	Use:   "produce-consume",
	Short: "Wire a producer and a consumer onto a buffered channel and run briefly",
	RunE: func(cmd *cobra.Command, args []string) error {
		ch := csp.NewBuffered[int](4)

		i := 0
		cancel := csp.Produce(ch, func() int {
			i++
			return i
		})

		done := make(chan struct{})
		csp.Consume(ch, func(v int) {
			fmt.Println("consumed", v)
			if v >= 10 {
				close(done)
			}
		})

		select {
		case <-done:
		case <-ch.Timeout(2 * time.Second):
		}
		cancel()
		ch.Close(false)
		return nil
	},
}
