package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cktap/output"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Drain one tick of the card's auth_delay cooldown",
	Long: `Issues a single wait command and reports the remaining delay.
Repeat until the count reaches zero to restore normal operation.`,
	Run: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, args []string) {
	c, tr, err := connectCard()
	if err != nil {
		printError(err.Error())
		return
	}
	defer tr.Close()

	remaining, err := c.Wait()
	if err != nil {
		printError(fmt.Sprintf("wait: %v", err))
		return
	}

	output.PrintWait(remaining)
}
