package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cktap/card"
	"cktap/output"
)

var (
	dumpSlot   int
	dumpNoAuth bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump a SatsCard slot's public or private material",
	Long: `Without a CVC, returns only the public fields valid for the
slot's current state. With the CVC, returns full private material for an
unsealed slot. SatsCard only.`,
	Run: runDump,
}

func init() {
	dumpCmd.Flags().IntVar(&dumpSlot, "slot", 0, "slot number to dump")
	dumpCmd.Flags().BoolVar(&dumpNoAuth, "no-cvc", false, "dump without prompting for a CVC")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) {
	c, tr, err := connectCard()
	if err != nil {
		printError(err.Error())
		return
	}
	defer tr.Close()

	sc, ok := c.(*card.SatsCard)
	if !ok {
		printError("dump is only valid on a SatsCard")
		return
	}

	var cvc string
	if !dumpNoAuth {
		cvc, err = promptCVC()
		if err != nil {
			printError(err.Error())
			return
		}
	}

	resp, err := sc.Dump(dumpSlot, cvc)
	if err != nil {
		printError(fmt.Sprintf("dump: %v", err))
		return
	}

	output.PrintDump(resp)
	fmt.Println()
	printSuccess("Done!")
}
