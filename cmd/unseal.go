package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cktap/card"
	"cktap/output"
)

var unsealSlot int

var unsealCmd = &cobra.Command{
	Use:   "unseal",
	Short: "Reveal a SatsCard slot's private material",
	Long: `Unseals the given slot, which must equal the card's active slot.
The active-slot cursor advances by one on success. SatsCard only.`,
	Run: runUnseal,
}

func init() {
	unsealCmd.Flags().IntVar(&unsealSlot, "slot", 0, "slot number to unseal")
	rootCmd.AddCommand(unsealCmd)
}

func runUnseal(cmd *cobra.Command, args []string) {
	c, tr, err := connectCard()
	if err != nil {
		printError(err.Error())
		return
	}
	defer tr.Close()

	sc, ok := c.(*card.SatsCard)
	if !ok {
		printError("unseal is only valid on a SatsCard")
		return
	}

	cvc, err := promptCVC()
	if err != nil {
		printError(err.Error())
		return
	}

	resp, err := sc.Unseal(unsealSlot, cvc)
	if err != nil {
		printError(fmt.Sprintf("unseal: %v", err))
		return
	}

	output.PrintUnseal(resp)
	fmt.Println()
	printSuccess("Done!")
}
