package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cktap/card"
	"cktap/output"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the active slot's or derivation path's pubkey",
	Long: `SatsCard: reads the active slot's pubkey; no CVC needed.
TapSigner/SatsChip: reads the pubkey at the current derivation path;
requires the CVC.`,
	Run: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) {
	c, tr, err := connectCard()
	if err != nil {
		printError(err.Error())
		return
	}
	defer tr.Close()

	switch v := c.(type) {
	case *card.SatsCard:
		resp, err := v.Read()
		if err != nil {
			printError(fmt.Sprintf("read: %v", err))
			return
		}
		output.PrintRead(resp)
	case *card.Signer:
		cvc, err := promptCVC()
		if err != nil {
			printError(err.Error())
			return
		}
		resp, err := v.Read(cvc)
		if err != nil {
			printError(fmt.Sprintf("read: %v", err))
			return
		}
		output.PrintRead(resp)
	}

	fmt.Println()
	printSuccess("Done!")
}
