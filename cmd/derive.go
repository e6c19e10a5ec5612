package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cktap/card"
	"cktap/output"
)

var derivePath string

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive and verify the master pubkey and chain code",
	Long: `SatsCard: derives the active slot's fixed key; no path or CVC.
TapSigner/SatsChip: sets the derivation path (always hardened) and
requires the CVC.

Examples:
  cktap derive
  cktap derive --path 84/0/0`,
	Run: runDerive,
}

func init() {
	deriveCmd.Flags().StringVar(&derivePath, "path", "", "BIP32 path, e.g. 84/0/0 (TapSigner/SatsChip only)")
	rootCmd.AddCommand(deriveCmd)
}

func runDerive(cmd *cobra.Command, args []string) {
	c, tr, err := connectCard()
	if err != nil {
		printError(err.Error())
		return
	}
	defer tr.Close()

	switch v := c.(type) {
	case *card.SatsCard:
		resp, err := v.Derive()
		if err != nil {
			printError(fmt.Sprintf("derive: %v", err))
			return
		}
		output.PrintDerive(resp)
	case *card.Signer:
		path, err := parsePath(derivePath)
		if err != nil {
			printError(err.Error())
			return
		}
		cvc, err := promptCVC()
		if err != nil {
			printError(err.Error())
			return
		}
		resp, err := v.Derive(path, cvc)
		if err != nil {
			printError(fmt.Sprintf("derive: %v", err))
			return
		}
		output.PrintDerive(resp)
	}

	fmt.Println()
	printSuccess("Done!")
}
