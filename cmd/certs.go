package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cktap/cktapcrypto"
	"cktap/output"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Verify the card's factory certificate chain",
	Long: `Fetch the card's certificate chain, verify it recovers back to a
registered factory root key, and verify the card's own check signature
against its status pubkey.`,
	Run: runCerts,
}

func init() {
	rootCmd.AddCommand(certsCmd)
}

func runCerts(cmd *cobra.Command, args []string) {
	c, tr, err := connectCard()
	if err != nil {
		printError(err.Error())
		return
	}
	defer tr.Close()

	appNonce, err := cktapcrypto.RandNonce()
	if err != nil {
		printError(err.Error())
		return
	}

	rootName, err := c.Certs(appNonce)
	if err != nil {
		printError(fmt.Sprintf("certificate verification failed: %v", err))
		return
	}

	output.PrintCerts(rootName)
	fmt.Println()
	printSuccess("Done!")
}
