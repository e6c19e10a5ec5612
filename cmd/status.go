package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cktap/output"
)

var listReadersFlag bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Read card status",
	Long: `Read a card's status fields: proto, version, birth height, and
either the SatsCard slot cursor or the TapSigner derivation path.

Examples:
  # List available readers
  cktap status --list

  # Read status from the only connected reader
  cktap status`,
	Run: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&listReadersFlag, "list", "l", false,
		"List available smart card readers")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	if listReadersFlag {
		if err := listReaders(); err != nil {
			printError(err.Error())
		}
		return
	}

	c, tr, err := connectCard()
	if err != nil {
		printError(err.Error())
		return
	}
	defer tr.Close()

	output.PrintStatus(c)
	fmt.Println()
	printSuccess("Done!")
}
