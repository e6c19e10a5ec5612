package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cktap/card"
	"cktap/output"
	"cktap/transport"
)

var (
	version = "1.0.0"

	// Global flags
	readerIndex int
	outputJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "cktap",
	Short: "Coinkite cktap smartcard client",
	Long: `cktap v` + version + `
Talk to a SatsCard, TapSigner, or SatsChip over PC/SC.

This tool supports:
  - Reading card status and slot/path state
  - Verifying the factory certificate chain
  - Deriving and reading public keys
  - Sealing new slots and unsealing existing ones
  - Dumping slot material and draining an auth_delay cooldown`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&readerIndex, "reader", "r", -1,
		"Reader index (use 'cktap status --list' to see available readers)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false,
		"Suppress reader info, success and warning messages (result tables are still printed)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connectCard auto-selects a reader when there is exactly one, connects,
// and probes the first card it finds.
func connectCard() (card.Card, transport.Transport, error) {
	if readerIndex < 0 {
		readers, err := transport.ListReaders()
		if err != nil {
			return nil, nil, fmt.Errorf("list readers: %w", err)
		}
		if len(readers) == 0 {
			return nil, nil, fmt.Errorf("no smart card readers found")
		}
		if len(readers) == 1 {
			readerIndex = 0
			if !outputJSON {
				output.PrintSuccess(fmt.Sprintf("Auto-selected reader: %s", readers[0]))
			}
		} else {
			output.PrintReaderList(readers)
			return nil, nil, fmt.Errorf("multiple readers found, use -r <index> to select one")
		}
	}

	tr, err := transport.Connect(readerIndex)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	if !outputJSON {
		output.PrintReaderInfo(tr.Name(), tr.ATRHex())
	}

	c, err := card.FindFirst(tr)
	if err != nil {
		tr.Close()
		return nil, nil, fmt.Errorf("probe card: %w", err)
	}
	return c, tr, nil
}
