package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cktap/card"
	"cktap/output"
)

var (
	newSlotArg  int
	newChainHex string
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Seed a slot (SatsCard) or the signer's single slot with a chain code",
	Long: `SatsCard: seeds the given slot number, which must match the card's
currently active slot. TapSigner/SatsChip: seeds the card's one slot;
permitted only while blank.

Examples:
  cktap new --slot 0
  cktap new --chain-code <64 hex chars>`,
	Run: runNew,
}

func init() {
	newCmd.Flags().IntVar(&newSlotArg, "slot", 0, "slot number (SatsCard only)")
	newCmd.Flags().StringVar(&newChainHex, "chain-code", "", "32-byte chain code as hex; random if omitted")
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) {
	c, tr, err := connectCard()
	if err != nil {
		printError(err.Error())
		return
	}
	defer tr.Close()

	chainCode, err := parseChainCode(newChainHex)
	if err != nil {
		printError(err.Error())
		return
	}
	cvc, err := promptCVC()
	if err != nil {
		printError(err.Error())
		return
	}

	switch v := c.(type) {
	case *card.SatsCard:
		resp, err := v.NewSlot(newSlotArg, chainCode, cvc)
		if err != nil {
			printError(fmt.Sprintf("new: %v", err))
			return
		}
		output.PrintNewSlot(resp)
	case *card.Signer:
		resp, err := v.Init(chainCode, cvc)
		if err != nil {
			printError(fmt.Sprintf("new: %v", err))
			return
		}
		output.PrintNewSlot(resp)
	}

	fmt.Println()
	printSuccess("Done!")
}
