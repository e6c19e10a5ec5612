package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"cktap/cktapcrypto"
	"cktap/output"
	"cktap/transport"
)

// printError prints an error message using the output package
func printError(msg string) {
	output.PrintError(msg)
}

// printSuccess prints a success message using the output package
func printSuccess(msg string) {
	if !outputJSON {
		output.PrintSuccess(msg)
	}
}

// printWarning prints a warning message using the output package
func printWarning(msg string) {
	if !outputJSON {
		output.PrintWarning(msg)
	}
}

// listReaders prints the list of available smart card readers.
func listReaders() error {
	readers, err := transport.ListReaders()
	if err != nil {
		return fmt.Errorf("list readers: %w", err)
	}
	output.PrintReaderList(readers)
	return nil
}

// promptCVC reads a 6-digit CVC from the terminal without echoing it. It
// falls back to a plain line read when stdin is not a terminal, so the
// CLI remains scriptable in tests.
func promptCVC() (string, error) {
	fmt.Print("Enter CVC: ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read cvc: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read cvc: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// parseChainCode accepts a 64-character hex string and returns the raw
// 32 bytes, or generates a fresh one when hexStr is empty.
func parseChainCode(hexStr string) ([]byte, error) {
	if hexStr == "" {
		return cktapcrypto.RandChainCode()
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("chain code must be hex: %w", err)
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("chain code must be 32 bytes, got %d", len(b))
	}
	return b, nil
}

// parsePath parses a slash-separated BIP32 path like "84/0/0" into raw
// (unhardened) path elements; callers harden as the card kind requires.
func parsePath(s string) ([]uint32, error) {
	if s == "" {
		return nil, fmt.Errorf("path must not be empty")
	}
	parts := strings.Split(s, "/")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(strings.TrimSpace(p), "'")
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path element %q: %w", p, err)
		}
		out = append(out, uint32(n))
	}
	return out, nil
}
