package output

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"cktap/card"
	"cktap/wire"
)

// Color styles
var (
	colorHeader  = text.Colors{text.FgCyan, text.Bold}
	colorLabel   = text.Colors{text.FgYellow}
	colorValue   = text.Colors{text.FgWhite}
	colorSuccess = text.Colors{text.FgGreen}
	colorError   = text.Colors{text.FgRed}
	colorWarn    = text.Colors{text.FgYellow}
)

// getTableStyle returns the default table style
func getTableStyle() table.Style {
	style := table.StyleRounded
	style.Color.Header = colorHeader
	style.Color.Row = text.Colors{text.FgWhite}
	style.Color.RowAlternate = text.Colors{text.FgHiWhite}
	style.Options.SeparateRows = false
	return style
}

// newTable creates a new table writer with default settings
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(getTableStyle())
	t.Style().Options.SeparateRows = false
	return t
}

// PrintReaderList prints available PC/SC readers.
func PrintReaderList(readers []string) {
	fmt.Println()
	t := newTable()
	t.SetTitle("AVAILABLE SMART CARD READERS")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 8},
		{Number: 2, Colors: colorValue, WidthMin: 50},
	})

	if len(readers) == 0 {
		t.AppendRow(table.Row{"Status", colorWarn.Sprint("No readers found")})
	} else {
		for i, r := range readers {
			t.AppendRow(table.Row{fmt.Sprintf("[%d]", i), r})
		}
	}
	t.Render()
}

// PrintReaderInfo prints the reader name and the card's ATR.
func PrintReaderInfo(readerName, atr string) {
	fmt.Println()
	t := newTable()
	t.SetTitle("READER & CARD INFO")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 50},
	})
	t.AppendRow(table.Row{"Reader", readerName})
	t.AppendRow(table.Row{"ATR", atr})
	t.Render()
}

// PrintStatus prints a card's status fields, varying by kind.
func PrintStatus(c card.Card) {
	fmt.Println()
	t := newTable()
	t.SetTitle(fmt.Sprintf("CARD STATUS (%s)", c.Kind()))
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 18},
		{Number: 2, Colors: colorValue, WidthMin: 50},
	})

	t.AppendRow(table.Row{"Proto", c.Proto()})
	t.AppendRow(table.Row{"Version", c.Version()})
	t.AppendRow(table.Row{"Birth height", c.Birth()})

	switch v := c.(type) {
	case *card.SatsCard:
		t.AppendRow(table.Row{"Active slot", v.ActiveSlot()})
		t.AppendRow(table.Row{"Total slots", v.TotalSlots()})
		if v.Address() != "" {
			t.AppendRow(table.Row{"Address", v.Address()})
		} else {
			t.AppendRow(table.Row{"Address", colorWarn.Sprint("(slot not yet keyed)")})
		}
	case *card.Signer:
		if len(v.Path()) > 0 {
			t.AppendRow(table.Row{"Derivation path", formatPath(v.Path())})
		} else {
			t.AppendRow(table.Row{"Derivation path", colorWarn.Sprint("(blank)")})
		}
		t.AppendRow(table.Row{"Backups seen", v.NumBackups()})
	}

	if c.AuthDelay() > 0 {
		t.AppendRow(table.Row{"Auth delay", colorWarn.Sprintf("%d (wait required)", c.AuthDelay())})
	} else {
		t.AppendRow(table.Row{"Auth delay", colorSuccess.Sprint("none")})
	}
	t.Render()
}

func formatPath(path []uint32) string {
	s := ""
	for i, p := range path {
		if i > 0 {
			s += "/"
		}
		if p&0x80000000 != 0 {
			s += fmt.Sprintf("%d'", p&0x7fffffff)
		} else {
			s += fmt.Sprintf("%d", p)
		}
	}
	return s
}

// PrintCerts prints the result of a certificate-chain verification.
func PrintCerts(rootName string) {
	fmt.Println()
	t := newTable()
	t.SetTitle("CERTIFICATE CHAIN")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 18},
		{Number: 2, Colors: colorValue, WidthMin: 50},
	})
	t.AppendRow(table.Row{"Verified to", colorSuccess.Sprint(rootName)})
	t.Render()
}

// PrintRead prints a read response's pubkey.
func PrintRead(resp *wire.ReadResponse) {
	fmt.Println()
	t := newTable()
	t.SetTitle("READ RESULT")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 70},
	})
	t.AppendRow(table.Row{"Pubkey", fmt.Sprintf("%x", resp.Pubkey)})
	t.Render()
}

// PrintDerive prints a verified derive response.
func PrintDerive(resp *wire.DeriveResponse) {
	fmt.Println()
	t := newTable()
	t.SetTitle("DERIVE RESULT")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 18},
		{Number: 2, Colors: colorValue, WidthMin: 70},
	})
	if len(resp.Pubkey) > 0 {
		t.AppendRow(table.Row{"Pubkey", fmt.Sprintf("%x", resp.Pubkey)})
	}
	t.AppendRow(table.Row{"Master pubkey", fmt.Sprintf("%x", resp.MasterPubkey)})
	t.AppendRow(table.Row{"Chain code", fmt.Sprintf("%x", resp.ChainCode)})
	t.AppendRow(table.Row{"Signature", colorSuccess.Sprint("verified")})
	t.Render()
}

// PrintNewSlot prints the result of seeding a slot.
func PrintNewSlot(resp *wire.NewResponse) {
	fmt.Println()
	t := newTable()
	t.SetTitle("NEW SLOT RESULT")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 70},
	})
	t.AppendRow(table.Row{"Slot", resp.Slot})
	if len(resp.Pubkey) > 0 {
		t.AppendRow(table.Row{"Pubkey", fmt.Sprintf("%x", resp.Pubkey)})
	}
	t.Render()
}

// PrintUnseal prints the revealed private material of an unsealed slot.
// Callers are responsible for deciding whether this belongs on a screen
// at all; this function does not redact anything.
func PrintUnseal(resp *wire.UnsealResponse) {
	fmt.Println()
	t := newTable()
	t.SetTitle("UNSEAL RESULT")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 70},
	})
	t.AppendRow(table.Row{"Slot", resp.Slot})
	t.AppendRow(table.Row{"Privkey", colorWarn.Sprintf("%x", resp.Privkey)})
	t.AppendRow(table.Row{"Pubkey", fmt.Sprintf("%x", resp.Pubkey)})
	t.AppendRow(table.Row{"Master pubkey", fmt.Sprintf("%x", resp.MasterPubkey)})
	t.AppendRow(table.Row{"Chain code", fmt.Sprintf("%x", resp.ChainCode)})
	t.Render()
}

// PrintDump prints a slot's dump, redacting nothing the card itself sent.
func PrintDump(resp *wire.DumpResponse) {
	fmt.Println()
	t := newTable()
	t.SetTitle(fmt.Sprintf("DUMP RESULT (slot %d)", resp.Slot))
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel, WidthMin: 15},
		{Number: 2, Colors: colorValue, WidthMin: 70},
	})
	t.AppendRow(table.Row{"Used", resp.Used})
	t.AppendRow(table.Row{"Sealed", resp.Sealed})
	if len(resp.Pubkey) > 0 {
		t.AppendRow(table.Row{"Pubkey", fmt.Sprintf("%x", resp.Pubkey)})
	}
	if len(resp.Privkey) > 0 {
		t.AppendRow(table.Row{"Privkey", colorWarn.Sprintf("%x", resp.Privkey)})
	}
	if len(resp.MasterPubkey) > 0 {
		t.AppendRow(table.Row{"Master pubkey", fmt.Sprintf("%x", resp.MasterPubkey)})
	}
	if len(resp.ChainCode) > 0 {
		t.AppendRow(table.Row{"Chain code", fmt.Sprintf("%x", resp.ChainCode)})
	}
	t.Render()
}

// PrintWait prints the auth-delay counter remaining after a wait command.
func PrintWait(remaining int) {
	fmt.Println()
	if remaining > 0 {
		PrintWarning(fmt.Sprintf("auth_delay remaining: %d", remaining))
	} else {
		PrintSuccess("auth_delay cleared")
	}
}

// PrintError prints an error message
func PrintError(msg string) {
	fmt.Println(colorError.Sprintf("✗ Error: %s", msg))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	fmt.Println(colorSuccess.Sprintf("✓ %s", msg))
}

// PrintWarning prints a warning message
func PrintWarning(msg string) {
	fmt.Println(colorWarn.Sprintf("⚠ %s", msg))
}
