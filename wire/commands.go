// Package wire defines the canonical CBOR command/response shapes the card
// speaks, and the codec that (de)serializes them. Every command is a CBOR
// map whose "cmd" key selects the operation; unknown response fields are
// ignored on decode, and missing required fields surface as typed errors.
package wire

// Known command names (spec section 6). CmdSign is recorded for
// completeness — the card vocabulary includes it — but this module never
// sends it: transaction signing is an explicit Non-goal.
const (
	CmdStatus = "status"
	CmdRead   = "read"
	CmdDerive = "derive"
	CmdCerts  = "certs"
	CmdCheck  = "check"
	CmdNew    = "new"
	CmdUnseal = "unseal"
	CmdDump   = "dump"
	CmdWait   = "wait"
	CmdSign   = "sign"
)

// StatusCommand requests the card's current state. It never mutates state
// and carries no authentication envelope.
type StatusCommand struct {
	Cmd string `cbor:"cmd"`
}

// NewStatusCommand builds the unauthenticated status request.
func NewStatusCommand() StatusCommand {
	return StatusCommand{Cmd: CmdStatus}
}

// ReadCommand asks for the pubkey at the card's current slot (SatsCard) or
// derivation path (TapSigner). Nonce is a fresh app nonce binding the
// response to this request. EPubkey/XCVC are present only when the card
// kind requires authentication for read (TapSigner always; SatsCard never).
type ReadCommand struct {
	Cmd     string `cbor:"cmd"`
	Nonce   []byte `cbor:"nonce"`
	EPubkey []byte `cbor:"epubkey,omitempty"`
	XCVC    []byte `cbor:"xcvc,omitempty"`
}

// NewReadCommand builds a read request. Pass nil epubkey/xcvc for an
// unauthenticated read.
func NewReadCommand(appNonce, epubkey, xcvc []byte) ReadCommand {
	return ReadCommand{Cmd: CmdRead, Nonce: appNonce, EPubkey: epubkey, XCVC: xcvc}
}

// CertsCommand requests the card's certificate chain.
type CertsCommand struct {
	Cmd string `cbor:"cmd"`
}

// NewCertsCommand builds the certs request.
func NewCertsCommand() CertsCommand {
	return CertsCommand{Cmd: CmdCerts}
}

// CheckCommand asks the card to sign a fresh app nonce with its per-unit
// key, proving possession of the key the cert chain vouches for.
type CheckCommand struct {
	Cmd   string `cbor:"cmd"`
	Nonce []byte `cbor:"nonce"`
}

// NewCheckCommand builds the check request.
func NewCheckCommand(appNonce []byte) CheckCommand {
	return CheckCommand{Cmd: CmdCheck, Nonce: appNonce}
}

// NewSlotCommand seeds a slot (SatsCard) or the single signer slot
// (TapSigner) with a fresh chain code. Always authenticated.
type NewSlotCommand struct {
	Cmd       string `cbor:"cmd"`
	Slot      int    `cbor:"slot"`
	ChainCode []byte `cbor:"chain_code,omitempty"`
	EPubkey   []byte `cbor:"epubkey"`
	XCVC      []byte `cbor:"xcvc"`
}

// NewNewSlotCommand builds a "new" request for the given slot.
func NewNewSlotCommand(slot int, chainCode, epubkey, xcvc []byte) NewSlotCommand {
	return NewSlotCommand{Cmd: CmdNew, Slot: slot, ChainCode: chainCode, EPubkey: epubkey, XCVC: xcvc}
}

// DeriveCommand requests a fresh derivation. SatsCard derives its one
// fixed slot key and needs no path; TapSigner supplies a hardened path and
// an authentication envelope.
type DeriveCommand struct {
	Cmd     string   `cbor:"cmd"`
	Nonce   []byte   `cbor:"nonce"`
	Path    []uint32 `cbor:"path,omitempty"`
	EPubkey []byte   `cbor:"epubkey,omitempty"`
	XCVC    []byte   `cbor:"xcvc,omitempty"`
}

// NewDeriveCommandForSatsCard builds the SatsCard derive request.
func NewDeriveCommandForSatsCard(appNonce []byte) DeriveCommand {
	return DeriveCommand{Cmd: CmdDerive, Nonce: appNonce}
}

// NewDeriveCommandForTapSigner builds the TapSigner derive request.
func NewDeriveCommandForTapSigner(appNonce []byte, path []uint32, epubkey, xcvc []byte) DeriveCommand {
	return DeriveCommand{Cmd: CmdDerive, Nonce: appNonce, Path: path, EPubkey: epubkey, XCVC: xcvc}
}

// UnsealCommand reveals the private material of a sealed slot, advancing
// it to unsealed. SatsCard only.
type UnsealCommand struct {
	Cmd     string `cbor:"cmd"`
	Slot    int    `cbor:"slot"`
	EPubkey []byte `cbor:"epubkey"`
	XCVC    []byte `cbor:"xcvc"`
}

// NewUnsealCommand builds an unseal request for the given slot.
func NewUnsealCommand(slot int, epubkey, xcvc []byte) UnsealCommand {
	return UnsealCommand{Cmd: CmdUnseal, Slot: slot, EPubkey: epubkey, XCVC: xcvc}
}

// DumpCommand reads a slot's public information, or its full material if a
// valid CVC envelope is supplied for an unsealed slot.
type DumpCommand struct {
	Cmd     string `cbor:"cmd"`
	Slot    int    `cbor:"slot"`
	EPubkey []byte `cbor:"epubkey,omitempty"`
	XCVC    []byte `cbor:"xcvc,omitempty"`
}

// NewDumpCommand builds a dump request. Pass nil epubkey/xcvc to dump
// without a CVC (only public fields come back).
func NewDumpCommand(slot int, epubkey, xcvc []byte) DumpCommand {
	return DumpCommand{Cmd: CmdDump, Slot: slot, EPubkey: epubkey, XCVC: xcvc}
}

// WaitCommand ticks the auth-delay counter toward zero.
type WaitCommand struct {
	Cmd string `cbor:"cmd"`
}

// NewWaitCommand builds the wait request.
func NewWaitCommand() WaitCommand {
	return WaitCommand{Cmd: CmdWait}
}
