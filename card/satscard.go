package card

import (
	"cktap/cktapcrypto"
	"cktap/session"
	"cktap/wire"
)

// SatsCard is a sealed-slot card: an ordered sequence of independent
// keyslots, each progressing unused -> sealed -> unsealed. Only one slot
// is "active" (spendable/derivable) at a time; unsealing the active slot
// advances the cursor to the next one.
type SatsCard struct {
	base

	activeSlot int
	totalSlots int
	addr       string
}

func newSatsCard(b base, status wire.StatusResponse) *SatsCard {
	sc := &SatsCard{base: b, addr: status.Addr}
	if len(status.Slots) == 2 {
		sc.activeSlot = status.Slots[0]
		sc.totalSlots = status.Slots[1]
	}
	return sc
}

func (s *SatsCard) Kind() Kind { return KindSatsCard }

// ActiveSlot returns the slot number the card will operate on by default,
// as of the last status refresh.
func (s *SatsCard) ActiveSlot() int { return s.activeSlot }

// TotalSlots returns the card's total slot count.
func (s *SatsCard) TotalSlots() int { return s.totalSlots }

// Address returns the last-known deposit address for the active slot, or
// "" if the active slot has no key yet.
func (s *SatsCard) Address() string { return s.addr }

// Refresh re-reads status and updates the active slot, slot count,
// address, and auth-delay. Per-slot state must always come from a fresh
// status rather than be inferred locally.
func (s *SatsCard) Refresh() error {
	status, err := s.refreshStatus()
	if err != nil {
		return err
	}
	s.addr = status.Addr
	if len(status.Slots) == 2 {
		s.activeSlot = status.Slots[0]
		s.totalSlots = status.Slots[1]
	}
	return nil
}

// NewSlot seeds the given slot with a fresh 32-byte chain code, sealing
// it. Only the card's currently active slot accepts this command.
func (s *SatsCard) NewSlot(slot int, chainCode []byte, cvc string) (*wire.NewResponse, error) {
	if err := s.sess.RequireNoDelay(); err != nil {
		return nil, err
	}
	if slot != s.activeSlot {
		return nil, &StateError{Reason: "new-slot: slot does not match the card's active slot"}
	}
	if len(chainCode) != cktapcrypto.ChainCodeLen {
		return nil, &StateError{Reason: "new-slot: chain_code must be 32 bytes"}
	}

	env, err := s.sess.BuildEnvelope(cvc)
	if err != nil {
		return nil, err
	}
	defer env.Scrub()

	cmd := wire.NewNewSlotCommand(slot, chainCode, env.EPubkey, env.XCVC)
	var resp wire.NewResponse
	if err := transmit(s.transport, s.codec, cmd, &resp); err != nil {
		return nil, err
	}
	s.sess.AdvanceNonce(resp.CardNonce)
	return &resp, nil
}

// Read returns the active slot's current public key. Unauthenticated.
func (s *SatsCard) Read() (*wire.ReadResponse, error) {
	appNonce, err := cktapcrypto.RandNonce()
	if err != nil {
		return nil, err
	}

	cmd := wire.NewReadCommand(appNonce, nil, nil)
	var resp wire.ReadResponse
	if err := transmit(s.transport, s.codec, cmd, &resp); err != nil {
		return nil, err
	}
	if len(resp.CardNonce) > 0 {
		s.sess.AdvanceNonce(resp.CardNonce)
	}
	return &resp, nil
}

// Derive returns the active slot's master pubkey, chain code, and a
// signature over them, verified against the returned master pubkey.
func (s *SatsCard) Derive() (*wire.DeriveResponse, error) {
	appNonce, err := cktapcrypto.RandNonce()
	if err != nil {
		return nil, err
	}
	cardNonceAtRequest := s.sess.CardNonce()

	cmd := wire.NewDeriveCommandForSatsCard(appNonce)
	var resp wire.DeriveResponse
	if err := transmit(s.transport, s.codec, cmd, &resp); err != nil {
		return nil, err
	}

	masterPubkey, err := cktapcrypto.ParsePubkey(resp.MasterPubkey)
	if err != nil {
		return nil, &CryptoError{Reason: "derive: master pubkey: " + err.Error()}
	}
	digest := session.Digest(cardNonceAtRequest, appNonce, resp.ChainCode)
	if !cktapcrypto.VerifyCompact(masterPubkey, digest, resp.Sig) {
		return nil, &CryptoError{Reason: "derive: signature did not verify against the returned master pubkey"}
	}

	s.sess.AdvanceNonce(resp.CardNonce)
	return &resp, nil
}

// Unseal reveals slot's private material and advances the active-slot
// cursor. Authenticated; slot must equal the card's active slot and be
// sealed.
func (s *SatsCard) Unseal(slot int, cvc string) (*wire.UnsealResponse, error) {
	if err := s.sess.RequireNoDelay(); err != nil {
		return nil, err
	}
	if slot != s.activeSlot {
		return nil, &StateError{Reason: "unseal: slot does not match the card's active slot"}
	}

	env, err := s.sess.BuildEnvelope(cvc)
	if err != nil {
		return nil, err
	}
	defer env.Scrub()

	cmd := wire.NewUnsealCommand(slot, env.EPubkey, env.XCVC)
	var resp wire.UnsealResponse
	if err := transmit(s.transport, s.codec, cmd, &resp); err != nil {
		return nil, err
	}
	s.sess.AdvanceNonce(resp.CardNonce)
	s.activeSlot++
	return &resp, nil
}

// Dump returns public information for an unused or sealed slot without a
// CVC, and full private material for an unsealed slot given the correct
// CVC.
func (s *SatsCard) Dump(slot int, cvc string) (*wire.DumpResponse, error) {
	var epubkey, xcvc []byte
	if cvc != "" {
		env, err := s.sess.BuildEnvelope(cvc)
		if err != nil {
			return nil, err
		}
		defer env.Scrub()
		epubkey, xcvc = env.EPubkey, env.XCVC
	}

	cmd := wire.NewDumpCommand(slot, epubkey, xcvc)
	var resp wire.DumpResponse
	if err := transmit(s.transport, s.codec, cmd, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Certs verifies the certificate chain and the final check signature,
// returning the matched factory root's name.
func (s *SatsCard) Certs(appNonce []byte) (string, error) {
	var slotPubkey []byte
	if read, err := s.Read(); err == nil {
		slotPubkey = read.Pubkey
	}
	return s.certs(appNonce, slotPubkey)
}

// Wait ticks the card's auth-delay counter toward zero.
func (s *SatsCard) Wait() (int, error) {
	return s.wait()
}
