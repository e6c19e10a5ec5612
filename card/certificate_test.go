package card

import (
	"bytes"
	"testing"

	"cktap/cktapcrypto"
	"cktap/session"
)

// buildChain signs a 3-level certificate chain rooted at a registered
// factory root key: cardPubkey is vouched for by an intermediate key,
// which is in turn vouched for by the root. Each link is a recoverable
// signature over the compressed pubkey of the level below it.
func buildChain(t *testing.T, cardPubkey *cktapcrypto.PublicKey, rootPriv *cktapcrypto.PrivateKey) [][]byte {
	t.Helper()

	midPriv, midPub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate intermediate key: %v", err)
	}

	cardDigest := cktapcrypto.Digest(cktapcrypto.SerializeCompressed(cardPubkey))
	linkToMid := cktapcrypto.SignRecoverable(midPriv, cardDigest)

	midDigest := cktapcrypto.Digest(cktapcrypto.SerializeCompressed(midPub))
	linkToRoot := cktapcrypto.SignRecoverable(rootPriv, midDigest)

	return [][]byte{linkToMid, linkToRoot}
}

// TestVerifyCertChainAcceptsChainToRegisteredRoot exercises the accept
// path against the real root registry. "Root-Generator" is the curve's
// own generator point, whose private key is the scalar 1 — the one
// factory root entry this module can actually sign with.
func TestVerifyCertChainAcceptsChainToRegisteredRoot(t *testing.T) {
	_, cardPub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate card key: %v", err)
	}

	generatorPriv, err := cktapcrypto.PrivateKeyFromScalar(append(bytes.Repeat([]byte{0x00}, 31), 0x01))
	if err != nil {
		t.Fatalf("build generator private key: %v", err)
	}

	chain := buildChain(t, cardPub, generatorPriv)

	name, err := VerifyCertChain(cardPub, chain)
	if err != nil {
		t.Fatalf("VerifyCertChain: %v", err)
	}
	if name != "Root-Generator" {
		t.Fatalf("expected root name %q, got %q", "Root-Generator", name)
	}
}

func TestVerifyCertChainRejectsUnknownRoot(t *testing.T) {
	_, cardPub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate card key: %v", err)
	}
	unregisteredRootPriv, _, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate root key: %v", err)
	}

	chain := buildChain(t, cardPub, unregisteredRootPriv)

	_, err = VerifyCertChain(cardPub, chain)
	if err == nil {
		t.Fatalf("expected rejection: chain terminates at an unregistered key")
	}
}

func TestVerifyCertChainRejectsTamperedLink(t *testing.T) {
	_, cardPub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate card key: %v", err)
	}
	// Root the chain at the registered generator key so the tampered byte,
	// not an unregistered root, is what makes verification fail.
	rootPriv, err := cktapcrypto.PrivateKeyFromScalar(append(bytes.Repeat([]byte{0x00}, 31), 0x01))
	if err != nil {
		t.Fatalf("build generator private key: %v", err)
	}
	chain := buildChain(t, cardPub, rootPriv)
	chain[0][10] ^= 0xFF

	if _, err := VerifyCertChain(cardPub, chain); err == nil {
		t.Fatalf("expected rejection of a tampered chain link")
	}
}

func TestVerifyCertChainRejectsEmptyChain(t *testing.T) {
	_, cardPub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate card key: %v", err)
	}
	if _, err := VerifyCertChain(cardPub, nil); err == nil {
		t.Fatalf("expected rejection of an empty chain")
	}
}

// TestCheckSignatureScenarioA verifies spec scenario A: a sealed card on
// firmware "1.0.2" signs OPENDIME || card_nonce || app_nonce || slot_pubkey.
func TestCheckSignatureScenarioA(t *testing.T) {
	cardPriv, cardPub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate card key: %v", err)
	}
	_, slotPub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate slot key: %v", err)
	}
	slotPubkeyBytes := cktapcrypto.SerializeCompressed(slotPub)

	cardNonce := bytes.Repeat([]byte{0x0F}, 16)
	appNonce := bytes.Repeat([]byte{0xAA}, 16)

	digest := session.Digest(cardNonce, appNonce, slotPubkeyBytes)
	sig := cktapcrypto.SignCompact(cardPriv, digest)

	if err := VerifyCheckSignature(cardPub, cardNonce, appNonce, slotPubkeyBytes, "1.0.2", sig); err != nil {
		t.Fatalf("VerifyCheckSignature: %v", err)
	}
}

// TestCheckSignatureScenarioB verifies spec scenario B: firmware "0.9.0"
// signs a digest that omits the slot pubkey entirely.
func TestCheckSignatureScenarioB(t *testing.T) {
	cardPriv, cardPub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate card key: %v", err)
	}
	_, slotPub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate slot key: %v", err)
	}
	slotPubkeyBytes := cktapcrypto.SerializeCompressed(slotPub)

	cardNonce := bytes.Repeat([]byte{0x0F}, 16)
	appNonce := bytes.Repeat([]byte{0xAA}, 16)

	digest := session.Digest(cardNonce, appNonce, nil)
	sig := cktapcrypto.SignCompact(cardPriv, digest)

	if err := VerifyCheckSignature(cardPub, cardNonce, appNonce, slotPubkeyBytes, "0.9.0", sig); err != nil {
		t.Fatalf("VerifyCheckSignature (0.9.0 quirk): %v", err)
	}

	// A 1.0.2-style digest (with the slot pubkey mixed in) must NOT verify
	// against the 0.9.0 card's signature.
	if err := VerifyCheckSignature(cardPub, cardNonce, appNonce, slotPubkeyBytes, "1.0.2", sig); err == nil {
		t.Fatalf("expected 0.9.0 signature to fail verification under the 1.0.2 digest variant")
	}
}
