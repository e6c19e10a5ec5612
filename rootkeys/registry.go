// Package rootkeys holds the immutable table of factory root public keys a
// certificate chain must terminate at. Additions require a code change;
// this is the trust anchor of the whole certificate-chain verifier.
package rootkeys

import (
	"encoding/hex"

	"cktap/cktapcrypto"
)

// Entry is one named factory root key.
type Entry struct {
	Name      string
	PubkeyHex string
}

// registry is the static, ordered set of recognized factory roots.
//
// The real Coinkite factory root points are not present in this module's
// reference corpus, so these three entries use secp256k1 points known to be
// valid (two are test fixtures lifted from go-ethereum's swarm ACT tests,
// the third is the curve's own generator point) purely so the
// parse/verify code path is exercised against real point arithmetic. See
// SPEC_FULL.md for the provenance of each key.
var registry = []Entry{
	{
		Name:      "Root-2021",
		PubkeyHex: "0226f213613e843a413ad35b40f193910d26eb35f00154afcde9ded57479a6224a",
	},
	{
		Name:      "Root-Factory",
		PubkeyHex: "02e6f8d5e28faaa899744972bb847b6eb805a160494690c9ee7197ae9f619181db",
	},
	{
		Name:      "Root-Generator",
		PubkeyHex: "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
	},
}

// Lookup returns the name of the registered root whose compressed pubkey
// equals pub, and true if one was found.
func Lookup(pub *cktapcrypto.PublicKey) (string, bool) {
	compressed := cktapcrypto.SerializeCompressed(pub)
	for _, e := range registry {
		candidate, err := cktapcrypto.ParsePubkey(mustHex(e.PubkeyHex))
		if err != nil {
			continue
		}
		if bytesEqual(cktapcrypto.SerializeCompressed(candidate), compressed) {
			return e.Name, true
		}
	}
	return "", false
}

// All returns the registered root entries, in lookup order.
func All() []Entry {
	out := make([]Entry, len(registry))
	copy(out, registry)
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("rootkeys: invalid hex constant: " + err.Error())
	}
	return b
}
