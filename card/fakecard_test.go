package card

import (
	"testing"

	"cktap/cktapcrypto"
	"cktap/session"
	"cktap/transport"
	"cktap/wire"
)

// fakeCard is a minimal in-memory simulation of a cktap card's session
// behavior, just enough to drive the card package's Transport.Handler
// side of a test: it decodes whatever command the client sent, updates
// its own nonce/auth-delay bookkeeping, and encodes a response the same
// way a real card would.
type fakeCard struct {
	t         *testing.T
	codec     *wire.Codec
	priv      *cktapcrypto.PrivateKey
	pub       *cktapcrypto.PublicKey
	cardNonce []byte
	authDelay int
	ver       string

	slots      []int // [active, total], nil for signer cards
	path       []uint32
	numBackups int

	// failNextAuth, when set, makes the next authenticated command fail with
	// bad_auth regardless of the xcvc supplied — simulates scenario F.
	failNextAuth bool
}

func newFakeCard(t *testing.T, ver string, slots []int) *fakeCard {
	t.Helper()
	priv, pub, err := cktapcrypto.GenerateEphemeralKeypair()
	if err != nil {
		t.Fatalf("generate fake card key: %v", err)
	}
	codec, err := wire.NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	nonce, err := cktapcrypto.RandNonce()
	if err != nil {
		t.Fatalf("rand nonce: %v", err)
	}
	return &fakeCard{t: t, codec: codec, priv: priv, pub: pub, cardNonce: nonce, ver: ver, slots: slots}
}

func (f *fakeCard) transport() *transport.Fake {
	return &transport.Fake{Handler: f.handle}
}

// unframe strips the ISO 7816 command-APDU header off raw to recover the
// CBOR body, mirroring what apdu.Frame built.
func unframe(t *testing.T, raw []byte) []byte {
	t.Helper()
	if len(raw) < 5 {
		t.Fatalf("fake card received a too-short APDU")
	}
	if raw[4] != 0x00 {
		// short form: CLA INS P1 P2 Lc <payload> Le
		lc := int(raw[4])
		return raw[5 : 5+lc]
	}
	// extended form: CLA INS P1 P2 0x00 LcHi LcLo <payload> LeHi LeLo
	lc := int(raw[5])<<8 | int(raw[6])
	return raw[7 : 7+lc]
}

func frameSuccess(t *testing.T, codec *wire.Codec, v any) []byte {
	t.Helper()
	body, err := codec.EncodeCommand(v)
	if err != nil {
		t.Fatalf("encode fake response: %v", err)
	}
	return append(body, 0x90, 0x00)
}

func (f *fakeCard) nextNonce(t *testing.T) []byte {
	t.Helper()
	n, err := cktapcrypto.RandNonce()
	if err != nil {
		t.Fatalf("rand nonce: %v", err)
	}
	f.cardNonce = n
	return n
}

func (f *fakeCard) handle(raw []byte) ([]byte, error) {
	t := f.t
	body := unframe(t, raw)

	var probe struct {
		Cmd string `cbor:"cmd"`
	}
	if err := f.codec.DecodeResponse(body, &probe); err != nil {
		t.Fatalf("fake card: decode command envelope: %v", err)
	}

	switch probe.Cmd {
	case wire.CmdStatus:
		resp := wire.StatusResponse{
			Proto: 1, Ver: f.ver, Birth: 100,
			Pubkey: cktapcrypto.SerializeCompressed(f.pub), CardNonce: f.cardNonce,
			AuthDelay: f.authDelay, Slots: f.slots, Path: f.path, NumBackups: f.numBackups,
		}
		return frameSuccess(t, f.codec, resp), nil

	case wire.CmdNew:
		if f.authDelay > 0 {
			return frameSuccess(t, f.codec, wire.ErrorResponse{Error: "need_wait"}), nil
		}
		if f.failNextAuth {
			f.failNextAuth = false
			f.authDelay = 3
			return frameSuccess(t, f.codec, wire.ErrorResponse{Error: "bad_auth"}), nil
		}
		next := f.nextNonce(t)
		if f.slots != nil {
			f.path = nil
		} else {
			f.path = []uint32{}
		}
		return frameSuccess(t, f.codec, wire.NewResponse{Slot: 0, CardNonce: next, Pubkey: cktapcrypto.SerializeCompressed(f.pub)}), nil

	case wire.CmdDerive:
		var cmd wire.DeriveCommand
		if err := f.codec.DecodeResponse(body, &cmd); err != nil {
			t.Fatalf("fake card: decode derive: %v", err)
		}
		cardNonceAtRequest := f.cardNonce
		chainCode, err := cktapcrypto.RandChainCode()
		if err != nil {
			t.Fatalf("rand chain code: %v", err)
		}
		digest := session.Digest(cardNonceAtRequest, cmd.Nonce, chainCode)
		sig := cktapcrypto.SignCompact(f.priv, digest)
		next := f.nextNonce(t)
		if len(cmd.Path) > 0 {
			f.path = cmd.Path
		}
		return frameSuccess(t, f.codec, wire.DeriveResponse{
			CardNonce: next, ChainCode: chainCode, MasterPubkey: cktapcrypto.SerializeCompressed(f.pub), Sig: sig,
		}), nil

	case wire.CmdUnseal:
		if f.authDelay > 0 {
			return frameSuccess(t, f.codec, wire.ErrorResponse{Error: "need_wait"}), nil
		}
		if f.failNextAuth {
			f.failNextAuth = false
			f.authDelay = 3
			return frameSuccess(t, f.codec, wire.ErrorResponse{Error: "bad_auth"}), nil
		}
		next := f.nextNonce(t)
		return frameSuccess(t, f.codec, wire.UnsealResponse{
			Slot: f.slots[0], Privkey: make([]byte, 32), Pubkey: cktapcrypto.SerializeCompressed(f.pub),
			MasterPubkey: cktapcrypto.SerializeCompressed(f.pub), ChainCode: make([]byte, 32), CardNonce: next,
		}), nil

	case wire.CmdWait:
		if f.authDelay > 0 {
			f.authDelay--
		}
		return frameSuccess(t, f.codec, wire.WaitResponse{AuthDelay: f.authDelay}), nil

	case wire.CmdRead:
		next := f.nextNonce(t)
		return frameSuccess(t, f.codec, wire.ReadResponse{Pubkey: cktapcrypto.SerializeCompressed(f.pub), CardNonce: next}), nil

	default:
		t.Fatalf("fake card: unhandled command %q", probe.Cmd)
		return nil, nil
	}
}
