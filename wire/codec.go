package wire

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Codec encodes commands and decodes responses using canonical CBOR, the
// deterministic map-key ordering and definite-length encoding the card
// expects on the wire.
type Codec struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

// NewCodec builds a Codec configured for canonical CBOR maps.
func NewCodec() (*Codec, error) {
	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}
	encMode, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("wire: build cbor encoder: %w", err)
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err := decOpts.DecMode()
	if err != nil {
		return nil, fmt.Errorf("wire: build cbor decoder: %w", err)
	}

	return &Codec{encMode: encMode, decMode: decMode}, nil
}

// EncodeCommand serializes a command struct to its canonical CBOR map.
func (c *Codec) EncodeCommand(cmd any) ([]byte, error) {
	b, err := c.encMode.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("wire: encode command: %w", err)
	}
	return b, nil
}

// DecodeResponse deserializes a response body into out, which must be a
// pointer to one of the response structs in responses.go. A malformed
// body surfaces as a DecodeError naming the offending type; a body that
// decodes cleanly but omits a field not marked ",omitempty" surfaces as a
// DecodeError naming that field, before out's zero-valued field can reach
// any byte-length-based check downstream.
func (c *Codec) DecodeResponse(body []byte, out any) error {
	var raw map[string]cbor.RawMessage
	if err := c.decMode.Unmarshal(body, &raw); err != nil {
		return &DecodeError{Target: fmt.Sprintf("%T", out), Err: err}
	}

	if err := checkRequiredFields(out, raw); err != nil {
		return err
	}

	if err := c.decMode.Unmarshal(body, out); err != nil {
		return &DecodeError{Target: fmt.Sprintf("%T", out), Err: err}
	}
	return nil
}

// checkRequiredFields walks out's struct fields (following anonymous
// embedding) and confirms raw carries a key for every "cbor" tag lacking
// ",omitempty". Fields with no cbor tag, or tagged "-", are skipped.
func checkRequiredFields(out any, raw map[string]cbor.RawMessage) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil
	}
	return checkRequiredFieldsStruct(fmt.Sprintf("%T", out), v.Elem().Type(), raw)
}

func checkRequiredFieldsStruct(target string, t reflect.Type, raw map[string]cbor.RawMessage) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if err := checkRequiredFieldsStruct(target, f.Type, raw); err != nil {
				return err
			}
			continue
		}

		tag := f.Tag.Get("cbor")
		if tag == "" || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		name := parts[0]
		if name == "" {
			continue
		}
		omitempty := false
		for _, opt := range parts[1:] {
			if opt == "omitempty" {
				omitempty = true
			}
		}
		if omitempty {
			continue
		}
		if _, present := raw[name]; !present {
			return &DecodeError{Target: target, Err: fmt.Errorf("missing required field %q", name)}
		}
	}
	return nil
}

// DecodeError reports a CBOR response that doesn't match the expected Go
// shape, naming the field or type at fault.
type DecodeError struct {
	Target string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: decode %s: %v", e.Target, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
