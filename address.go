package mctl

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"golang.org/x/crypto/blake2b"

	"github.com/tillage-one/mctl/errors"
)

// AddressLength is the length of all addresses. You can modify it in init()
// before any addresses are calculated, but it must not change during the
// lifetime of the kvstore.
var AddressLength = 20

// bech32HRP is the human readable prefix used when rendering an address.
const bech32HRP = "mctl"

// Address identifies a resource, a controller slot or a capability. It is a
// collision-free, one-way digest of the identified entity and is always
// AddressLength bytes.
type Address []byte

// NewAddress hashes and truncates into the proper size.
func NewAddress(data []byte) Address {
	if data == nil {
		return nil
	}
	h := blake2b.Sum256(data)
	return h[:AddressLength]
}

// Equals checks if two addresses are the same.
func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

// Validate returns an error if the address is not the valid size.
func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.Wrapf(errors.ErrInput, "invalid address length %d", len(a))
	}
	return nil
}

// String returns a human readable bech32 representation of this address.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	return a.Bech32String()
}

// Bech32String encodes this address using bech32 with the mctl prefix.
func (a Address) Bech32String() string {
	grouped, err := bech32.ConvertBits(a, 8, 5, true)
	if err != nil {
		return strings.ToUpper(hex.EncodeToString(a))
	}
	enc, err := bech32.Encode(bech32HRP, grouped)
	if err != nil {
		return strings.ToUpper(hex.EncodeToString(a))
	}
	return enc
}

// ParseAddress accepts either a bech32 or a hex encoded address
// representation and returns the raw address.
func ParseAddress(enc string) (Address, error) {
	if hrp, grouped, err := bech32.Decode(enc); err == nil {
		if hrp != bech32HRP {
			return nil, errors.Wrapf(errors.ErrInput, "bech32 prefix %q", hrp)
		}
		raw, err := bech32.ConvertBits(grouped, 5, 8, false)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInput, "bech32 payload")
		}
		a := Address(raw)
		return a, a.Validate()
	}
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "not bech32 nor hex")
	}
	a := Address(raw)
	return a, a.Validate()
}

// MarshalJSON provides a bech32 representation for JSON, to override the
// standard base64 []byte encoding.
func (a Address) MarshalJSON() ([]byte, error) {
	if a == nil {
		return json.Marshal("")
	}
	return json.Marshal(a.Bech32String())
}

// UnmarshalJSON parses either a bech32 or a hex JSON string.
func (a *Address) UnmarshalJSON(raw []byte) error {
	var enc string
	if err := json.Unmarshal(raw, &enc); err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode json")
	}
	if len(enc) == 0 {
		*a = nil
		return nil
	}
	addr, err := ParseAddress(enc)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Clone returns an independent copy of this address.
func (a Address) Clone() Address {
	if a == nil {
		return nil
	}
	cpy := make(Address, len(a))
	copy(cpy, a)
	return cpy
}
