package domain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AssetRef identifies one non-fungible token: the collection contract plus the
// token id inside it.
type AssetRef struct {
	Contract string `json:"contract"`
	TokenID  string `json:"token_id"`
}

func (a AssetRef) String() string {
	return fmt.Sprintf("%s#%s", a.Contract, a.TokenID)
}

// Validate checks the contract address shape and token id. Mixed-case
// addresses must carry a valid EIP-55 checksum.
func (a AssetRef) Validate() error {
	if err := ValidateAddress("asset.contract", a.Contract); err != nil {
		return err
	}
	if a.TokenID == "" {
		return NewValidationError("asset.token_id", "token id is required")
	}
	for _, c := range a.TokenID {
		if c < '0' || c > '9' {
			return NewValidationError("asset.token_id", "token id must be a decimal integer")
		}
	}
	if len(a.TokenID) > 78 {
		return NewValidationError("asset.token_id", "token id exceeds uint256")
	}
	return nil
}

// Normalized returns the ref with a lowercase contract address.
func (a AssetRef) Normalized() AssetRef {
	return AssetRef{Contract: NormalizeAddress(a.Contract), TokenID: a.TokenID}
}

// ValidateAddress checks that addr is 0x followed by 40 hex characters.
func ValidateAddress(field, addr string) error {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return NewValidationError(field, "must be a 0x-prefixed 20-byte hex address")
	}
	body := addr[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return NewValidationError(field, "must be a 0x-prefixed 20-byte hex address")
	}
	if strings.ToLower(body) == body || strings.ToUpper(body) == body {
		return nil
	}
	if ChecksumAddress(addr) != addr {
		return NewValidationError(field, "EIP-55 checksum mismatch")
	}
	return nil
}

// NormalizeAddress lowercases an address so identities compare by value.
func NormalizeAddress(addr string) string {
	return strings.ToLower(addr)
}

// ChecksumAddress renders addr in EIP-55 mixed case.
func ChecksumAddress(addr string) string {
	lower := strings.ToLower(strings.TrimPrefix(addr, "0x"))
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := make([]byte, len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if c >= 'a' && c <= 'f' && nibble >= 8 {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return "0x" + string(out)
}
