// Package chain implements the tamper-evident transaction ledger: a
// canonical byte encoding of each entry's hashed fields, a per-account
// append-only hash chain, and a verifier that recomputes the chain from
// a known-good root.
package chain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
	"github.com/shopspring/decimal"
)

// EncodingV1 is the current canonical encoding version. Any change to the
// field list or layout requires a new version; old hashes stay verifiable
// under the version recorded on each transaction.
const EncodingV1 uint8 = 1

// HashSize is the raw size of a chain hash.
const HashSize = sha256.Size

// Genesis is the previous-hash value of the first entry in every chain.
var Genesis = strings.Repeat("0", HashSize*2)

// Encode serializes the hashed fields of a transaction into the canonical
// v1 byte layout:
//
//	[1]  encoding version
//	[32] previous hash (raw bytes, zeros for genesis)
//	[8]  account id, big-endian
//	[8]  sequence index, big-endian
//	[8]  amount in minor units, big-endian
//	[2]  category length, big-endian
//	[n]  category bytes
//	[8]  occurrence timestamp, unix seconds, big-endian
//
// Fixed widths plus the category length prefix make the encoding injective
// over its inputs. Mutable and display-only fields (description, payee,
// reference, payment method, status) are deliberately outside the hash;
// status in particular transitions pending->cleared without rehashing.
func Encode(version uint8, prevHash string, accountID, seq int64, amount decimal.Decimal, category core.Category, occurredAt time.Time) ([]byte, error) {
	if version != EncodingV1 {
		return nil, fmt.Errorf("unsupported encoding version %d", version)
	}

	prev, err := hex.DecodeString(prevHash)
	if err != nil || len(prev) != HashSize {
		return nil, fmt.Errorf("previous hash must be %d hex bytes, got %q", HashSize, prevHash)
	}

	minor, err := MinorUnits(amount)
	if err != nil {
		return nil, err
	}

	cat := []byte(category)
	if len(cat) > math.MaxUint16 {
		return nil, fmt.Errorf("category too long: %d bytes", len(cat))
	}

	buf := make([]byte, 0, 1+HashSize+8+8+8+2+len(cat)+8)
	buf = append(buf, version)
	buf = append(buf, prev...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(accountID))
	buf = binary.BigEndian.AppendUint64(buf, uint64(seq))
	buf = binary.BigEndian.AppendUint64(buf, uint64(minor))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(cat)))
	buf = append(buf, cat...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(occurredAt.Unix()))
	return buf, nil
}

// ComputeHash encodes the hashed fields and returns the hex SHA-256 digest.
func ComputeHash(version uint8, prevHash string, accountID, seq int64, amount decimal.Decimal, category core.Category, occurredAt time.Time) (string, error) {
	encoded, err := Encode(version, prevHash, accountID, seq, amount, category, occurredAt)
	if err != nil {
		return "", fmt.Errorf("encode transaction: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// MinorUnits converts an amount to integer minor units (cents). The amount
// must have an exact two-decimal representation.
func MinorUnits(amount decimal.Decimal) (int64, error) {
	shifted := amount.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s has no exact minor-units form", core.ErrInvalidAmount, amount)
	}
	return shifted.IntPart(), nil
}

// SupportedVersion reports whether this build can recompute hashes for the
// given encoding version. Unknown versions verify as format drift, not
// tampering.
func SupportedVersion(v uint8) bool { return v == EncodingV1 }
