package chain

import (
	"github.com/Shadow-Howl-Sec/FinPilot/internal/core"
)

// Integrity statuses surfaced in IntegrityReport.
const (
	StatusStable      IntegrityStatus = "Stable"
	StatusCompromised IntegrityStatus = "Compromised"
)

// Diverging-field labels on a tampered record. "hash" means the recomputed
// entry hash differs from the stored one, "previous_hash" means the stored
// link does not match the preceding entry, and "chain" marks entries that
// are unverifiable only because an earlier entry already broke the chain.
const (
	FieldHash     = "hash"
	FieldPrevHash = "previous_hash"
	FieldChain    = "chain"
)

type (
	IntegrityStatus string

	// TamperedRecord describes one entry that failed verification.
	TamperedRecord struct {
		ID              int64    `json:"id"`
		Seq             int64    `json:"seq"`
		ExpectedHash    string   `json:"expected_hash"`
		StoredHash      string   `json:"stored_hash"`
		DivergingFields []string `json:"diverging_fields"`
	}

	// FormatDriftRecord flags an entry hashed under an encoding version
	// this build cannot recompute. Drift is reportable but is not
	// evidence of tampering.
	FormatDriftRecord struct {
		ID              int64 `json:"id"`
		Seq             int64 `json:"seq"`
		EncodingVersion uint8 `json:"encoding_version"`
	}

	// IntegrityReport is the result of a full chain verification. It is
	// plain data: verification always completes and reports, it never
	// aborts on a finding.
	IntegrityReport struct {
		Status          IntegrityStatus     `json:"status"`
		VerifiedCount   int                 `json:"verified_count"`
		TotalCount      int                 `json:"total_count"`
		TamperedRecords []TamperedRecord    `json:"tampered_records,omitempty"`
		FormatDrift     []FormatDriftRecord `json:"format_drift,omitempty"`
	}
)

// Compromised reports whether any entry failed verification.
func (r IntegrityReport) Compromised() bool { return r.Status == StatusCompromised }

// Verify walks entries in sequence order, recomputing every hash from the
// currently stored fields and checking each previous-hash link against the
// preceding entry, starting from the genesis constant. Once one entry
// diverges, every later entry is reported as tampered too: its link to a
// known-good root is gone even if its own hash recomputes cleanly.
//
// Verify is pure and read-only; an empty chain is trivially Stable.
func Verify(entries []core.Transaction) IntegrityReport {
	report := IntegrityReport{
		Status:     StatusStable,
		TotalCount: len(entries),
	}

	expectedPrev := Genesis
	chainTrusted := true

	for _, e := range entries {
		if !SupportedVersion(e.EncodingVersion) {
			report.FormatDrift = append(report.FormatDrift, FormatDriftRecord{
				ID:              e.ID,
				Seq:             e.Seq,
				EncodingVersion: e.EncodingVersion,
			})

			// Drift exempts only the entry hash, which cannot be
			// recomputed under an unknown version. The link to the
			// preceding entry is version-independent and is still
			// checked.
			var diverging []string
			if e.PrevHash != expectedPrev {
				diverging = append(diverging, FieldPrevHash)
			} else if !chainTrusted {
				diverging = append(diverging, FieldChain)
			}
			if len(diverging) > 0 {
				report.TamperedRecords = append(report.TamperedRecords, TamperedRecord{
					ID:              e.ID,
					Seq:             e.Seq,
					StoredHash:      e.Hash,
					DivergingFields: diverging,
				})
				chainTrusted = false
			}

			// With an intact link the stored hash is taken on trust
			// as the next entry's expected predecessor.
			expectedPrev = e.Hash
			continue
		}

		var diverging []string

		recomputed, err := ComputeHash(e.EncodingVersion, e.PrevHash, e.AccountID, e.Seq, e.Amount, e.Category, e.OccurredAt)
		if err != nil || recomputed != e.Hash {
			diverging = append(diverging, FieldHash)
		}
		if e.PrevHash != expectedPrev {
			diverging = append(diverging, FieldPrevHash)
		}
		if len(diverging) == 0 && !chainTrusted {
			diverging = append(diverging, FieldChain)
		}

		if len(diverging) > 0 {
			report.TamperedRecords = append(report.TamperedRecords, TamperedRecord{
				ID:              e.ID,
				Seq:             e.Seq,
				ExpectedHash:    recomputed,
				StoredHash:      e.Hash,
				DivergingFields: diverging,
			})
			chainTrusted = false
		} else {
			report.VerifiedCount++
		}

		expectedPrev = e.Hash
	}

	if len(report.TamperedRecords) > 0 {
		report.Status = StatusCompromised
	}
	return report
}
