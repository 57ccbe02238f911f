// Package dedup computes content signatures for transactions and filters
// duplicates against a tenant's history.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/catefolio/backend/internal/domain"
)

// Signature returns the stable content hash of one transaction. Two
// transactions with equal (date, description, amount) always hash the same,
// regardless of category, entity or any derived field.
func Signature(t domain.Transaction) string {
	key := t.Date.String() + "|" + t.Description + "|" + formatAmount(t.Amount)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ContentSignature fingerprints a whole upload: the raw (pre-dedup)
// transaction set is sorted by (date, description, amount) so the result is
// independent of row order in the source files, then the individual
// signatures are concatenated and hashed.
func ContentSignature(transactions []domain.Transaction) string {
	sorted := make([]domain.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.Description != b.Description {
			return a.Description < b.Description
		}
		return a.Amount < b.Amount
	})

	parts := make([]string, 0, len(sorted))
	for _, t := range sorted {
		parts = append(parts, Signature(t))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// SignatureSet tracks which transaction signatures have been seen.
type SignatureSet map[string]struct{}

// NewSignatureSet builds a set from existing signatures, typically the
// tenant's full history.
func NewSignatureSet(signatures []string) SignatureSet {
	set := make(SignatureSet, len(signatures))
	for _, s := range signatures {
		set[s] = struct{}{}
	}
	return set
}

// Filter returns the transactions whose signatures are not yet in the set,
// along with the number dropped. Admitted signatures are added to the set
// incrementally, so duplicates inside the same upload are caught too.
func Filter(transactions []domain.Transaction, seen SignatureSet) ([]domain.Transaction, int) {
	kept := make([]domain.Transaction, 0, len(transactions))
	skipped := 0
	for _, t := range transactions {
		sig := Signature(t)
		if _, dup := seen[sig]; dup {
			skipped++
			continue
		}
		seen[sig] = struct{}{}
		kept = append(kept, t)
	}
	return kept, skipped
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
