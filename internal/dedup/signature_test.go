package dedup

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catefolio/backend/internal/domain"
)

func tx(day int, desc string, amount float64) domain.Transaction {
	return domain.Transaction{
		Date:        civil.Date{Year: 2024, Month: 3, Day: day},
		Description: desc,
		Amount:      amount,
	}
}

func TestSignatureStable(t *testing.T) {
	a := tx(1, "coffee", -4.5)
	b := tx(1, "coffee", -4.5)
	assert.Equal(t, Signature(a), Signature(b))
	assert.Len(t, Signature(a), 64)
}

func TestSignatureSensitivity(t *testing.T) {
	base := tx(1, "coffee", -4.5)

	differentDay := tx(2, "coffee", -4.5)
	differentDesc := tx(1, "tea", -4.5)
	differentAmount := tx(1, "coffee", -4.51)

	assert.NotEqual(t, Signature(base), Signature(differentDay))
	assert.NotEqual(t, Signature(base), Signature(differentDesc))
	assert.NotEqual(t, Signature(base), Signature(differentAmount))
}

func TestSignatureIgnoresDerivedFields(t *testing.T) {
	a := tx(1, "coffee", -4.5)
	b := tx(1, "coffee", -4.5)
	b.Category = "Dining"
	b.Entity = "Me"
	b.Raw.Memo = "latte"

	assert.Equal(t, Signature(a), Signature(b))
}

func TestContentSignatureOrderIndependent(t *testing.T) {
	set := []domain.Transaction{tx(1, "a", -1), tx(2, "b", -2), tx(3, "c", 3)}
	reversed := []domain.Transaction{tx(3, "c", 3), tx(2, "b", -2), tx(1, "a", -1)}

	assert.Equal(t, ContentSignature(set), ContentSignature(reversed))
}

func TestContentSignatureDiffers(t *testing.T) {
	set := []domain.Transaction{tx(1, "a", -1)}
	other := []domain.Transaction{tx(1, "a", -1), tx(2, "b", -2)}

	assert.NotEqual(t, ContentSignature(set), ContentSignature(other))
}

func TestContentSignatureDoesNotReorderInput(t *testing.T) {
	set := []domain.Transaction{tx(3, "c", 3), tx(1, "a", -1)}
	_ = ContentSignature(set)

	assert.Equal(t, "c", set[0].Description)
}

func TestFilter(t *testing.T) {
	seen := NewSignatureSet([]string{Signature(tx(1, "old", -1))})

	kept, skipped := Filter([]domain.Transaction{
		tx(1, "old", -1),
		tx(2, "new", -2),
		tx(2, "new", -2), // repeat within the upload
		tx(3, "fresh", -3),
	}, seen)

	assert.Equal(t, 2, skipped)
	require.Len(t, kept, 2)
	assert.Equal(t, "new", kept[0].Description)
	assert.Equal(t, "fresh", kept[1].Description)
}

func TestFilterEmptySeen(t *testing.T) {
	kept, skipped := Filter([]domain.Transaction{tx(1, "a", -1)}, SignatureSet{})
	assert.Zero(t, skipped)
	assert.Len(t, kept, 1)
}
