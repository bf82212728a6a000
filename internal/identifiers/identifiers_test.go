package identifiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKinds(t *testing.T) {
	cases := []struct {
		name  string
		code  string
		kind  Kind
		valid bool
	}{
		{"valid ASIN", "B0BQBXBW88", KindASIN, true},
		{"ASIN lowercase input", "b0bqbxbw88", KindASIN, true},
		{"ASIN all letters after B", "BABCDEFGHI", KindASIN, false},
		{"ASIN all digits after B", "B123456789", KindASIN, false},
		{"not an ASIN (wrong prefix)", "A0BQBXBW88", KindUnknown, false},
		{"valid EAN-13", "3600523951369", KindEAN, true},
		{"EAN-13 bad check digit", "3607345064672", KindEAN, false},
		{"valid UPC-A", "012345678905", KindUPC, true},
		{"valid EAN-8", "96385074", KindEAN, true},
		{"valid GTIN-14", "03600523951369", KindGTIN, true},
		{"odd length digits", "12345", KindUnknown, false},
		{"empty", "", KindUnknown, false},
		{"garbage", "not-a-code!", KindUnknown, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := Classify(tc.code)
			assert.Equal(t, tc.kind, id.Kind)
			assert.Equal(t, tc.valid, id.Valid)
		})
	}
}

func TestClassifyNormalizesSeparators(t *testing.T) {
	id := Classify("360-0523 951369")
	assert.Equal(t, KindEAN, id.Kind)
	assert.True(t, id.Valid)
	assert.Equal(t, "3600523951369", id.Normalized)
}

func TestClassifyNeverErrors(t *testing.T) {
	// Whatever the input, callers always get a renderable value.
	for _, code := range []string{"", "   ", "\t", "€€€", "B", "99999999999999999999"} {
		id := Classify(code)
		assert.Equal(t, KindUnknown, id.Kind)
		assert.False(t, id.Valid)
		assert.False(t, id.CanLookup())
	}
}

// Flipping the final digit of a valid barcode must always flip validity.
func TestCheckDigitSensitivity(t *testing.T) {
	valid := []string{"3600523951369", "012345678905", "96385074", "03600523951369"}

	for _, code := range valid {
		assert.True(t, ValidateCheckDigit(code), code)

		last := code[len(code)-1] - '0'
		flipped := code[:len(code)-1] + string('0'+(last+1)%10)
		assert.False(t, ValidateCheckDigit(flipped), flipped)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "360 0523 95136 9", Format("3600523951369", KindEAN))
	assert.Equal(t, "0 12345 67890 5", Format("012345678905", KindUPC))
	assert.Equal(t, "9638 507 4", Format("96385074", KindEAN))
	assert.Equal(t, "03 600523 95136 9", Format("03600523951369", KindGTIN))
	assert.Equal(t, "B0BQBXBW88", Format("B0BQBXBW88", KindASIN))
}
