package patient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string { return &s }

func TestSplitName(t *testing.T) {
	tests := []struct {
		in   string
		want NameParts
	}{
		{"", NameParts{}},
		{"   ", NameParts{}},
		{"Poorna", NameParts{First: "Poorna"}},
		{"Poorna Shetty", NameParts{First: "Poorna", Last: strptr("Shetty")}},
		{"  Poorna   Shetty  ", NameParts{First: "Poorna", Last: strptr("Shetty")}},
		{"Dr. John Smith", NameParts{First: "John", Last: strptr("Smith")}},
		{"dr John Smith", NameParts{First: "John", Last: strptr("Smith")}},
		{"Mrs. Asha Rao", NameParts{First: "Asha", Last: strptr("Rao")}},
		{"John Van Der", NameParts{First: "John", Last: strptr("Van Der")}},
		{"A B C D", NameParts{First: "A", Last: strptr("B C D")}},
		{"Dr. A B C D", NameParts{First: "Dr.", Last: strptr("A B C D")}},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitName(tc.in))
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "john smith", NormalizeName("  John   SMITH "))
	assert.Equal(t, "", NormalizeName("   "))
	assert.Equal(t, NormalizeName("Poorna Shetty"), NormalizeName("poorna  shetty"))
}

func TestPatientFullName(t *testing.T) {
	assert.Equal(t, "Poorna Shetty", (&Patient{FirstName: "Poorna", LastName: strptr("Shetty")}).FullName())
	assert.Equal(t, "Poorna", (&Patient{FirstName: "Poorna"}).FullName())
	assert.Equal(t, "Poorna", (&Patient{FirstName: "Poorna", LastName: strptr("")}).FullName())
}
