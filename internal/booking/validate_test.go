package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "9876543210", want: "9876543210"},
		{in: "98765 43210", want: "9876543210"},
		{in: "98765-43210", want: "9876543210"},
		{in: "+91 98765 43210", want: "9876543210"},
		{in: "919876543210", want: "9876543210"},
		{in: "09876543210", want: "9876543210"},
		{in: "(987) 654-3210", want: "9876543210"},
		{in: "5876543210", wantErr: true}, // leading digit outside 6-9
		{in: "98765", wantErr: true},
		{in: "98765432101", wantErr: true}, // 11 digits, no trunk zero
		{in: "", wantErr: true},
		{in: "not a phone", wantErr: true},
	}

	for _, tc := range tests {
		got, vErr := NormalizePhone(tc.in)
		if tc.wantErr {
			require.NotNil(t, vErr, "input %q", tc.in)
			assert.Equal(t, "phone", vErr.Field)
			continue
		}
		require.Nil(t, vErr, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestValidatePatientInput(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		in, vErr := validatePatientInput("  Poorna   Shetty ", "+91 98765 43210", " poorna@example.com ")
		require.Nil(t, vErr)
		assert.Equal(t, "Poorna Shetty", in.name)
		assert.Equal(t, "9876543210", in.phone)
		assert.Equal(t, "poorna@example.com", in.email)
	})

	t.Run("email optional", func(t *testing.T) {
		in, vErr := validatePatientInput("Poorna Shetty", "9876543210", "")
		require.Nil(t, vErr)
		assert.Empty(t, in.email)
	})

	t.Run("missing name", func(t *testing.T) {
		_, vErr := validatePatientInput("   ", "9876543210", "")
		require.NotNil(t, vErr)
		assert.Equal(t, "name", vErr.Field)
	})

	t.Run("bad phone", func(t *testing.T) {
		_, vErr := validatePatientInput("Poorna Shetty", "12345", "")
		require.NotNil(t, vErr)
		assert.Equal(t, "phone", vErr.Field)
	})

	t.Run("bad email", func(t *testing.T) {
		_, vErr := validatePatientInput("Poorna Shetty", "9876543210", "not-an-email")
		require.NotNil(t, vErr)
		assert.Equal(t, "email", vErr.Field)
	})
}
