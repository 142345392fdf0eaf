package models

import (
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSlice_Value(t *testing.T) {
	tests := []struct {
		name    string
		s       StringSlice
		wantVal driver.Value
	}{
		{name: "nil slice", s: nil, wantVal: "[]"},
		{name: "empty slice", s: StringSlice{}, wantVal: "[]"},
		{name: "tags", s: StringSlice{"pipes", "faucet"}, wantVal: `["pipes","faucet"]`},
		{name: "element with comma", s: StringSlice{"a, b"}, wantVal: `["a, b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.s.Value()
			require.NoError(t, err)
			assert.Equal(t, tt.wantVal, got)
		})
	}
}

func TestStringSlice_Scan(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		want    StringSlice
		wantErr bool
	}{
		{name: "nil", input: nil, want: StringSlice{}},
		{name: "empty string", input: "", want: StringSlice{}},
		{name: "json null", input: []byte("null"), want: StringSlice{}},
		{name: "string json", input: `["pipes","faucet"]`, want: StringSlice{"pipes", "faucet"}},
		{name: "bytes json", input: []byte(`["a"]`), want: StringSlice{"a"}},
		{name: "unsupported", input: 42, wantErr: true},
		{name: "malformed", input: "[", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s StringSlice
			err := s.Scan(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}
