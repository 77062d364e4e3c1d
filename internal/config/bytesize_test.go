package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		input   string
		want    ByteSize
		wantErr bool
	}{
		{input: "0", want: 0},
		{input: "1048576", want: 1048576},
		{input: "10MiB", want: 10 * 1024 * 1024},
		{input: "10 MiB", want: 10 * 1024 * 1024},
		{input: "512kB", want: 512000},
		{input: "1.5GiB", want: 1536 * 1024 * 1024},
		{input: "lots", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseByteSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByteSize_UnmarshalText(t *testing.T) {
	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("2MiB")))
	assert.Equal(t, ByteSize(2*1024*1024), b)

	assert.Error(t, b.UnmarshalText([]byte("two megs")))
	assert.Equal(t, ByteSize(2*1024*1024), b, "failed parse must not clobber the value")
}

func TestByteSize_String(t *testing.T) {
	assert.Equal(t, "0", ByteSize(0).String())
	assert.Equal(t, "10 MiB", ByteSize(10*1024*1024).String())

	text, err := ByteSize(1024).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.0 KiB", string(text))
}

func TestByteSize_Int64(t *testing.T) {
	assert.Equal(t, int64(4096), ByteSize(4096).Int64())
	assert.Equal(t, int64(1<<63-1), ByteSize(1<<64-1).Int64())
}
