package config

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ByteSize is a byte count that accepts human-readable values such as
// "10MiB", "512 kB" or a bare number of bytes.
type ByteSize uint64

// ParseByteSize parses a human-readable byte size string.
func ParseByteSize(s string) (ByteSize, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("parsing byte size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *ByteSize) UnmarshalText(text []byte) error {
	parsed, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// String formats the size with IEC units, e.g. "10 MiB". Zero is "0".
func (b ByteSize) String() string {
	if b == 0 {
		return "0"
	}
	return humanize.IBytes(uint64(b))
}

// Int64 returns the size as a signed byte count, saturating on overflow.
func (b ByteSize) Int64() int64 {
	const maxInt64 = 1<<63 - 1
	if uint64(b) > maxInt64 {
		return maxInt64
	}
	return int64(b)
}
