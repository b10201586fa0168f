package pathcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSegmentRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"a b",
		"contacts",
		"日本語",
		"weird/slash",
		"UPPER case MIX",
	}

	for _, seg := range cases {
		encoded := EncodeSegment(seg)
		assert.True(t, len(encoded) > 0)

		decoded, err := DecodeSegment(encoded)
		require.NoError(t, err)
		assert.Equal(t, seg, decoded)
	}
}

func TestEncodeSegmentIsCaseInsensitiveSafe(t *testing.T) {
	encoded := EncodeSegment("Mittens")

	for _, r := range encoded {
		assert.False(t, r >= 'A' && r <= 'Z', "encoded name must not rely on case: %q", encoded)
	}
}

func TestDecodeSegmentRejectsForeignNames(t *testing.T) {
	_, err := DecodeSegment("not-encoded-by-us")
	require.Error(t, err)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestEncodeDecodePath(t *testing.T) {
	path := []string{"cats", "persian", "日本"}

	encoded := EncodePath(path)
	assert.Len(t, encoded, 3)

	decoded, err := DecodePath(encoded)
	require.NoError(t, err)
	assert.Equal(t, path, decoded)
}
