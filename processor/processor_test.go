package processor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpack(t *testing.T) {
	raw := bytes.Repeat([]byte("Row ID,Order ID,Sales\n1,CA-2017-152156,261.96\n"), 200)

	p := Pack(raw)
	assert.Equal(t, len(raw), p.Size)
	assert.Less(t, len(p.Data), len(raw))

	got, err := Unpack(p.Data, p.Checksum)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestUnpack_ChecksumMismatch(t *testing.T) {
	p := Pack([]byte("original"))
	_, err := Unpack(p.Data, Checksum([]byte("other")))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestDecompressData_Corrupt(t *testing.T) {
	_, err := DecompressData([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
