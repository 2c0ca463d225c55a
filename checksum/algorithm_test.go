package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlgorithm_String(t *testing.T) {
	tests := []struct {
		algo Algorithm
		want string
	}{
		{AlgoXORFold, "xor"},
		{AlgoSum8, "sum8"},
		{AlgoCRC16, "crc16"},
		{AlgoCRC16Rolling, "crc16-rolling"},
		{AlgoXORFoldMasked, "xor-masked"},
		{Algorithm(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.algo.String())
	}
}

func TestAlgorithm_HexDigits(t *testing.T) {
	assert.Equal(t, 2, AlgoXORFold.HexDigits())
	assert.Equal(t, 2, AlgoSum8.HexDigits())
	assert.Equal(t, 2, AlgoXORFoldMasked.HexDigits())
	assert.Equal(t, 4, AlgoCRC16.HexDigits())
	assert.Equal(t, 4, AlgoCRC16Rolling.HexDigits())
}

func TestAlgorithm_Compute(t *testing.T) {
	in := []byte("CT 0042")

	tests := []struct {
		name string
		algo Algorithm
		want uint16
	}{
		{"xor fold", AlgoXORFold, uint16(XORFold(in))},
		{"sum8", AlgoSum8, func() uint16 { v, _ := Sum8(in); return uint16(v) }()},
		{"crc16", AlgoCRC16, CRC16CCITT(in)},
		{"crc16 rolling", AlgoCRC16Rolling, CRC16RollingAll(in)},
		{"xor masked", AlgoXORFoldMasked, uint16(XORFoldMasked(in))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.algo.Compute(in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlgorithm_Compute_Sum8ErrorsPropagate(t *testing.T) {
	_, err := AlgoSum8.Compute(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAlgorithm_Compute_UnknownAlgorithm(t *testing.T) {
	_, err := Algorithm(200).Compute([]byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in   string
		want Algorithm
	}{
		{"xor", AlgoXORFold},
		{"XOR", AlgoXORFold},
		{" sum8 ", AlgoSum8},
		{"crc16", AlgoCRC16},
		{"CRC16-Rolling", AlgoCRC16Rolling},
		{"xor-masked", AlgoXORFoldMasked},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAlgorithm_Unknown(t *testing.T) {
	_, err := ParseAlgorithm("md5")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = ParseAlgorithm("")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

// Round-trip: every defined algorithm parses back from its name.
func TestParseAlgorithm_RoundTrip(t *testing.T) {
	algos := []Algorithm{AlgoXORFold, AlgoSum8, AlgoCRC16, AlgoCRC16Rolling, AlgoXORFoldMasked}
	for _, a := range algos {
		got, err := ParseAlgorithm(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
}
