package entropy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arlobytes/pco/internal/bitio"
)

func TestHuffmanTable_RoundTrip(t *testing.T) {
	weights := []uint32{50, 1, 20, 20, 5, 4}
	table, err := NewHuffmanTable(weights)
	require.NoError(t, err)

	for sym, l := range table.Lengths() {
		require.Greaterf(t, l, uint8(0), "symbol %d must receive a nonzero-length code", sym)
	}

	symbols := make([]int, 0, 600)
	for sym := range weights {
		for i := 0; i < int(weights[sym]); i++ {
			symbols = append(symbols, sym)
		}
	}

	w := bitio.NewWriter()
	require.NoError(t, EncodeHuffmanSymbols(w, table, symbols))
	body := w.Finish()
	w.Release()

	r := bitio.NewSliceReader(body)
	got, err := DecodeHuffmanSymbols(r, table, len(symbols))
	require.NoError(t, err)
	require.Equal(t, symbols, got)
}

func TestHuffmanTable_SingleSymbol(t *testing.T) {
	table, err := NewHuffmanTable([]uint32{7})
	require.NoError(t, err)

	symbols := []int{0, 0, 0, 0, 0}
	w := bitio.NewWriter()
	require.NoError(t, EncodeHuffmanSymbols(w, table, symbols))
	body := w.Finish()
	w.Release()

	r := bitio.NewSliceReader(body)
	got, err := DecodeHuffmanSymbols(r, table, len(symbols))
	require.NoError(t, err)
	require.Equal(t, symbols, got)
}

func TestHuffmanTable_TwoSymbolsPreferShorterCodeForHeavierWeight(t *testing.T) {
	table, err := NewHuffmanTable([]uint32{100, 1})
	require.NoError(t, err)

	require.LessOrEqual(t, table.Lengths()[0], table.Lengths()[1])
}

func TestNewHuffmanTable_RejectsEmpty(t *testing.T) {
	_, err := NewHuffmanTable(nil)
	require.Error(t, err)
}
