package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectNumbers(t *testing.T, r BlockRange) []uint64 {
	t.Helper()
	numbers := make([]uint64, 0)
	require.NoError(t, r.Each(func(n uint64) error {
		numbers = append(numbers, n)
		return nil
	}))
	return numbers
}

func TestBlockRange_Each(t *testing.T) {
	assert.Equal(t, []uint64{100}, collectNumbers(t, NewBlockRange(100, 100)))
	assert.Equal(t, []uint64{5, 6, 7}, collectNumbers(t, NewBlockRange(5, 7)))
	assert.Equal(t, uint64(3), NewBlockRange(5, 7).Len())
}

func TestBlockRange_Inverted(t *testing.T) {
	r := NewBlockRange(10, 9)
	assert.True(t, r.IsEmpty())
	assert.Equal(t, uint64(0), r.Len())
	assert.Empty(t, collectNumbers(t, r))
}

func TestBlockRange_EndsAtMaxUint64(t *testing.T) {
	top := ^uint64(0)
	assert.Equal(t, []uint64{top - 1, top}, collectNumbers(t, NewBlockRange(top-1, top)))
	assert.Equal(t, top, NewBlockRange(0, top).Len())
}

func TestBlockRange_EachStopsAtFirstError(t *testing.T) {
	stop := errors.New("stop")
	var seen []uint64

	err := NewBlockRange(0, ^uint64(0)).Each(func(n uint64) error {
		seen = append(seen, n)
		if n == 2 {
			return stop
		}
		return nil
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []uint64{0, 1, 2}, seen)
}

func TestTransactionHashes_FullObjects(t *testing.T) {
	block := RawBlock(`{"number":"0x64","transactions":[{"hash":"0xT1","nonce":"0x0"},{"hash":"0xT2"}]}`)

	hashes, err := TransactionHashes(block)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xT1", "0xT2"}, hashes)
}

func TestTransactionHashes_HashOnly(t *testing.T) {
	hashes, err := TransactionHashes(RawBlock(`{"transactions":["0xa","0xb"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xb"}, hashes)
}

func TestTransactionHashes_EmptyBlock(t *testing.T) {
	hashes, err := TransactionHashes(RawBlock(`{"transactions":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, hashes)
	assert.Empty(t, hashes)
}

func TestTransactionHashes_Malformed(t *testing.T) {
	for _, block := range []string{`{}`, `null`, `[]`, `{"transactions":null}`, `{"transactions":{}}`} {
		_, err := TransactionHashes(RawBlock(block))
		assert.ErrorIs(t, err, ErrMissingTransactions, "block %s", block)
	}

	_, err := TransactionHashes(RawBlock(`{"transactions":[{"nonce":"0x1"}]}`))
	assert.Error(t, err)

	_, err = TransactionHashes(RawBlock(`{"transactions":[1]}`))
	assert.Error(t, err)
}

func TestBlockNumberOf(t *testing.T) {
	number, err := BlockNumberOf(RawBlock(`{"number":"0x748c28"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(7638056), number)

	_, err = BlockNumberOf(RawBlock(`{"hash":"0x1"}`))
	assert.Error(t, err)

	_, err = BlockNumberOf(RawBlock(`{"number":"100"}`))
	assert.Error(t, err)
}
