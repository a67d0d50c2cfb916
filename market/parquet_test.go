package market

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquet_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "daily", "AAPL.parquet")

	bars := []Bar{
		{Symbol: "AAPL", Time: t0.Add(time.Hour), Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 20},
		{Symbol: "AAPL", Time: t0, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
	}
	require.NoError(t, WriteParquet(path, bars))

	got, err := LoadFile(path, "AAPL", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, t0, got[0].Time)
	assert.Equal(t, 1.5, got[0].Close)
	assert.Equal(t, 2.5, got[1].Close)
	assert.Equal(t, "AAPL", got[1].Symbol)
}

func TestLoadFile_UnknownExt(t *testing.T) {
	t.Parallel()

	_, err := LoadFile("bars.json", "X", time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestFindFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := FindFile(dir, "GOOGL")
	assert.Error(t, err)

	csvPath := filepath.Join(dir, "GOOGL.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("2024-01-02,1,1,1,1\n"), 0o644))
	p, err := FindFile(dir, "GOOGL")
	require.NoError(t, err)
	assert.Equal(t, csvPath, p)

	pqPath := filepath.Join(dir, "GOOGL.parquet")
	require.NoError(t, WriteParquet(pqPath, []Bar{{Symbol: "GOOGL", Time: t0, Open: 1, High: 1, Low: 1, Close: 1}}))
	p, err = FindFile(dir, "GOOGL")
	require.NoError(t, err)
	assert.Equal(t, pqPath, p)
}
