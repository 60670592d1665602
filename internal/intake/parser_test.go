package intake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chaseHeader = "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"

const chaseStatement = chaseHeader +
	"DEBIT,01/03/2025,GITHUB *PRO SUBSCRIPTION,-4.00,ACH_DEBIT,9996.00,\n" +
	"DEBIT,01/05/2025,OFFICE SUPPLY DEPOT,-82.15,DEBIT_CARD,9913.85,\n" +
	"CREDIT,01/10/2025,ACME CONSULTING INVOICE 1042,3500.00,ACH_CREDIT,13413.85,\n" +
	"DEBIT,01/22/2025,MONTHLY RENT,-1200.00,ACH_DEBIT,12213.85,\n"

func TestChaseParser_Parse(t *testing.T) {
	p := &ChaseParser{}
	txns, err := p.Parse(strings.NewReader(chaseStatement), "chase-checking")
	require.NoError(t, err)
	require.Len(t, txns, 4)

	assert.Equal(t, "GITHUB *PRO SUBSCRIPTION", txns[0].Description)
	assert.Equal(t, "-4.00", txns[0].Amount.StringFixed(2))
	assert.Equal(t, "ACH_DEBIT", txns[0].Category)
	assert.Equal(t, "chase-checking", txns[0].Source)
	assert.Equal(t, 2025, txns[0].Date.Year())
	assert.Equal(t, 3, txns[0].Date.Day())

	assert.True(t, txns[2].Amount.IsPositive())
	assert.Equal(t, "3500.00", txns[2].Amount.StringFixed(2))
	assert.Equal(t, 22, txns[3].Date.Day())
}

func TestChaseParser_EmptyFile(t *testing.T) {
	p := &ChaseParser{}
	txns, err := p.Parse(strings.NewReader(chaseHeader), "chase")
	require.NoError(t, err)
	assert.Nil(t, txns)
}

func TestChaseParser_BadRows(t *testing.T) {
	p := &ChaseParser{}
	_, err := p.Parse(strings.NewReader(chaseHeader+"DEBIT,NOTADATE,desc,-4.00,ACH_DEBIT,100.00,\n"), "chase")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing date")

	_, err = p.Parse(strings.NewReader(chaseHeader+"DEBIT,01/03/2025,desc,NOTANUMBER,ACH_DEBIT,100.00,\n"), "chase")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestGenericParser_Parse(t *testing.T) {
	data := "Transaction Date, Amount, Memo\n" +
		"2024-03-01,-45.10,Utility bill\n" +
		",12.00,no date\n" +
		"03/15/2024,900,Sale to customer\n" +
		"31/03/2024,-5,bank fee\n"

	p := &GenericParser{}
	txns, err := p.Parse(strings.NewReader(data), "bank")
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, "Utility bill", txns[0].Description)
	assert.Equal(t, "-45.10", txns[0].Amount.StringFixed(2))
	assert.Equal(t, 3, int(txns[1].Date.Month()))
	assert.Equal(t, 15, txns[1].Date.Day())
	assert.Equal(t, 31, txns[2].Date.Day())
	assert.Equal(t, "bank", txns[2].Source)
}

func TestGenericParser_Errors(t *testing.T) {
	p := &GenericParser{}
	_, err := p.Parse(strings.NewReader("when,value\n2024-01-01,1\n"), "bank")
	assert.Error(t, err)

	_, err = p.Parse(strings.NewReader("date,amount\nyesterday,1\n"), "bank")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")

	txns, err := p.Parse(strings.NewReader(""), "bank")
	require.NoError(t, err)
	assert.Nil(t, txns)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("chase"))
	r.Register(&ChaseParser{})
	assert.NotNil(t, r.Get("CHASE"))
	assert.Panics(t, func() { r.Register(&ChaseParser{}) })

	d := DefaultRegistry()
	assert.NotNil(t, d.Get("chase"))
	assert.NotNil(t, d.Get("csv"))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, processedDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, processedDir, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "bank.csv", files[0].Name)
	assert.Equal(t, int64(4), files[0].Size)

	files, err = Scan(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "bank.csv"))

	_, err := os.Stat(filepath.Join(dir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, processedDir, "bank.csv"))
	assert.NoError(t, err)
}
