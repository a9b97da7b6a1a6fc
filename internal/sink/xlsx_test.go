package sink

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"flatfeed/internal/domain"
)

func TestXLSX_WritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	x, err := NewXLSX(&buf, twoColumnSchema(t), "#ERR")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, x.Write(ctx, flatRecord("r1", "widget", float64(3))))
	ferr := &domain.FieldError{Kind: domain.FieldErrorTypeMismatch}
	require.NoError(t, x.Write(ctx, flatRecord("r2", "gadget", ferr)))
	require.NoError(t, x.Close())

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"name", "qty"}, rows[0])
	assert.Equal(t, []string{"widget", "3"}, rows[1])
	assert.Equal(t, []string{"gadget", "#ERR"}, rows[2])
}

func TestXLSX_CloseOnce(t *testing.T) {
	var buf bytes.Buffer
	x, err := NewXLSX(&buf, twoColumnSchema(t), "")
	require.NoError(t, err)

	require.NoError(t, x.Close())
	assert.ErrorIs(t, x.Close(), domain.ErrSinkClosed)
	assert.ErrorIs(t, x.Write(context.Background(), flatRecord("r1", "a", float64(1))), domain.ErrSinkClosed)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "orders_2025", SanitizeFilename("orders 2025"))
	assert.Equal(t, "a_b_c", SanitizeFilename("a//b..c"))
	assert.Equal(t, "report", SanitizeFilename("__report__"))
}

func TestBuildFilename(t *testing.T) {
	got := BuildFilename("orders/eu", "csv")
	assert.Regexp(t, `^orders_eu_\d{4}-\d{2}-\d{2}\.csv$`, got)
}
