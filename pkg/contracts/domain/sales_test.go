package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSalesRecordIsValid(t *testing.T) {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record SalesRecord
		want   bool
	}{
		{
			name: "consistent record",
			record: SalesRecord{
				Date:      date,
				Year:      2025,
				Product:   "SKU-100",
				UnitPrice: decimal.NewFromFloat(9.99),
				Quantity:  3,
				Value:     decimal.NewFromFloat(29.97),
			},
			want: true,
		},
		{
			name: "value within rounding tolerance",
			record: SalesRecord{
				Date:      date,
				Product:   "SKU-100",
				UnitPrice: decimal.NewFromFloat(3.33),
				Quantity:  3,
				Value:     decimal.NewFromFloat(10.00),
			},
			want: true,
		},
		{
			name: "value drifts beyond tolerance",
			record: SalesRecord{
				Date:      date,
				Product:   "SKU-100",
				UnitPrice: decimal.NewFromFloat(5.00),
				Quantity:  2,
				Value:     decimal.NewFromFloat(11.00),
			},
			want: false,
		},
		{
			name: "zero date",
			record: SalesRecord{
				Product:  "SKU-100",
				Quantity: 1,
			},
			want: false,
		},
		{
			name: "missing product",
			record: SalesRecord{
				Date:     date,
				Quantity: 1,
			},
			want: false,
		},
		{
			name: "negative quantity",
			record: SalesRecord{
				Date:     date,
				Product:  "SKU-100",
				Quantity: -1,
			},
			want: false,
		},
		{
			name: "negative price",
			record: SalesRecord{
				Date:      date,
				Product:   "SKU-100",
				UnitPrice: decimal.NewFromFloat(-1.50),
				Quantity:  1,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.IsValid())
		})
	}
}

func TestSalesRecordLineTotal(t *testing.T) {
	t.Run("explicit value wins", func(t *testing.T) {
		r := SalesRecord{
			UnitPrice: decimal.NewFromFloat(9.99),
			Quantity:  2,
			Value:     decimal.NewFromFloat(19.98),
		}
		assert.True(t, r.LineTotal().Equal(decimal.NewFromFloat(19.98)))
	})

	t.Run("derived from unit price", func(t *testing.T) {
		r := SalesRecord{
			UnitPrice: decimal.NewFromFloat(4.25),
			Quantity:  4,
		}
		assert.True(t, r.LineTotal().Equal(decimal.NewFromFloat(17.00)))
	})
}

func TestDatasetYears(t *testing.T) {
	d := Dataset{
		Records: []SalesRecord{
			{Year: 2025},
			{Year: 2023},
			{Year: 2024},
			{Year: 2023},
		},
	}
	assert.Equal(t, []int{2023, 2024, 2025}, d.Years())

	empty := Dataset{}
	assert.Empty(t, empty.Years())
}
