package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/pkg/contracts/domain"
)

func target(day string, amount float64) domain.TargetEntry {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return domain.TargetEntry{Date: d, Target: decimal.NewFromFloat(amount)}
}

func TestTargetsVariance(t *testing.T) {
	records := []domain.SalesRecord{
		rec("2024-01-10", "A", "", 60, 1),
		rec("2024-01-20", "B", "", 60, 1),
	}
	targets := []domain.TargetEntry{target("2024-01-01", 100)}

	result := Targets(records, targets)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "2024-01", row.Month)
	assert.Equal(t, "120", row.Actual.String())
	assert.Equal(t, "100", row.Target.String())
	assert.Equal(t, "20", row.Variance.String())
	assert.InDelta(t, 120.0, row.Attainment, 1e-9)
}

func TestTargetsDailyRollup(t *testing.T) {
	// Daily target rows accumulate into their month.
	targets := []domain.TargetEntry{
		target("2024-03-01", 50),
		target("2024-03-02", 50),
		target("2024-03-03", 25),
	}

	result := Targets(nil, targets)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "2024-03", result.Rows[0].Month)
	assert.Equal(t, "125", result.Rows[0].Target.String())
	assert.True(t, result.Rows[0].Actual.IsZero())
}

func TestTargetsZeroTargetReadsFlat(t *testing.T) {
	records := []domain.SalesRecord{rec("2024-02-10", "A", "", 75, 1)}
	targets := []domain.TargetEntry{target("2024-02-01", 0)}

	result := Targets(records, targets)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.True(t, row.Variance.IsZero())
	assert.Zero(t, row.Attainment)
	assert.Equal(t, "75", row.Actual.String())
}

func TestTargetsMissReportsNegativeVariance(t *testing.T) {
	records := []domain.SalesRecord{rec("2024-04-10", "A", "", 40, 1)}
	targets := []domain.TargetEntry{target("2024-04-01", 100)}

	result := Targets(records, targets)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "-60", result.Rows[0].Variance.String())
	assert.InDelta(t, 40.0, result.Rows[0].Attainment, 1e-9)
}

func TestTargetsUnionOfMonths(t *testing.T) {
	records := []domain.SalesRecord{rec("2024-01-10", "A", "", 10, 1)}
	targets := []domain.TargetEntry{target("2024-02-01", 100)}

	result := Targets(records, targets)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "2024-01", result.Rows[0].Month)
	assert.Equal(t, "2024-02", result.Rows[1].Month)

	// January has sales but no target; February the reverse.
	assert.True(t, result.Rows[0].Target.IsZero())
	assert.Zero(t, result.Rows[0].Attainment)
	assert.True(t, result.Rows[1].Actual.IsZero())
	assert.Equal(t, "-100", result.Rows[1].Variance.String())
	assert.Zero(t, result.Rows[1].Attainment)
}

func TestTargetsEmpty(t *testing.T) {
	result := Targets(nil, nil)
	assert.Empty(t, result.Rows)
}
