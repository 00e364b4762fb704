package thankyou

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortableDate_RoundTrip(t *testing.T) {
	moments := []time.Time{
		time.Date(2026, 8, 29, 14, 30, 55, 0, time.UTC),
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC),
	}

	for _, moment := range moments {
		encoded := ToSortableDate(moment)
		decoded, err := FromSortableDate(encoded)

		require.NoError(t, err)
		assert.True(t, moment.Equal(decoded), "expected %v, got %v", moment, decoded)
	}
}

func TestToSortableDate_Encoding(t *testing.T) {
	moment := time.Date(2026, 8, 29, 14, 30, 55, 0, time.UTC)
	assert.Equal(t, int64(20260829143055), ToSortableDate(moment))
}

func TestToSortableDate_ConvertsToUTC(t *testing.T) {
	zone := time.FixedZone("UTC+9", 9*60*60)
	local := time.Date(2026, 8, 29, 1, 0, 0, 0, zone)

	// 01:00 at UTC+9 is 16:00 the previous day in UTC.
	assert.Equal(t, int64(20260828160000), ToSortableDate(local))
}

func TestFromSortableDate_RejectsImpossibleTimestamps(t *testing.T) {
	badValues := []int64{
		-1,
		20261301000000, // month 13
		20260230000000, // February 30th
		20260829250000, // hour 25
		20260829146100, // minute 61
	}

	for _, value := range badValues {
		_, err := FromSortableDate(value)
		assert.Error(t, err, "value %d should not decode", value)
	}
}

func TestOwnerClass_Supported(t *testing.T) {
	assert.True(t, OwnerClassIndividual.Supported())
	assert.True(t, OwnerClassGroup.Supported())
	assert.False(t, OwnerClass(2).Supported())
	assert.False(t, OwnerClass(0).Supported())
}
