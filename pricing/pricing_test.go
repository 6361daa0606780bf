package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandFor_NationalBaseline(t *testing.T) {
	band, err := BandFor("Narnia", CareTypeResidential)

	assert.NoError(t, err)
	assert.Equal(t, "850", band.Lower.String())
	assert.Equal(t, "1050", band.Typical.String())
	assert.Equal(t, "1300", band.Upper.String())
}

func TestBandFor_LondonMultiplier(t *testing.T) {
	band, err := BandFor("London", CareTypeResidential)

	assert.NoError(t, err)
	assert.Equal(t, "1062.5", band.Lower.String())
	assert.Equal(t, "1312.5", band.Typical.String())
	assert.Equal(t, "1625", band.Upper.String())
}

func TestBandFor_NorthEastNursing(t *testing.T) {
	band, err := BandFor("North East", CareTypeNursing)

	assert.NoError(t, err)
	assert.Equal(t, "968", band.Lower.String())
	assert.Equal(t, "1188", band.Typical.String())
	assert.Equal(t, "1496", band.Upper.String())
}

func TestBandFor_CareTypeNormalized(t *testing.T) {
	band, err := BandFor("London", " dementia_nursing ")

	assert.NoError(t, err)
	assert.Equal(t, CareTypeDementiaNursing, band.CareType)
	assert.Equal(t, "1500", band.Lower.String())
}

func TestBandFor_UnknownCareType(t *testing.T) {
	_, err := BandFor("London", "HOTEL")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HOTEL")
}

func TestBandFor_AllCareTypesHaveBaselines(t *testing.T) {
	for _, careType := range CareTypes() {
		band, err := BandFor("", careType)

		assert.NoError(t, err)
		assert.True(t, band.Lower.IsPositive())
		assert.True(t, band.Typical.GreaterThan(band.Lower))
		assert.True(t, band.Upper.GreaterThan(band.Typical))
	}
}
