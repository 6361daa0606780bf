package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"carehome-insights/funding"
	"carehome-insights/models"
	"carehome-insights/pricing"
)

// CheckFunding runs a local-authority funding means test.
func (h *Handlers) CheckFunding(c *gin.Context) {
	var args models.FundingArgs

	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in /funding/check call: %v", err)
		return
	}

	if !requireVersion(c, args.Version) {
		return
	}

	a := args.Assessment
	if a.WeeklyCost.IsNegative() || a.Capital.IsNegative() || a.WeeklyIncome.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amounts must not be negative"}) // 400
		return
	}

	c.IndentedJSON(http.StatusOK, funding.Assess(a)) // 200
}

// GetPricingBands returns weekly fee bands for a region. With ?care_type=
// it returns the single matching band, otherwise one band per care type.
func (h *Handlers) GetPricingBands(c *gin.Context) {
	region := c.Query("region")

	if careType := c.Query("care_type"); careType != "" {
		band, err := pricing.BandFor(region, careType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()}) // 400
			return
		}
		c.IndentedJSON(http.StatusOK, band) // 200
		return
	}

	bands := make([]pricing.Band, 0, len(pricing.CareTypes()))
	for _, careType := range pricing.CareTypes() {
		band, err := pricing.BandFor(region, careType)
		if err != nil {
			log.Errorf("Failed to price care type %s: %v", careType, err)
			c.Status(http.StatusInternalServerError) // 500
			return
		}
		bands = append(bands, band)
	}

	c.IndentedJSON(http.StatusOK, bands) // 200
}
