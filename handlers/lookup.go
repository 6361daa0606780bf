package handlers

import (
	"errors"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"carehome-insights/services/postcodes"
)

// LookupPostcode resolves a postcode to coordinates and a region.
func (h *Handlers) LookupPostcode(c *gin.Context) {
	postcode := c.Param("postcode")
	if postcodes.Normalize(postcode) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "postcode is required"}) // 400
		return
	}

	info, err := h.postcodes.Lookup(c.Request.Context(), postcode)
	if errors.Is(err, postcodes.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Postcode not found"}) // 404
		return
	}
	if err != nil {
		log.Errorf("Postcode lookup failed for %s: %v", postcode, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Postcode lookup failed"}) // 502
		return
	}

	c.IndentedJSON(http.StatusOK, info) // 200
}

// GetCompanyFilings returns the filing history of the operating company, a
// window into the operator's financial health.
func (h *Handlers) GetCompanyFilings(c *gin.Context) {
	number := c.Param("number")

	filings, err := h.companies.GetFilings(c.Request.Context(), number)
	if err != nil {
		log.Errorf("Companies House filings fetch failed for %s: %v", number, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Companies House request failed"}) // 502
		return
	}

	c.IndentedJSON(http.StatusOK, filings) // 200
}
