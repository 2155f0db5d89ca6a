package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pledgetrack/backend/internal/geocode"
)

// @Summary Backfill customer coordinates
// @Description Geocodes customers with missing lat/lon from their address
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/admin/regeocode [post]
func (h *Handler) RegeocodeCustomers(c *gin.Context) {
	ctx := c.Request.Context()

	customers, err := h.Store.ListCustomersMissingCoords(ctx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list customers", h.detail(err))
		return
	}

	processed, updated, failed := 0, 0, 0
	for _, customer := range customers {
		if !geocode.ShouldGeocode(customer, false) {
			continue
		}
		processed++

		query := geocode.BuildGeocodeQuery(h.GeocodeCountry, customer)
		lat, lon, _, _, err := h.Geocoder.Geocode(ctx, query)
		if err != nil {
			failed++
			if !errors.Is(err, geocode.ErrNotFound) {
				h.Logger.Warn().Err(err).Str("customer_id", customer.ID).Msg("geocode failed")
			}
			continue
		}
		if err := h.Store.UpdateCustomerCoords(ctx, customer.ID, lat, lon); err != nil {
			failed++
			h.Logger.Error().Err(err).Str("customer_id", customer.ID).Msg("coords update failed")
			continue
		}
		updated++
	}

	c.JSON(http.StatusOK, gin.H{
		"processed": processed,
		"updated":   updated,
		"failed":    failed,
	})
}
