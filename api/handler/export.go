package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jmemijeabadi/wallmartofertasmx/export"
	"github.com/Jmemijeabadi/wallmartofertasmx/models"
	"github.com/Jmemijeabadi/wallmartofertasmx/pipeline"
)

// Export returns a handler for POST /api/v1/export/:format (csv or json).
// It runs the same pipeline as Buscar and serializes the record list as a
// downloadable artifact.
func Export(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		format := c.Param("format")
		if format != "csv" && format != "json" {
			c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "format must be csv or json",
				},
			})
			return
		}

		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		resp, err := p.Run(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		var body []byte
		var contentType, filename string
		switch format {
		case "csv":
			body, err = export.CSV(resp.Products)
			contentType = "text/csv; charset=utf-8"
			filename = "rebajas_walmart.csv"
		case "json":
			body, err = export.JSON(resp.Products)
			contentType = "application/json; charset=utf-8"
			filename = "rebajas_walmart.json"
		}
		if err != nil {
			respondError(c, err)
			return
		}

		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, contentType, body)
	}
}
