package httpapi

import (
	"net/http"

	"sales-dialer/internal/importer"

	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultMaxUpload = 10 << 20
)

// UploadLeads imports the spreadsheet sent as the multipart "file" field.
func (h Handlers) UploadLeads(c *gin.Context) {
	max := h.UploadMaxBytes
	if max <= 0 {
		max = defaultMaxUpload
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	defer f.Close()

	rep, err := h.Importer.Import(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Leads uploaded successfully", rep)
}

// SampleWorkbook serves the import template.
func (h Handlers) SampleWorkbook(c *gin.Context) {
	buf, err := importer.SampleWorkbook()
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+importer.SampleFilename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
