package exports

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"permitflow_backend/platform/httpkit"
)

const dateLayout = "2006-01-02 15:04:05"

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// HandleExportCSV streams the CRM export table as CSV.
func (h *Handler) HandleExportCSV(c *gin.Context) {
	rows, err := h.repo.List(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to load crm exports", err.Error())
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="crm_export.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	header := []string{
		"lead_id", "company_name", "contact_name", "contact_email", "meeting_type",
		"preferred_times", "preferred_dates", "notes", "qualification_score", "booked_at",
	}
	if err := w.Write(header); err != nil {
		return
	}
	for _, row := range rows {
		record := []string{
			row.LeadID,
			row.CompanyName,
			row.ContactName,
			row.ContactEmail,
			row.MeetingType,
			row.PreferredTimes,
			row.PreferredDates,
			row.Notes,
			strconv.FormatFloat(row.QualificationScore, 'f', 2, 64),
			row.BookedAt.UTC().Format(dateLayout),
		}
		if err := w.Write(record); err != nil {
			return
		}
	}
	// The header is already written; a flush error here cannot be reported
	// to the client anymore.
	w.Flush()
}
