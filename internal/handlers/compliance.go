package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ComplianceSummary is the header view: untriggered threats are dropped
// unless ?excludeUntriggered=false.
func ComplianceSummary(c *gin.Context) {
	co := coord(c)
	opts := co.SummaryOptions()

	if s := c.Query("excludeUntriggered"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			render(c, http.StatusBadRequest, gin.H{"error": "excludeUntriggered must be a boolean"})
			return
		}
		opts.ExcludeUntriggered = b
	}

	report := co.Compliance(opts)
	render(c, http.StatusOK, gin.H{
		"generation":      report.Generation,
		"summary":         report.Summary,
		"sets":            report.Sets,
		"modellingErrors": report.ModellingErrors,
	})
}

// ComplianceExplorer never filters untriggered threats.
func ComplianceExplorer(c *gin.Context) {
	co := coord(c)
	opts := co.SummaryOptions()
	opts.ExcludeUntriggered = false

	report := co.Compliance(opts)
	render(c, http.StatusOK, gin.H{
		"generation": report.Generation,
		"sets":       report.Sets,
	})
}
