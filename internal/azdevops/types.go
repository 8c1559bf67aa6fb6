package azdevops

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field reference names requested from the work item batch API.
const (
	FieldID               = "System.Id"
	FieldTitle            = "System.Title"
	FieldState            = "System.State"
	FieldTeamProject      = "System.TeamProject"
	FieldParent           = "System.Parent"
	FieldOriginalEstimate = "Microsoft.VSTS.Scheduling.OriginalEstimate"
	FieldCompletedWork    = "Microsoft.VSTS.Scheduling.CompletedWork"
)

var (
	detailFields = []string{
		FieldID,
		FieldTitle,
		FieldState,
		FieldTeamProject,
		FieldParent,
		FieldOriginalEstimate,
		FieldCompletedWork,
	}
	parentFields = []string{FieldID, FieldTitle}
)

type wiqlRequest struct {
	Query string `json:"query"`
}

type workItemReference struct {
	ID  int    `json:"id"`
	URL string `json:"url,omitempty"`
}

type wiqlResponse struct {
	QueryType       string              `json:"queryType"`
	QueryResultType string              `json:"queryResultType"`
	WorkItems       []workItemReference `json:"workItems"`
}

type batchRequest struct {
	IDs    []int    `json:"ids"`
	Fields []string `json:"fields,omitempty"`
}

type batchResponse struct {
	Count int        `json:"count"`
	Value []workItem `json:"value"`
}

type workItem struct {
	ID     int            `json:"id"`
	Fields workItemFields `json:"fields"`
}

type workItemFields struct {
	Title            string     `json:"System.Title"`
	TeamProject      string     `json:"System.TeamProject"`
	Parent           int        `json:"System.Parent"`
	OriginalEstimate hoursField `json:"Microsoft.VSTS.Scheduling.OriginalEstimate"`
	CompletedWork    hoursField `json:"Microsoft.VSTS.Scheduling.CompletedWork"`
}

// hoursField decodes a scheduling value that may arrive as a number, a
// numeric string, null or garbage. Anything not a non-negative number is 0.
type hoursField float64

func (h *hoursField) UnmarshalJSON(data []byte) error {
	*h = 0

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*h = hoursField(v)
	return nil
}
