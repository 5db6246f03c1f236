package report

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Data sources a definition can resolve through.
const (
	SourceEpicsByPI                 = "epics_by_pi"
	SourceEpicInboundDependency     = "epic_inbound_dependency"
	SourceEpicOutboundDependency    = "epic_outbound_dependency"
	SourceCurrentSprintProgress     = "team_current_sprint_progress"
	SourceSprintBurndown            = "team_sprint_burndown"
	SourcePIWorkInProgressSummary   = "pi_wip_summary"
	SourcePIList                    = "pi_list"
	SourceSprintList                = "sprint_list"
	SourceActiveSprintSummaryByTeam = "active_sprint_summary_by_team"
	SourceTeamCountInProgress       = "team_count_in_progress"
	SourceTeamSprintCompletion      = "team_current_sprint_completion"
	SourceIssuesGroupedByTeam       = "issues_grouped_by_team"
)

// Definition is a row of the report registry.
type Definition struct {
	ReportID       string         `db:"report_id" json:"report_id"`
	Name           string         `db:"report_name" json:"report_name"`
	ChartType      string         `db:"chart_type" json:"chart_type"`
	DataSource     string         `db:"data_source" json:"data_source"`
	Description    *string        `db:"description" json:"description"`
	DefaultFilters map[string]any `db:"default_filters" json:"default_filters"`
	MetaSchema     map[string]any `db:"meta_schema" json:"meta_schema"`
}

// RequiredFilters lists meta_schema.required_filters. Entries that are not
// strings are ignored.
func (d Definition) RequiredFilters() []string {
	raw, _ := d.MetaSchema["required_filters"].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// MergeFilters lays the request parameters over the definition defaults.
// Values are trimmed and blank parameters do not override a default.
func (d Definition) MergeFilters(params map[string]string) map[string]string {
	merged := make(map[string]string, len(d.DefaultFilters)+len(params))
	for k, v := range d.DefaultFilters {
		if s := filterString(v); s != "" {
			merged[k] = s
		}
	}
	for k, v := range params {
		if v = strings.TrimSpace(v); v != "" {
			merged[k] = v
		}
	}
	return merged
}

// MissingFilters returns the required filters absent from merged, sorted.
func (d Definition) MissingFilters(merged map[string]string) []string {
	var missing []string
	for _, k := range d.RequiredFilters() {
		if strings.TrimSpace(merged[k]) == "" {
			missing = append(missing, k)
		}
	}
	slices.Sort(missing)
	return missing
}

// filterString renders a JSON default value as a query string value. Lists
// join with commas.
func filterString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case bool, float64, json.Number:
		return fmt.Sprint(x)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := filterString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ",")
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Resolved is a definition with its merged filters and the data its source
// produced.
type Resolved struct {
	Definition Definition        `json:"definition"`
	Filters    map[string]string `json:"filters"`
	Result     json.RawMessage   `json:"result"`
}
