// Package dependency holds the precomputed cross-team dependency records.
package dependency

// Inbound is one row of the inbound dependency load view: work other teams
// rely on from an epic.
type Inbound struct {
	EpicKey              string `db:"epic_key" json:"epic_key"`
	EpicName             string `db:"epic_name" json:"epic_name"`
	TeamName             string `db:"team_name_of_epic" json:"team_name_of_epic"`
	QuarterPI            string `db:"quarter_pi_of_epic" json:"quarter_pi_of_epic"`
	RelyingTeams         int    `db:"number_of_relying_teams" json:"number_of_relying_teams"`
	DependentIssuesTotal int    `db:"dependent_issues_total" json:"dependent_issues_total"`
	DependentIssuesDone  int    `db:"dependent_issues_done" json:"dependent_issues_done"`
	DependentIssuesOpen  int    `db:"dependent_issues_open" json:"dependent_issues_open"`
}

// Outbound is one row of the outbound dependency metrics view: work an epic
// needs from other teams.
type Outbound struct {
	EpicKey              string  `db:"epic_key" json:"epic_key"`
	EpicName             string  `db:"epic_name" json:"epic_name"`
	TeamName             string  `db:"team_name_of_epic" json:"team_name_of_epic"`
	QuarterPI            string  `db:"quarter_pi_of_epic" json:"quarter_pi_of_epic"`
	TeamsDependedOn      int     `db:"number_of_teams_depended_on" json:"number_of_teams_depended_on"`
	RequiredIssuesTotal  int     `db:"required_issues_total" json:"required_issues_total"`
	RequiredIssuesDone   int     `db:"required_issues_done" json:"required_issues_done"`
	CompletionPercentage float64 `db:"completion_percentage" json:"completion_percentage"`
}

// InboundReport is the inbound dependency load report body.
type InboundReport struct {
	Records []Inbound `json:"records"`
	Count   int       `json:"count"`
}

// OutboundReport is the outbound dependency metrics report body.
type OutboundReport struct {
	Records []Outbound `json:"records"`
	Count   int        `json:"count"`
}

// NewInboundReport wraps records, never with a nil list.
func NewInboundReport(records []Inbound) InboundReport {
	if records == nil {
		records = []Inbound{}
	}
	return InboundReport{Records: records, Count: len(records)}
}

// NewOutboundReport wraps records, never with a nil list.
func NewOutboundReport(records []Outbound) OutboundReport {
	if records == nil {
		records = []Outbound{}
	}
	return OutboundReport{Records: records, Count: len(records)}
}
