package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/AgilePulse/internal/domain/report"
)

// --- Report registry ---

const definitionColumns = `report_id, report_name, chart_type, data_source, description, default_filters, meta_schema`

func (s *Store) ListReportDefinitions(ctx context.Context) ([]report.Definition, error) {
	return collect[report.Definition](ctx, s, "list report definitions",
		`SELECT `+definitionColumns+` FROM report_definitions ORDER BY report_name, report_id`, nil)
}

func (s *Store) ReportDefinition(ctx context.Context, id string) (*report.Definition, error) {
	defs, err := collect[report.Definition](ctx, s, "report definition",
		`SELECT `+definitionColumns+` FROM report_definitions WHERE report_id = @id`,
		pgx.NamedArgs{"id": id})
	if err != nil || len(defs) == 0 {
		return nil, err
	}
	return &defs[0], nil
}
