package sprint

import "testing"

func TestSummarizeTeams(t *testing.T) {
	rows := []TeamProgressRow{
		{TeamName: "Beta", ProgressRow: ProgressRow{SprintID: 8, SprintName: "B9",
			StartDate: dayPtr("2025-01-06"), EndDate: dayPtr("2025-01-19"), TotalIssues: 4, CompletedIssues: 1, InProgressIssues: 3}},
		{TeamName: "Alpha", ProgressRow: ProgressRow{SprintID: 9, SprintName: "A2", TotalIssues: 0}},
		{TeamName: "Alpha", ProgressRow: ProgressRow{SprintID: 7, SprintName: "A1",
			StartDate: dayPtr("2025-01-06"), EndDate: dayPtr("2025-01-19"), TotalIssues: 10, CompletedIssues: 5}},
	}
	got := SummarizeTeams(rows, day("2025-01-13"))
	if got.Count != 3 {
		t.Fatalf("count = %d", got.Count)
	}

	order := []int64{got.Summaries[0].SprintID, got.Summaries[1].SprintID, got.Summaries[2].SprintID}
	if order[0] != 7 || order[1] != 9 || order[2] != 8 {
		t.Errorf("expected team then sprint order, got %v", order)
	}

	a1 := got.Summaries[0]
	if a1.PercentCompleted != 50 || a1.DaysLeft == nil || *a1.DaysLeft != 7 || *a1.DaysInSprint != 14 {
		t.Errorf("a1 = %+v", a1)
	}
	if a1.PercentCompletedStatus != Green || a1.InProgressIssuesStatus != Green {
		t.Errorf("a1 statuses = %s %s", a1.PercentCompletedStatus, a1.InProgressIssuesStatus)
	}

	a2 := got.Summaries[1]
	if a2.DaysLeft != nil || a2.DaysInSprint != nil || a2.PercentCompleted != 0 {
		t.Errorf("undated sprint should have null schedule fields: %+v", a2)
	}

	if b := got.Summaries[2]; b.InProgressIssuesStatus != Red {
		t.Errorf("75%% in progress should be red, got %s", b.InProgressIssuesStatus)
	}

	if empty := SummarizeTeams(nil, day("2025-01-13")); empty.Summaries == nil || empty.Count != 0 {
		t.Errorf("empty = %+v", empty)
	}
}
