package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/AgilePulse/internal/domain"
	"github.com/Strob0t/AgilePulse/internal/domain/dependency"
	"github.com/Strob0t/AgilePulse/internal/domain/epic"
	"github.com/Strob0t/AgilePulse/internal/domain/issue"
	"github.com/Strob0t/AgilePulse/internal/domain/org"
	"github.com/Strob0t/AgilePulse/internal/domain/pi"
	"github.com/Strob0t/AgilePulse/internal/domain/report"
	"github.com/Strob0t/AgilePulse/internal/domain/sprint"
	"github.com/Strob0t/AgilePulse/internal/domain/teammetrics"
	"github.com/Strob0t/AgilePulse/internal/port/database"
	"github.com/Strob0t/AgilePulse/internal/port/messagequeue"
)

// --- Mock Store ---

var _ database.Store = (*mockStore)(nil)

type mockStore struct {
	mu    sync.Mutex
	calls map[string]int

	groups      []org.Group
	teams       []org.Team
	memberships []org.Membership

	epics          []epic.Epic
	totals         []epic.Totals
	teamCounts     []epic.TeamCount
	deps           []epic.Dependencies
	baselineDates  []epic.BaselineDate
	baselineCounts []epic.BaselineCount

	sprintRows []sprint.ProgressRow
	sprints    []sprint.Sprint
	points     []sprint.Point

	inbound  []dependency.Inbound
	outbound []dependency.Outbound

	pis []pi.PI
	wip []pi.TeamWIP

	entries    []sprint.Entry
	teamRows   []sprint.TeamProgressRow
	typeCounts []teammetrics.TypeCount
	priorities []issue.PriorityCount
	defs       []report.Definition

	// Captured arguments.
	lastTeams     []string
	lastIssueType string
	lastSprintID  int64
	lastState     string
	lastStatus    string

	// Error hooks; set these to inject failures.
	listGroupsErr   error
	listEpicsErr    error
	childTotalsErr  error
	sprintErr       error
	listPIsErr      error
	epicsErrForPI   string
	epicsDelay      time.Duration
	listEpicsActive atomic.Int32
	listEpicsPeak   atomic.Int32

	// groupsGate, when set, holds ListGroups until it is closed or ctx ends.
	groupsGate chan struct{}
}

func (m *mockStore) record(op string, teams []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[op]++
	if teams != nil {
		m.lastTeams = teams
	}
}

func (m *mockStore) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockStore) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockStore) ListGroups(ctx context.Context) ([]org.Group, error) {
	m.record("ListGroups", nil)
	if m.groupsGate != nil {
		select {
		case <-m.groupsGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.groups, m.listGroupsErr
}

func (m *mockStore) ListTeams(_ context.Context) ([]org.Team, error) {
	m.record("ListTeams", nil)
	return m.teams, nil
}

func (m *mockStore) ListMemberships(_ context.Context) ([]org.Membership, error) {
	m.record("ListMemberships", nil)
	return m.memberships, nil
}

func (m *mockStore) ListTeamNames(_ context.Context) ([]string, error) {
	m.record("ListTeamNames", nil)
	names := make([]string, 0, len(m.teams))
	for _, t := range m.teams {
		names = append(names, t.Name)
	}
	return names, nil
}

func (m *mockStore) GroupTeams(_ context.Context, groupID int64) ([]org.Team, error) {
	m.record("GroupTeams", nil)
	found := false
	for _, g := range m.groups {
		if g.ID == groupID {
			found = true
		}
	}
	if !found {
		return nil, &domain.NotFoundError{Kind: domain.KindGroup, Name: strconv.FormatInt(groupID, 10)}
	}
	var out []org.Team
	for _, ms := range m.memberships {
		if ms.GroupID != groupID {
			continue
		}
		for _, t := range m.teams {
			if t.ID == ms.TeamID {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (m *mockStore) ListEpics(ctx context.Context, piName string, teams []string) ([]epic.Epic, error) {
	m.record("ListEpics", teams)
	n := m.listEpicsActive.Add(1)
	defer m.listEpicsActive.Add(-1)
	for {
		peak := m.listEpicsPeak.Load()
		if n <= peak || m.listEpicsPeak.CompareAndSwap(peak, n) {
			break
		}
	}
	if m.epicsDelay > 0 {
		select {
		case <-time.After(m.epicsDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.listEpicsErr != nil {
		return nil, m.listEpicsErr
	}
	if m.epicsErrForPI != "" && piName == m.epicsErrForPI {
		return nil, domain.NewQueryError("list epics", context.DeadlineExceeded)
	}
	return m.epics, nil
}

func (m *mockStore) ChildTotals(_ context.Context, _ []string) ([]epic.Totals, error) {
	m.record("ChildTotals", nil)
	return m.totals, m.childTotalsErr
}

func (m *mockStore) ChildTeamBreakdown(_ context.Context, _ []string) ([]epic.TeamCount, error) {
	m.record("ChildTeamBreakdown", nil)
	return m.teamCounts, nil
}

func (m *mockStore) DependencyAggregates(_ context.Context, _ []string) ([]epic.Dependencies, error) {
	m.record("DependencyAggregates", nil)
	return m.deps, nil
}

func (m *mockStore) BaselineDates(_ context.Context, _ []string, status string) ([]epic.BaselineDate, error) {
	m.record("BaselineDates", nil)
	if status != epic.StatusInProgress {
		return nil, nil
	}
	return m.baselineDates, nil
}

func (m *mockStore) BaselineCounts(_ context.Context, _ []epic.BaselineDate) ([]epic.BaselineCount, error) {
	m.record("BaselineCounts", nil)
	return m.baselineCounts, nil
}

func (m *mockStore) ActiveSprintProgress(_ context.Context, teams []string) ([]sprint.ProgressRow, error) {
	m.record("ActiveSprintProgress", teams)
	return m.sprintRows, m.sprintErr
}

func (m *mockStore) SprintsForTeams(_ context.Context, teams []string, name string) ([]sprint.Sprint, error) {
	m.record("SprintsForTeams", teams)
	var out []sprint.Sprint
	for _, s := range m.sprints {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) SprintBurndown(_ context.Context, sprintID int64, teams []string, issueType string) ([]sprint.Point, error) {
	m.record("SprintBurndown", teams)
	m.mu.Lock()
	m.lastIssueType = issueType
	m.lastSprintID = sprintID
	m.mu.Unlock()
	return m.points, nil
}

func (m *mockStore) InboundDependencyLoad(_ context.Context, _ string, teams []string) ([]dependency.Inbound, error) {
	m.record("InboundDependencyLoad", teams)
	return m.inbound, nil
}

func (m *mockStore) OutboundDependencyMetrics(_ context.Context, _ string, teams []string) ([]dependency.Outbound, error) {
	m.record("OutboundDependencyMetrics", teams)
	return m.outbound, nil
}

func (m *mockStore) ListPIs(_ context.Context) ([]pi.PI, error) {
	m.record("ListPIs", nil)
	return m.pis, m.listPIsErr
}

func (m *mockStore) PIWorkInProgress(_ context.Context, _ string, teams []string) ([]pi.TeamWIP, error) {
	m.record("PIWorkInProgress", teams)
	return m.wip, nil
}

func (m *mockStore) ListSprints(_ context.Context, teams []string, state string) ([]sprint.Entry, error) {
	m.record("ListSprints", teams)
	m.mu.Lock()
	m.lastState = state
	m.mu.Unlock()
	return m.entries, m.sprintErr
}

func (m *mockStore) TeamActiveSprints(_ context.Context, teams []string) ([]sprint.TeamProgressRow, error) {
	m.record("TeamActiveSprints", teams)
	return m.teamRows, m.sprintErr
}

func (m *mockStore) InProgressByType(_ context.Context, teams []string) ([]teammetrics.TypeCount, error) {
	m.record("InProgressByType", teams)
	return m.typeCounts, nil
}

func (m *mockStore) PriorityCountsByTeam(_ context.Context, teams []string, issueType, statusCategory string) ([]issue.PriorityCount, error) {
	m.record("PriorityCountsByTeam", teams)
	m.mu.Lock()
	m.lastIssueType = issueType
	m.lastStatus = statusCategory
	m.mu.Unlock()
	return m.priorities, nil
}

func (m *mockStore) ListReportDefinitions(_ context.Context) ([]report.Definition, error) {
	m.record("ListReportDefinitions", nil)
	return m.defs, nil
}

func (m *mockStore) ReportDefinition(_ context.Context, id string) (*report.Definition, error) {
	m.record("ReportDefinition", nil)
	for _, d := range m.defs {
		if d.ReportID == id {
			return &d, nil
		}
	}
	return nil, nil
}

func (m *mockStore) Ping(_ context.Context) error { return nil }

// seedOrg fills the hierarchy:
//
//	ART (1)            Alpha
//	└── Platform (2)   Beta, Gamma
//	Empty (3)
func seedOrg(m *mockStore) {
	parent := int64(1)
	m.groups = []org.Group{
		{ID: 1, Name: "ART"},
		{ID: 2, Name: "Platform", ParentID: &parent},
		{ID: 3, Name: "Empty"},
	}
	m.teams = []org.Team{
		{ID: 10, Name: "Alpha"},
		{ID: 11, Name: "Beta"},
		{ID: 12, Name: "Gamma"},
	}
	m.memberships = []org.Membership{
		{TeamID: 10, GroupID: 1},
		{TeamID: 11, GroupID: 2},
		{TeamID: 12, GroupID: 2},
	}
}

// --- Mock Cache ---

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	gets    int
	sets    int
	deletes int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	delete(c.data, key)
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

func (c *memCache) keys(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

// --- Mock Queue ---

type mockQueue struct {
	mu        sync.Mutex
	published []struct {
		subject string
		data    []byte
	}
	subscribed string
	handler    messagequeue.Handler
	publishErr error
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.publishErr != nil {
		return q.publishErr
	}
	q.published = append(q.published, struct {
		subject string
		data    []byte
	}{subject, data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.subscribed = subject
	q.handler = handler
	return func() {}, nil
}

func (q *mockQueue) Drain() error      { return nil }
func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

// --- Mock Broadcaster ---

type mockHub struct {
	mu     sync.Mutex
	events []struct {
		eventType string
		payload   any
	}
}

func (h *mockHub) BroadcastEvent(_ context.Context, eventType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, struct {
		eventType string
		payload   any
	}{eventType, payload})
}

// --- Fixture ---

var testTTLs = report.TTLs{Realtime: time.Minute, Aggregate: 5 * time.Minute, Historical: 30 * time.Minute}

type fixture struct {
	store *mockStore
	cache *memCache
	rc    *ReportCache
	orgs  *OrgService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &mockStore{}
	seedOrg(store)
	c := newMemCache()
	rc := NewReportCache(c, nil, testTTLs, nil)
	return &fixture{store: store, cache: c, rc: rc, orgs: NewOrgService(store, rc)}
}

func dayOf(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func datePtr(t *testing.T, s string) *domain.Date {
	t.Helper()
	d := dayOf(t, s)
	return &d
}
