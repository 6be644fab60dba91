// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package detection

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/population"
)

var day0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func room(id, building, location string, t facility.RoomType) *facility.Room {
	return &facility.Room{ID: id, Name: id, BuildingID: building, LocationID: location, Type: t}
}

// testFacility builds two locations: LOC_A with buildings BLD_A1 and
// BLD_A2, LOC_B with BLD_B1.
func testFacility(t *testing.T) *facility.Facility {
	t.Helper()
	building := func(id, loc string, rooms ...*facility.Room) *facility.Building {
		return &facility.Building{ID: id, Name: id, LocationID: loc, Rooms: rooms}
	}
	f, err := facility.New([]*facility.Location{
		{ID: "LOC_A", Name: "A", Buildings: []*facility.Building{
			building("BLD_A1", "LOC_A",
				room("ROOM_A1_L", "BLD_A1", "LOC_A", facility.RoomLobby),
				room("ROOM_A1_1", "BLD_A1", "LOC_A", facility.RoomWorkspace),
				room("ROOM_A1_2", "BLD_A1", "LOC_A", facility.RoomServer),
				room("ROOM_A1_3", "BLD_A1", "LOC_A", facility.RoomLaboratory),
				room("ROOM_A1_4", "BLD_A1", "LOC_A", facility.RoomStorage),
				room("ROOM_A1_5", "BLD_A1", "LOC_A", facility.RoomExecutiveOffice),
			),
			building("BLD_A2", "LOC_A",
				room("ROOM_A2_L", "BLD_A2", "LOC_A", facility.RoomLobby),
				room("ROOM_A2_1", "BLD_A2", "LOC_A", facility.RoomMeeting),
			),
		}},
		{ID: "LOC_B", Name: "B", Buildings: []*facility.Building{
			building("BLD_B1", "LOC_B",
				room("ROOM_B1_L", "BLD_B1", "LOC_B", facility.RoomLobby),
				room("ROOM_B1_1", "BLD_B1", "LOC_B", facility.RoomCafeteria),
			),
		}},
	})
	if err != nil {
		t.Fatalf("facility.New() error = %v", err)
	}
	return f
}

func swipe(t *testing.T, f *facility.Facility, user, roomID string, at time.Duration, success bool) events.Event {
	t.Helper()
	r, ok := f.Room(roomID)
	if !ok {
		t.Fatalf("unknown room %s", roomID)
	}
	return events.New(day0.Add(at), user, r, success)
}

func analyze(t *testing.T, cfg Config, index facility.Index, evs []events.Event) *Report {
	t.Helper()
	engine, err := NewEngine(cfg, index)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	report, err := engine.Analyze(context.Background(), evs)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return report
}

func TestImpossibleTravel_Scenarios(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	tests := []struct {
		name     string
		from, to string
		elapsed  time.Duration
		expected bool
		hop      string
	}{
		{"cross location in 30m", "ROOM_A1_1", "ROOM_B1_1", 30 * time.Minute, true, "cross_location"},
		{"cross location after 4h", "ROOM_A1_1", "ROOM_B1_1", 4 * time.Hour, false, ""},
		{"same location in 10m", "ROOM_A1_1", "ROOM_A2_1", 10 * time.Minute, true, "same_location"},
		{"same location after 30m", "ROOM_A1_1", "ROOM_A2_1", 30 * time.Minute, false, ""},
		{"same building same instant", "ROOM_A1_L", "ROOM_A1_1", 0, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			evs := []events.Event{
				swipe(t, f, "USER_1", tt.from, 9*time.Hour, true),
				swipe(t, f, "USER_1", tt.to, 9*time.Hour+tt.elapsed, true),
			}
			report := analyze(t, DefaultConfig(), f, evs)
			got := report.ImpossibleTravel
			if (len(got.Suspects) == 1) != tt.expected {
				t.Fatalf("suspects = %+v, want flagged %v", got.Suspects, tt.expected)
			}
			if !tt.expected {
				return
			}
			v := got.Violations[0]
			if v.Elapsed != tt.elapsed || v.Hop != tt.hop || v.Day != "2025-01-06" {
				t.Errorf("violation = %+v", v)
			}
			if v.Prev.RoomID != tt.from || v.Next.RoomID != tt.to {
				t.Errorf("violation rooms = %s -> %s", v.Prev.RoomID, v.Next.RoomID)
			}
		})
	}
}

func TestImpossibleTravel_ReferenceScenario(t *testing.T) {
	t.Parallel()

	// R1@09:00 at one location, R2@09:30 at another, 30m/4h travel table.
	f := testFacility(t)
	cfg := DefaultConfig()
	cfg.Travel = facility.TravelTable{SameLocation: 30 * time.Minute, CrossLocation: 4 * time.Hour}

	report := analyze(t, cfg, f, []events.Event{
		swipe(t, f, "USER_1", "ROOM_A1_1", 9*time.Hour, true),
		swipe(t, f, "USER_1", "ROOM_B1_1", 9*time.Hour+30*time.Minute, true),
	})
	if _, ok := report.SuspectedCloneSet()["USER_1"]; !ok {
		t.Fatal("USER_1 not suspected")
	}
	v := report.ImpossibleTravel.Violations[0]
	if v.Required != 4*time.Hour || v.Elapsed != 30*time.Minute {
		t.Errorf("violation = %+v", v)
	}
}

func TestImpossibleTravel_SuspectDays(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	var evs []events.Event
	for _, d := range []int{0, 2} {
		base := time.Duration(d) * 24 * time.Hour
		evs = append(evs,
			swipe(t, f, "USER_1", "ROOM_A1_1", base+9*time.Hour, true),
			swipe(t, f, "USER_1", "ROOM_B1_1", base+10*time.Hour, true),
			swipe(t, f, "USER_1", "ROOM_A1_1", base+11*time.Hour, true),
		)
	}
	report := analyze(t, DefaultConfig(), f, evs)
	suspects := report.ImpossibleTravel.Suspects
	if len(suspects) != 1 || suspects[0].Violations != 4 {
		t.Fatalf("suspects = %+v", suspects)
	}
	if want := []string{"2025-01-06", "2025-01-08"}; !reflect.DeepEqual(suspects[0].Days, want) {
		t.Errorf("days = %v, want %v", suspects[0].Days, want)
	}
}

func TestCuriousUser_Scenarios(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	var evs []events.Event
	// USER_C fails on 4 distinct rooms in one day.
	evs = append(evs, swipe(t, f, "USER_C", "ROOM_A1_L", 8*time.Hour, true))
	for i, r := range []string{"ROOM_A1_2", "ROOM_A1_3", "ROOM_A1_4", "ROOM_A1_5"} {
		evs = append(evs, swipe(t, f, "USER_C", r, 10*time.Hour+time.Duration(i)*time.Minute, false))
	}
	// USER_N has one incidental denial.
	evs = append(evs,
		swipe(t, f, "USER_N", "ROOM_A1_L", 8*time.Hour, true),
		swipe(t, f, "USER_N", "ROOM_A1_1", 8*time.Hour+5*time.Minute, true),
		swipe(t, f, "USER_N", "ROOM_A1_2", 11*time.Hour, false),
	)
	// USER_S fails on 2 distinct rooms per day over two days.
	for d, rooms := range [][]string{{"ROOM_A1_2", "ROOM_A1_3"}, {"ROOM_A1_4", "ROOM_A1_5"}} {
		for i, r := range rooms {
			at := time.Duration(d)*24*time.Hour + 10*time.Hour + time.Duration(i)*time.Minute
			evs = append(evs, swipe(t, f, "USER_S", r, at, false))
		}
	}

	cfg := DefaultConfig()
	cfg.DistinctRoomThreshold = 3
	report := analyze(t, cfg, f, evs)
	findings := report.CuriousUsers.Findings
	if len(findings) != 1 {
		t.Fatalf("findings = %+v, want only USER_C", findings)
	}
	got := findings[0]
	if got.UserID != "USER_C" || got.MaxDailyDistinct != 4 || got.Failures != 4 || got.Attempts != 5 {
		t.Errorf("finding = %+v", got)
	}
	if !reflect.DeepEqual(got.Reasons, []string{ReasonDistinctRooms}) {
		t.Errorf("reasons = %v", got.Reasons)
	}
	if report.CuriousUsers.UsersWithFailures != 3 {
		t.Errorf("users with failures = %d, want 3", report.CuriousUsers.UsersWithFailures)
	}
}

func TestCuriousUser_TotalDistinctRooms(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	var evs []events.Event
	// USER_S fails on 2 distinct rooms per day over three days.
	days := [][]string{{"ROOM_A1_2", "ROOM_A1_3"}, {"ROOM_A1_4", "ROOM_A1_5"}, {"ROOM_A2_1", "ROOM_A1_1"}}
	for d, rooms := range days {
		for i, r := range rooms {
			at := time.Duration(d)*24*time.Hour + 10*time.Hour + time.Duration(i)*time.Minute
			evs = append(evs, swipe(t, f, "USER_S", r, at, false))
		}
	}
	// USER_N repeats the same denial every day.
	for d := 0; d < 3; d++ {
		evs = append(evs, swipe(t, f, "USER_N", "ROOM_A1_2", time.Duration(d)*24*time.Hour+11*time.Hour, false))
	}

	tests := []struct {
		name      string
		threshold int
		want      []string
	}{
		{"default", DefaultConfig().TotalDistinctRoomThreshold, []string{"USER_S"}},
		{"disabled", 0, nil},
		{"above total", 7, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			cfg.TotalDistinctRoomThreshold = tt.threshold
			report := analyze(t, cfg, f, evs)

			var got []string
			for _, finding := range report.CuriousUsers.Findings {
				got = append(got, finding.UserID)
				if finding.MaxDailyDistinct != 2 || finding.DistinctRooms != 6 {
					t.Errorf("finding = %+v", finding)
				}
				if !reflect.DeepEqual(finding.Reasons, []string{ReasonTotalDistinctRooms}) {
					t.Errorf("reasons = %v", finding.Reasons)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("flagged = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCuriousUser_FailureRatePercentile(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	var evs []events.Event
	// Ten users with a single success, one user failing the same room repeatedly.
	for i := 0; i < 10; i++ {
		evs = append(evs, swipe(t, f, "USER_"+string(rune('a'+i)), "ROOM_A1_L", 8*time.Hour, true))
	}
	for i := 0; i < 4; i++ {
		evs = append(evs, swipe(t, f, "USER_z", "ROOM_A1_2", 9*time.Hour+time.Duration(i)*time.Minute, false))
	}

	cfg := DefaultConfig()
	cfg.FailureRatePercentile = 90
	cfg.MinFailures = 3
	report := analyze(t, cfg, f, evs)
	findings := report.CuriousUsers.Findings
	if len(findings) != 1 || findings[0].UserID != "USER_z" {
		t.Fatalf("findings = %+v", findings)
	}
	if !reflect.DeepEqual(findings[0].Reasons, []string{ReasonFailureRate}) {
		t.Errorf("reasons = %v", findings[0].Reasons)
	}

	cfg.MinFailures = 5
	if report := analyze(t, cfg, f, evs); len(report.CuriousUsers.Findings) != 0 {
		t.Errorf("findings below min failures = %+v", report.CuriousUsers.Findings)
	}
}

func TestCuriousUser_Ranking(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	rooms := []string{"ROOM_A1_2", "ROOM_A1_3", "ROOM_A1_4", "ROOM_A1_5", "ROOM_A2_1"}
	var evs []events.Event
	add := func(user string, n int, repeat int) {
		for r := 0; r < repeat; r++ {
			for i := 0; i < n; i++ {
				at := 9*time.Hour + time.Duration(r*10+i)*time.Minute
				evs = append(evs, swipe(t, f, user, rooms[i], at, false))
			}
		}
	}
	add("USER_b", 3, 1)
	add("USER_a", 3, 1)
	add("USER_c", 3, 2)
	add("USER_d", 5, 1)

	report := analyze(t, DefaultConfig(), f, evs)
	var order []string
	for _, finding := range report.CuriousUsers.Findings {
		order = append(order, finding.UserID)
	}
	if want := []string{"USER_d", "USER_c", "USER_a", "USER_b"}; !reflect.DeepEqual(order, want) {
		t.Errorf("ranking = %v, want %v", order, want)
	}
}

func TestPrepare_SkipsUnknownEntities(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	good := swipe(t, f, "USER_1", "ROOM_A1_1", 9*time.Hour, true)
	unknown := good
	unknown.RoomID = "ROOM_MISSING"
	moved := good
	moved.BuildingID = "BLD_A2"
	empty := good
	empty.UserID = ""

	in := Prepare([]events.Event{good, unknown, moved, empty}, f)
	if in.Skipped != 3 || in.Events != 1 || len(in.Users) != 1 {
		t.Errorf("Prepare() = skipped %d events %d users %d", in.Skipped, in.Events, len(in.Users))
	}
}

func TestPrepare_IndexFromEvents(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	first := swipe(t, f, "USER_2", "ROOM_A1_1", 9*time.Hour, true)
	conflicting := swipe(t, f, "USER_1", "ROOM_A1_1", 10*time.Hour, true)
	conflicting.LocationID = "LOC_B"
	late := swipe(t, f, "USER_1", "ROOM_A1_L", 8*time.Hour, true)

	in := Prepare([]events.Event{first, conflicting, late}, nil)
	if in.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", in.Skipped)
	}
	if len(in.Users) != 2 || in.Users[0].UserID != "USER_1" || in.Users[1].UserID != "USER_2" {
		t.Fatalf("users = %+v", in.Users)
	}
	if in.Days != 1 {
		t.Errorf("days = %d, want 1", in.Days)
	}
}

func TestPercentile(t *testing.T) {
	t.Parallel()

	values := []float64{0.5, 0.1, 0.3, 0.2, 0.4}
	tests := []struct {
		p        float64
		expected float64
	}{
		{20, 0.1},
		{50, 0.3},
		{90, 0.5},
		{99, 0.5},
	}
	for _, tt := range tests {
		if got := Percentile(values, tt.p); got != tt.expected {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.expected)
		}
	}
	if values[0] != 0.5 {
		t.Error("Percentile modified its input")
	}
	if Percentile(nil, 50) != 0 {
		t.Error("Percentile(nil) != 0")
	}
}

func TestClassify_Rules(t *testing.T) {
	t.Parallel()

	th := DefaultClassifierThresholds()
	base := RoomStats{
		Attempts:           100,
		Visits:             100,
		DwellSamples:       80,
		MeanDwell:          45 * time.Minute,
		BusinessHoursShare: 0.95,
		VisitsPerDay:       10,
		DistinctUsers:      25,
	}
	tests := []struct {
		name     string
		mutate   func(s *RoomStats)
		expected facility.Category
	}{
		{"no attempts", func(s *RoomStats) { *s = RoomStats{} }, facility.CategoryUnknown},
		{"only failures", func(s *RoomStats) { s.Visits = 0; s.FailureShare = 1 }, facility.CategoryRestricted},
		{"edge of day", func(s *RoomStats) { s.EdgeOfDayShare = 0.6; s.MeanDwell = 3 * time.Minute }, facility.CategoryLobby},
		{"mostly refused", func(s *RoomStats) { s.FailureShare = 0.7 }, facility.CategoryRestricted},
		{"rarely visited", func(s *RoomStats) { s.VisitsPerDay = 0.3; s.DistinctUsers = 2 }, facility.CategoryRestricted},
		{"rarely visited by many", func(s *RoomStats) { s.VisitsPerDay = 0.3 }, facility.CategoryMeeting},
		{"lunch heavy", func(s *RoomStats) { s.LunchShare = 0.8 }, facility.CategoryBreak},
		{"short dwell", func(s *RoomStats) { s.MeanDwell = 8 * time.Minute }, facility.CategoryBreak},
		{"repeat visits", func(s *RoomStats) { s.RepeatVisitRatio = 0.7 }, facility.CategoryOffice},
		{"business hours", func(s *RoomStats) {}, facility.CategoryMeeting},
		{"business hours few users", func(s *RoomStats) { s.DistinctUsers = 2 }, facility.CategoryOffice},
		{"business hours at user floor", func(s *RoomStats) { s.DistinctUsers = 3 }, facility.CategoryMeeting},
		{"off hours", func(s *RoomStats) { s.BusinessHoursShare = 0.2 }, facility.CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := base
			tt.mutate(&s)
			if got := Classify(&s, th); got != tt.expected {
				t.Errorf("Classify() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestRoomClassifier_StatsAndIdempotence(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	var evs []events.Event
	for d := 0; d < 2; d++ {
		base := time.Duration(d) * 24 * time.Hour
		for _, user := range []string{"USER_1", "USER_2"} {
			evs = append(evs,
				swipe(t, f, user, "ROOM_A1_L", base+8*time.Hour, true),
				swipe(t, f, user, "ROOM_A1_1", base+8*time.Hour+5*time.Minute, true),
				swipe(t, f, user, "ROOM_A1_1", base+10*time.Hour, true),
				swipe(t, f, user, "ROOM_A1_L", base+17*time.Hour, true),
			)
		}
	}

	report := analyze(t, DefaultConfig(), f, evs)
	var desk RoomStats
	for _, r := range report.Rooms.Rooms {
		if r.RoomID == "ROOM_A1_1" {
			desk = r.Stats
		}
		if again := Classify(&r.Stats, DefaultClassifierThresholds()); again != r.Category {
			t.Errorf("room %s classified %s then %s", r.RoomID, r.Category, again)
		}
	}
	if desk.Visits != 8 || desk.DistinctUsers != 2 || desk.ActiveDays != 2 {
		t.Fatalf("desk stats = %+v", desk)
	}
	if desk.RepeatVisitRatio != 0.5 || desk.EdgeOfDayShare != 0 {
		t.Errorf("desk ratios = repeat %v edge %v", desk.RepeatVisitRatio, desk.EdgeOfDayShare)
	}
	// 1h55m and 7h, four times each.
	if want := (115*time.Minute + 7*time.Hour) / 2; desk.MeanDwell != want {
		t.Errorf("mean dwell = %v, want %v", desk.MeanDwell, want)
	}
	if desk.HourHistogram[8] != 4 || desk.HourHistogram[10] != 4 {
		t.Errorf("hour histogram = %v", desk.HourHistogram)
	}

	second := analyze(t, DefaultConfig(), f, evs)
	if !reflect.DeepEqual(report.Rooms, second.Rooms) {
		t.Error("room classification differs between identical runs")
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	report := &Report{
		Days: 3,
		ImpossibleTravel: &TravelReport{
			Violations: []Violation{
				{UserID: "USER_1", Day: "2025-01-06"},
				{UserID: "USER_3", Day: "2025-01-07"},
			},
			Suspects: []SuspectedClone{{UserID: "USER_1"}, {UserID: "USER_3"}},
		},
		CuriousUsers: &CuriousReport{Findings: []CuriousFinding{{UserID: "USER_2"}}},
		Rooms: &RoomReport{Rooms: []RoomClassification{
			{RoomID: "ROOM_1", Category: facility.CategoryLobby},
			{RoomID: "ROOM_2", Category: facility.CategoryOffice},
		}},
	}
	key := []population.AnswerKeyEntry{
		{UserID: "USER_1", BehaviorVariant: population.VariantCloned, CloneDays: []int{0, 2}},
		{UserID: "USER_2", BehaviorVariant: population.VariantCurious},
		{UserID: "USER_3", BehaviorVariant: population.VariantNormal},
		{UserID: "USER_4", BehaviorVariant: population.VariantCurious},
	}
	ev := Evaluate(report, key, EvaluateOptions{
		Start: day0,
		RoomTypes: map[string]facility.RoomType{
			"ROOM_1": facility.RoomLobby,
			"ROOM_2": facility.RoomMeeting,
		},
	})

	if ev.Cloned.TruePositives != 1 || ev.Cloned.FalsePositives != 1 || ev.Cloned.Precision != 0.5 || ev.Cloned.Recall != 1 {
		t.Errorf("cloned = %+v", ev.Cloned)
	}
	if ev.Curious.Recall != 0.5 || !reflect.DeepEqual(ev.Curious.Missed, []string{"USER_4"}) {
		t.Errorf("curious = %+v", ev.Curious)
	}
	if ev.CloneDays != 2 || ev.CloneDaysFlagged != 1 {
		t.Errorf("clone days = %d flagged %d", ev.CloneDays, ev.CloneDaysFlagged)
	}
	if ev.NormalFlagged != 1 {
		t.Errorf("normal flagged = %d, want 1", ev.NormalFlagged)
	}
	if ev.RoomsScored != 2 || ev.RoomAccuracy != 0.5 {
		t.Errorf("rooms = %d accuracy %v", ev.RoomsScored, ev.RoomAccuracy)
	}
}

func TestEngine_Cancelled(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	engine, err := NewEngine(DefaultConfig(), f)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.Analyze(ctx, []events.Event{swipe(t, f, "USER_1", "ROOM_A1_1", 9*time.Hour, true)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze() error = %v, want context.Canceled", err)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.DistinctRoomThreshold = 0
	cfg.TotalDistinctRoomThreshold = -1
	cfg.MaxDwell = 0
	_, err := NewEngine(cfg, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"distinct room threshold", "total distinct room threshold", "max dwell"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestReport_Output(t *testing.T) {
	t.Parallel()

	f := testFacility(t)
	report := analyze(t, DefaultConfig(), f, []events.Event{
		swipe(t, f, "USER_1", "ROOM_A1_1", 9*time.Hour, true),
		swipe(t, f, "USER_1", "ROOM_B1_1", 9*time.Hour+time.Minute, true),
	})

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	for _, key := range []string{"impossible_travel", "curious_users", "rooms"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("report missing %q", key)
		}
	}

	buf.Reset()
	if err := report.WriteSummary(&buf); err != nil {
		t.Fatalf("WriteSummary() error = %v", err)
	}
	if !strings.Contains(buf.String(), "USER_1: 1 violations") {
		t.Errorf("summary = %s", buf.String())
	}
}
