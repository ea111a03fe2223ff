package output

import (
	"bytes"
	"testing"

	"taskmagic/internal/service"
)

func TestFormatTask(t *testing.T) {
	var buf bytes.Buffer
	FormatTask(&buf, 3, service.Task{
		ID:             "abc",
		Title:          "Write\nreport",
		Status:         service.StatusInProgress,
		Priority:       service.PriorityHigh,
		EstimatedHours: 2.5,
	})

	want := "   3  [~] Write report  (High, 2.5h)\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatTaskWithID(t *testing.T) {
	var buf bytes.Buffer
	FormatTaskWithID(&buf, 1, service.Task{ID: "abc", Title: " ", Status: "Blocked", Priority: service.PriorityLow, EstimatedHours: 1})

	want := "   1  [?] (untitled)  (Low, 1h)  abc\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatList(t *testing.T) {
	var buf bytes.Buffer
	FormatList(&buf, []service.Task{
		{ID: "1", Title: "Buy milk", Status: service.StatusTodo, Priority: service.PriorityHigh, EstimatedHours: 1},
		{ID: "2", Title: "Call mom", Status: service.StatusDone, Priority: service.PriorityMedium, EstimatedHours: 1},
	}, false)

	want := "   1  [ ] Buy milk  (High, 1h)\n" +
		"   2  [x] Call mom  (Medium, 1h)\n" +
		"------------\n" +
		"active 1  completed 1  high priority 1\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatTask_Description(t *testing.T) {
	var buf bytes.Buffer
	FormatTask(&buf, 2, service.Task{
		Title:          "Plan the week",
		Description:    "Block focus time\nand review goals ",
		Status:         service.StatusTodo,
		Priority:       service.PriorityHigh,
		EstimatedHours: 2,
	})

	want := "   2  [ ] Plan the week  (High, 2h)\n" +
		"          Block focus time and review goals\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatTaskWithID_BlankDescriptionOmitted(t *testing.T) {
	var buf bytes.Buffer
	FormatTaskWithID(&buf, 1, service.Task{ID: "abc", Title: "x", Description: " \n ", Status: service.StatusDone, Priority: service.PriorityLow, EstimatedHours: 1})

	want := "   1  [x] x  (Low, 1h)  abc\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
