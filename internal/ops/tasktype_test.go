package ops

import (
	"testing"

	"github.com/appointworks/appoint/internal/errors"
)

func TestTaskType_AddListDelete(t *testing.T) {
	svc := newTestService(t)

	types, err := svc.ListTaskTypes()
	if err != nil {
		t.Fatalf("ListTaskTypes failed: %v", err)
	}
	stock := len(types)
	if stock == 0 {
		t.Fatal("fresh store should carry the stock task types")
	}

	tt, err := svc.AddTaskType(TaskTypeInput{Name: "reading", Color: "#112233"})
	if err != nil {
		t.Fatalf("AddTaskType failed: %v", err)
	}
	if tt.TextColor != "#ffffff" {
		t.Errorf("TextColor = %q, want defaulted #ffffff", tt.TextColor)
	}

	if _, err := svc.AddTaskType(TaskTypeInput{Name: "reading"}); !errors.Is(err, errors.ErrConflict) {
		t.Errorf("duplicate add: got %v", err)
	}

	types, _ = svc.ListTaskTypes()
	if len(types) != stock+1 {
		t.Errorf("types = %d, want %d", len(types), stock+1)
	}

	if err := svc.DeleteTaskType("reading"); err != nil {
		t.Fatalf("DeleteTaskType failed: %v", err)
	}
	if err := svc.DeleteTaskType("reading"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("double delete: got %v", err)
	}
}

func TestTaskType_Validation(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.AddTaskType(TaskTypeInput{Name: "   "}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank name: got %v", err)
	}
	if _, err := svc.AddTaskType(TaskTypeInput{Name: "x", Color: "blue"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("non-hex color: got %v", err)
	}
}

func TestTaskType_UpdateColors(t *testing.T) {
	svc := newTestService(t)

	tt, err := svc.UpdateTaskType(TaskTypeInput{Name: "work", Color: "#000000", TextColor: "#abcdef"})
	if err != nil {
		t.Fatalf("UpdateTaskType failed: %v", err)
	}
	if tt.Color != "#000000" || tt.TextColor != "#abcdef" {
		t.Errorf("updated = %+v", tt)
	}

	if _, err := svc.UpdateTaskType(TaskTypeInput{Name: "nope"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("update absent type: got %v", err)
	}
}

func TestDeleteTaskType_InUse(t *testing.T) {
	svc := newTestService(t)
	mustCreateTemplate(t, svc, "deep work", "work")

	if err := svc.DeleteTaskType("work"); !errors.Is(err, errors.ErrConflict) {
		t.Errorf("delete in-use type: got %v", err)
	}
}
