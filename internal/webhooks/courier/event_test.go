package courierwebhook

import (
	"testing"

	"github.com/google/uuid"

	"github.com/harborbox/dispatch-backend/pkg/enums"
)

func TestEventJobTypeDefaultsToStorage(t *testing.T) {
	event := &Event{Data: EventData{Task: EventTask{Metadata: []MetadataEntry{
		{Name: "job_type", Value: "something_new"},
	}}}}
	if got := event.JobType(); got != enums.CourierJobStorageUnit {
		t.Fatalf("JobType = %s, want storage_unit", got)
	}

	event = &Event{} // no metadata at all
	if got := event.JobType(); got != enums.CourierJobStorageUnit {
		t.Fatalf("JobType = %s, want storage_unit", got)
	}
}

func TestEventStepParsing(t *testing.T) {
	event := &Event{Data: EventData{Task: EventTask{Metadata: []MetadataEntry{
		{Name: "step", Value: "3"},
	}}}}
	step, err := event.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if step != enums.TaskStepWarehouseReturn {
		t.Fatalf("step = %d, want warehouse return", step)
	}

	for _, raw := range []string{"", "zero", "9"} {
		event := &Event{Data: EventData{Task: EventTask{Metadata: []MetadataEntry{
			{Name: "step", Value: raw},
		}}}}
		if _, err := event.Step(); err == nil {
			t.Fatalf("step %q should be rejected", raw)
		}
	}
}

func TestEventAppointmentID(t *testing.T) {
	id := uuid.New()
	event := &Event{Data: EventData{Task: EventTask{Metadata: []MetadataEntry{
		{Name: "appointment_id", Value: id.String()},
	}}}}
	got, err := event.AppointmentID()
	if err != nil {
		t.Fatalf("AppointmentID: %v", err)
	}
	if got != id {
		t.Fatalf("appointment id = %s, want %s", got, id)
	}

	event = &Event{}
	if _, err := event.AppointmentID(); err == nil {
		t.Fatal("missing appointment_id should be rejected")
	}
}

func TestEventOrderID(t *testing.T) {
	id := uuid.New()
	event := &Event{Data: EventData{Task: EventTask{Metadata: []MetadataEntry{
		{Name: "order_id", Value: id.String()},
	}}}}
	got, err := event.OrderID()
	if err != nil {
		t.Fatalf("OrderID: %v", err)
	}
	if got != id {
		t.Fatalf("order id = %s, want %s", got, id)
	}

	for _, raw := range []string{"", "not-a-uuid"} {
		event := &Event{Data: EventData{Task: EventTask{Metadata: []MetadataEntry{
			{Name: "order_id", Value: raw},
		}}}}
		if _, err := event.OrderID(); err == nil {
			t.Fatalf("order_id %q should be rejected", raw)
		}
	}
}

func TestEventIDIsStablePerDelivery(t *testing.T) {
	event := &Event{TaskID: "t1", TriggerName: "taskStarted", Time: 1700000000000}
	if EventID(event) != EventID(event) {
		t.Fatal("EventID must be deterministic")
	}
	other := &Event{TaskID: "t1", TriggerName: "taskStarted", Time: 1700000000001}
	if EventID(event) == EventID(other) {
		t.Fatal("distinct deliveries must produce distinct ids")
	}
}
