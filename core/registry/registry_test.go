package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/easycab-sim/central/core/model"
)

func seeded() *Registry {
	return NewFrom(map[int]model.Taxi{
		1: {ID: 1, Status: model.StatusFree, Color: model.ColorRed, Position: model.Position{X: 1, Y: 1}},
		2: {ID: 2, Status: model.StatusBusy, Color: model.ColorGreen, CustomerID: "c9"},
		3: {ID: 3, Status: model.StatusFree, Color: model.ColorRed, Position: model.Position{X: 5, Y: 5}},
	}, map[string]model.Location{
		"A": {ID: "A", Position: model.Position{X: 2, Y: 3}, Color: model.ColorBlue},
	})
}

func TestRegistry_ListFreeTaxisOrder(t *testing.T) {
	r := seeded()
	free := r.ListFreeTaxis()
	if len(free) != 2 || free[0].ID != 1 || free[1].ID != 3 {
		t.Fatalf("unexpected free list: %#v", free)
	}
}

func TestRegistry_AssignFirstFree(t *testing.T) {
	r := seeded()
	taxi, err := r.AssignFirstFree("c1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if taxi.ID != 1 || taxi.Status != model.StatusBusy || taxi.Color != model.ColorGreen || taxi.CustomerID != "c1" {
		t.Fatalf("unexpected assignment: %#v", taxi)
	}
	stored, _ := r.GetTaxi(1)
	if stored.Status != model.StatusBusy {
		t.Fatalf("transition not stored: %#v", stored)
	}
}

func TestRegistry_AssignFirstFreeExhausted(t *testing.T) {
	r := seeded()
	if _, err := r.AssignFirstFree("c1"); err != nil {
		t.Fatalf("assign 1: %v", err)
	}
	if _, err := r.AssignFirstFree("c2"); err != nil {
		t.Fatalf("assign 2: %v", err)
	}
	if _, err := r.AssignFirstFree("c3"); !errors.Is(err, ErrNoFreeTaxi) {
		t.Fatalf("want ErrNoFreeTaxi, got %v", err)
	}
}

func TestRegistry_NoDoubleAssignment(t *testing.T) {
	taxis := make(map[int]model.Taxi)
	for i := 1; i <= 50; i++ {
		taxis[i] = model.Taxi{ID: i, Status: model.StatusFree, Color: model.ColorRed}
	}
	r := NewFrom(taxis, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	assigned := make(map[int]int)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			taxi, err := r.AssignFirstFree(fmt.Sprintf("c%d", n))
			if err != nil {
				return
			}
			mu.Lock()
			assigned[taxi.ID]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(assigned) != 50 {
		t.Fatalf("want 50 distinct assignments, got %d", len(assigned))
	}
	for id, n := range assigned {
		if n != 1 {
			t.Fatalf("taxi %d assigned %d times", id, n)
		}
	}
}

func TestRegistry_AssignFirstFreeRedelivery(t *testing.T) {
	r := seeded()
	first, err := r.AssignFirstFree("c1")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	again, err := r.AssignFirstFree("c1")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("redelivery bound taxi %d, want %d", again.ID, first.ID)
	}
	spare, _ := r.GetTaxi(3)
	if spare.Status != model.StatusFree {
		t.Fatalf("redelivery consumed a second taxi: %#v", spare)
	}
}

func TestRegistry_MutateTaxi(t *testing.T) {
	r := seeded()
	ok := r.MutateTaxi(1, func(taxi *model.Taxi) {
		taxi.Position = model.Position{X: 7, Y: 8}
	})
	if !ok {
		t.Fatalf("mutate failed")
	}
	got, _ := r.GetTaxi(1)
	if got.Position != (model.Position{X: 7, Y: 8}) {
		t.Fatalf("position not updated: %#v", got)
	}
	if r.MutateTaxi(99, func(*model.Taxi) {}) {
		t.Fatalf("mutate of unknown taxi succeeded")
	}
}

func TestRegistry_DirtyTakeAndClear(t *testing.T) {
	r := New()
	if r.TakeDirty() {
		t.Fatalf("new registry should be clean")
	}
	r.UpsertTaxi(model.Taxi{ID: 1, Status: model.StatusFree})
	if !r.TakeDirty() {
		t.Fatalf("upsert should flag dirty")
	}
	if r.TakeDirty() {
		t.Fatalf("take must clear the flag")
	}
}

func TestRegistry_RemoveLocationDirty(t *testing.T) {
	r := seeded()
	r.TakeDirty()
	r.RemoveLocation("nope")
	if r.TakeDirty() {
		t.Fatalf("removing an unknown location should not flag dirty")
	}
	r.RemoveLocation("A")
	if !r.TakeDirty() {
		t.Fatalf("removal should flag dirty")
	}
	if _, ok := r.GetLocation("A"); ok {
		t.Fatalf("location not removed")
	}
}

func TestRegistry_SnapshotIsolation(t *testing.T) {
	r := seeded()
	snap := r.Snapshot()
	snap.Taxis[1] = model.Taxi{ID: 1, Status: model.StatusEnd, CustomerID: "x"}
	got, _ := r.GetTaxi(1)
	if got.Status != model.StatusFree {
		t.Fatalf("snapshot mutation leaked into registry: %#v", got)
	}
}
