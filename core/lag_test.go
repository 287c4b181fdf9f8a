package core

import "testing"

func TestLAGTableAddAndGet(t *testing.T) {
	table := NewLAGTable()

	g, err := table.Add("lag1")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if table.Get("lag1") != g {
		t.Fatalf("Get(lag1) did not return the created group")
	}
	if table.Get("lag2") != nil {
		t.Fatalf("Get(lag2) = non-nil for missing group")
	}
}

func TestLAGTableRejectsDuplicates(t *testing.T) {
	table := NewLAGTable()

	if _, err := table.Add("lag1"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := table.Add("lag1"); err == nil {
		t.Fatalf("duplicate Add succeeded")
	}
	if _, err := table.Add(""); err == nil {
		t.Fatalf("empty id Add succeeded")
	}
}

func TestLAGTableAllPreservesCreationOrder(t *testing.T) {
	table := NewLAGTable()
	for _, id := range []string{"lag3", "lag1", "lag2"} {
		if _, err := table.Add(id); err != nil {
			t.Fatalf("Add %s: %v", id, err)
		}
	}

	all := table.All()
	if len(all) != 3 || all[0].ID != "lag3" || all[1].ID != "lag1" || all[2].ID != "lag2" {
		t.Fatalf("All() order wrong: %v", all)
	}
}

func TestLAGGroupMembersCopy(t *testing.T) {
	g := &LAGGroup{ID: "lag1"}
	g.addMember("eth0")

	members := g.Members()
	members[0] = "mutated"
	if g.Members()[0] != "eth0" {
		t.Fatalf("Members() exposed internal slice")
	}
}
