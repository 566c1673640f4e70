package notice

import "testing"

func TestRaiseDeduplicates(t *testing.T) {
	r := NewRegistry(nil)

	if !r.SchemaGap("recep", "Payout") {
		t.Error("first raise reported as duplicate")
	}
	if r.SchemaGap("recep", "Payout") {
		t.Error("second raise reported as new")
	}
	if !r.SchemaGap("tech", "Payout") {
		t.Error("same field in a different stream must raise separately")
	}
	if !r.SchemaGap("recep", "Price") {
		t.Error("different field in the same stream must raise separately")
	}

	if got := len(r.List()); got != 3 {
		t.Errorf("List() has %d notices, want 3", got)
	}
}

func TestRaiseKindsAreIndependent(t *testing.T) {
	r := NewRegistry(nil)
	r.SchemaGap("recep", "fetch")
	if !r.LoadError("recep", "status 404") {
		t.Error("load error deduped against a schema gap with the same subject")
	}
}

func TestForStream(t *testing.T) {
	r := NewRegistry(nil)
	r.SchemaGap("recep", "Payout")
	r.SchemaGap("tech", "Price")
	r.LoadError("tech", "connection refused")

	got := r.ForStream("tech")
	if len(got) != 2 {
		t.Fatalf("ForStream(tech) has %d notices, want 2", len(got))
	}
	if got[0].Kind != KindSchemaGap || got[1].Kind != KindLoadError {
		t.Errorf("notices out of raise order: %+v", got)
	}
	if r.ForStream("waxhub") != nil {
		t.Error("ForStream(waxhub) returned notices for an untouched stream")
	}
}

func TestListReturnsCopy(t *testing.T) {
	r := NewRegistry(nil)
	r.SchemaGap("recep", "Payout")
	list := r.List()
	list[0].Stream = "mutated"
	if r.List()[0].Stream != "recep" {
		t.Error("List() exposed internal state")
	}
}
