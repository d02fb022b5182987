package catalog

import "testing"

func TestResolveExactBeatsSubstring(t *testing.T) {
	t.Parallel()

	products := []Product{
		{Name: "Basmati Rice"},
		{Name: "rice"},
	}

	got, ok := Resolve("Rice", products)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.Name != "rice" {
		t.Fatalf("expected case-insensitive exact match to win, got %q", got.Name)
	}
}

func TestResolveSubstringFallback(t *testing.T) {
	t.Parallel()

	products := []Product{{Name: "Basmati Rice"}, {Name: "Black Beans"}}

	got, ok := Resolve("beans", products)
	if !ok || got.Name != "Black Beans" {
		t.Fatalf("expected substring match, got %+v ok=%v", got, ok)
	}

	if _, ok := Resolve("tofu", products); ok {
		t.Fatal("expected miss for unmatched query")
	}
}

func TestResolveEmptyQueryMatchesNothing(t *testing.T) {
	t.Parallel()

	products := []Product{{Name: "Rice"}}
	if _, ok := Resolve("", products); ok {
		t.Fatal("empty query must resolve to nothing")
	}
	if _, ok := Resolve("   ", products); ok {
		t.Fatal("blank query must resolve to nothing")
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	products := []Product{{Name: "Basmati Rice"}, {Name: "Black Beans"}, {Name: "rice"}}

	if got := Filter("", products); len(got) != 3 {
		t.Fatalf("empty term must show all, got %d", len(got))
	}
	if got := Filter("RICE", products); len(got) != 2 {
		t.Fatalf("expected 2 rice matches, got %d", len(got))
	}
	if got := Filter("tofu", products); len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}
