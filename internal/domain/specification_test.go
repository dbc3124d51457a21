package domain_test

import (
	"testing"

	"github.com/neomorfeo/cinelist/internal/domain"
)

func intPtr(n int) *int { return &n }

func sampleItems() []domain.WatchlistItem {
	return []domain.WatchlistItem{
		{ID: "1", UserID: "alice", TmdbID: 550, Title: "Fight Club", ReleaseYear: 1999, Status: domain.StatusWatched, Rating: intPtr(9)},
		{ID: "2", UserID: "alice", TmdbID: 27205, Title: "Inception", ReleaseYear: 2010, Status: domain.StatusPlanned},
		{ID: "3", UserID: "alice", TmdbID: 603, Title: "The Matrix", ReleaseYear: 1999, Status: domain.StatusWatching, Rating: intPtr(7)},
		{ID: "4", UserID: "bob", TmdbID: 550, Title: "Fight Club", ReleaseYear: 1999, Status: domain.StatusPlanned},
		{ID: "5", UserID: "bob", TmdbID: 13, Title: "Forrest Gump", ReleaseYear: 1994, Status: domain.StatusDropped, Rating: intPtr(4)},
	}
}

func sampleSpecs() map[string]domain.Specification[domain.WatchlistItem] {
	return map[string]domain.Specification[domain.WatchlistItem]{
		"all":        domain.All[domain.WatchlistItem](),
		"zero":       {},
		"alice":      domain.OwnedBy("alice"),
		"planned":    domain.HasStatus(domain.StatusPlanned),
		"nineties":   domain.ReleasedBetween(1990, 1999),
		"from2000":   domain.ReleasedBetween(2000, 0),
		"title":      domain.TitleContains("FIGHT"),
		"rated7":     domain.RatedAtLeast(7),
		"fightclub":  domain.ForMovie(550),
		"composed":   domain.OwnedBy("bob").Or(domain.HasStatus(domain.StatusWatching)).And(domain.RatedAtLeast(5).Not()),
		"negatedAnd": domain.OwnedBy("alice").And(domain.ReleasedBetween(0, 2000)).Not(),
	}
}

func ids(items []domain.WatchlistItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestSpecifications_Filter(t *testing.T) {
	cases := []struct {
		name string
		spec domain.Specification[domain.WatchlistItem]
		want []string
	}{
		{"owned by alice", domain.OwnedBy("alice"), []string{"1", "2", "3"}},
		{"planned", domain.HasStatus(domain.StatusPlanned), []string{"2", "4"}},
		{"nineties", domain.ReleasedBetween(1990, 1999), []string{"1", "3", "4", "5"}},
		{"open lower bound", domain.ReleasedBetween(0, 1995), []string{"5"}},
		{"title ignores case", domain.TitleContains("fIgHt"), []string{"1", "4"}},
		{"rated at least 7", domain.RatedAtLeast(7), []string{"1", "3"}},
		{"alice and planned", domain.OwnedBy("alice").And(domain.HasStatus(domain.StatusPlanned)), []string{"2"}},
		{"bob or watching", domain.OwnedBy("bob").Or(domain.HasStatus(domain.StatusWatching)), []string{"3", "4", "5"}},
		{"not alice", domain.OwnedBy("alice").Not(), []string{"4", "5"}},
	}

	for _, tc := range cases {
		got := ids(domain.Filter(sampleItems(), tc.spec))
		if len(got) != len(tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
				break
			}
		}
	}
}

func TestSpecification_DoubleNegation(t *testing.T) {
	for name, s := range sampleSpecs() {
		twice := s.Not().Not()
		for _, item := range sampleItems() {
			if twice.IsSatisfiedBy(item) != s.IsSatisfiedBy(item) {
				t.Errorf("%s: Not(Not(s)) disagrees with s on item %s", name, item.ID)
			}
		}
		if twice.Predicate().Op != s.Predicate().Op {
			t.Errorf("%s: Not(Not(s)) predicate op = %q, want %q", name, twice.Predicate().Op, s.Predicate().Op)
		}
	}
}

func TestSpecification_AndOrMatchBooleanAlgebra(t *testing.T) {
	specs := sampleSpecs()
	for n1, s1 := range specs {
		for n2, s2 := range specs {
			and, or := s1.And(s2), s1.Or(s2)
			for _, e := range sampleItems() {
				if got, want := and.IsSatisfiedBy(e), s1.IsSatisfiedBy(e) && s2.IsSatisfiedBy(e); got != want {
					t.Errorf("(%s AND %s) on %s = %v, want %v", n1, n2, e.ID, got, want)
				}
				if got, want := or.IsSatisfiedBy(e), s1.IsSatisfiedBy(e) || s2.IsSatisfiedBy(e); got != want {
					t.Errorf("(%s OR %s) on %s = %v, want %v", n1, n2, e.ID, got, want)
				}
			}
		}
	}
}

func TestSpecification_CombinatorsDoNotMutateOperands(t *testing.T) {
	alice := domain.OwnedBy("alice")
	before := alice.Predicate()

	_ = alice.And(domain.HasStatus(domain.StatusPlanned))
	_ = alice.Or(domain.HasStatus(domain.StatusPlanned))
	_ = alice.Not()

	after := alice.Predicate()
	if after.Op != before.Op || after.Field != before.Field || after.Value != before.Value || len(after.Operands) != 0 {
		t.Errorf("predicate changed from %+v to %+v", before, after)
	}
}

func TestSpecification_PredicateTree(t *testing.T) {
	spec := domain.OwnedBy("alice").And(domain.ReleasedBetween(1990, 0).Not())
	p := spec.Predicate()

	if p.Op != domain.OpAnd || len(p.Operands) != 2 {
		t.Fatalf("root = %+v, want and with 2 operands", p)
	}
	owner := p.Operands[0]
	if owner.Op != domain.OpEquals || owner.Field != domain.FieldUserID || owner.Value != "alice" {
		t.Errorf("owner = %+v", owner)
	}
	not := p.Operands[1]
	if not.Op != domain.OpNot || len(not.Operands) != 1 {
		t.Fatalf("second operand = %+v, want not", not)
	}
	rng := not.Operands[0]
	if rng.Op != domain.OpRange || rng.Min != 1990 || rng.Max != nil {
		t.Errorf("range = %+v, want min 1990 and open max", rng)
	}
}

func TestSpecification_ZeroValueMatchesEverything(t *testing.T) {
	var s domain.Specification[domain.WatchlistItem]
	if !s.IsSatisfiedBy(domain.WatchlistItem{}) {
		t.Error("zero specification should match")
	}
	if got := s.Predicate().Op; got != domain.OpTrue {
		t.Errorf("Predicate().Op = %q, want %q", got, domain.OpTrue)
	}
}
