package fuzzy_test

import (
	"math"
	"testing"

	"dukaan-agent/internal/fuzzy"
)

func TestMatchIndianName_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"Bharat", "Bharath"},
		{"Lakshmi", "Laxmi"},
		{"Rahul", "Raju"},
		{"Suresh", "Suresh bhai"},
		{"Vivek", "Wivek"},
	}
	for _, p := range pairs {
		ab := fuzzy.MatchIndianName(p[0], p[1], 0.0)
		ba := fuzzy.MatchIndianName(p[1], p[0], 0.0)
		if ab == nil || ba == nil {
			t.Fatalf("expected non-nil matches for %v", p)
		}
		if math.Abs(ab.Score-ba.Score) >= 0.0001 {
			t.Errorf("asymmetric score for %v: %f vs %f", p, ab.Score, ba.Score)
		}
	}
}

func TestMatchIndianName_Identity(t *testing.T) {
	names := []string{"Bharat", "Lakshmi", "Suresh Bhai", "Rahul"}
	for _, n := range names {
		m := fuzzy.MatchIndianName(n, n, 0.0)
		if m == nil || m.Score != 1.0 {
			t.Errorf("identity match for %q should score 1.0, got %+v", n, m)
		}
	}
}

func TestMatchIndianName_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"Bharat", "Zzzzxxxqqq"},
		{"Rahul", "Rahul"},
		{"A", "B"},
	}
	for _, p := range pairs {
		m := fuzzy.MatchIndianName(p[0], p[1], 0.0)
		if m == nil {
			continue
		}
		if m.Score < 0.0 || m.Score > 1.0 {
			t.Errorf("score out of bounds for %v: %f", p, m.Score)
		}
	}
}

func TestMatchIndianName_KnownEquivalences(t *testing.T) {
	cases := [][2]string{
		{"Bharat", "Bharath"},
		{"Lakshmi", "Laxmi"},
		{"Rahul", "Raju"},
		{"Suresh", "Suresh bhai"},
		{"Vivek", "Wivek"},
		{"Deepak", "Dipak"},
	}
	for _, p := range cases {
		m := fuzzy.MatchIndianName(p[0], p[1], 0.7)
		if m == nil {
			t.Errorf("expected %v to match at threshold 0.7, got no match", p)
			continue
		}
		if !m.Matched {
			t.Errorf("expected %v Matched=true", p)
		}
	}
}

func TestMatchIndianName_BelowThresholdReturnsNil(t *testing.T) {
	m := fuzzy.MatchIndianName("Bharat", "Venkatesh", 0.7)
	if m != nil {
		t.Errorf("expected no match for unrelated names, got %+v", m)
	}
}

func TestFindBestMatch_FuzzySwitch(t *testing.T) {
	candidates := []fuzzy.Candidate{
		{Name: "Deepak"},
		{Name: "Sandeep"},
		{Name: "Pradeep"},
	}
	best := fuzzy.FindBestMatch("Dipak", candidates, 0.7)
	if best == nil {
		t.Fatal("expected a best match")
	}
	if best.Candidate.Name != "Deepak" {
		t.Errorf("expected Deepak as the best match, got %q", best.Candidate.Name)
	}
}

func TestFindAllMatches_DescendingOrder(t *testing.T) {
	candidates := []fuzzy.Candidate{
		{Name: "Bharat"},
		{Name: "Bharath"},
		{Name: "Venkatesh"},
	}
	all := fuzzy.FindAllMatches("Bharat", candidates, 0.5)
	for i := 1; i < len(all); i++ {
		if all[i-1].Match.Score < all[i].Match.Score {
			t.Errorf("expected descending scores, got %v", all)
		}
	}
}

func TestIsSamePerson(t *testing.T) {
	if !fuzzy.IsSamePerson("Bharat", "Bharath") {
		t.Error("expected Bharat/Bharath to be the same person")
	}
	if fuzzy.IsSamePerson("Bharat", "Venkatesh") {
		t.Error("expected Bharat/Venkatesh to be different people")
	}
}
