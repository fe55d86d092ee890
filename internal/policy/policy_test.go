package policy_test

import (
	"sync"
	"testing"

	"ohopus/internal/policy"
)

func TestDecideGenreDeltas(t *testing.T) {
	p := policy.New(160, true)

	cases := []struct {
		genre     string
		family    string
		effective int
	}{
		{"Classical", "classical", 208},
		{"Baroque", "classical", 208},
		{"Opera", "classical", 208},
		{"Electronic", "electronic", 192},
		{"EDM", "electronic", 192},
		{"Drum and Bass", "electronic", 192},
		{"Metal", "metal", 192},
		{"Death Metal", "metal", 192},
		{"Jazz", "jazz", 184},
		{"Bebop", "jazz", 184},
		{"Pop", "", 160},
		{"Rock", "", 160},
		{"", "", 160},
	}

	for _, tc := range cases {
		d := p.Decide(tc.genre)
		if d.Effective != tc.effective {
			t.Errorf("Decide(%q).Effective = %d, want %d", tc.genre, d.Effective, tc.effective)
		}
		if d.Family != tc.family {
			t.Errorf("Decide(%q).Family = %q, want %q", tc.genre, d.Family, tc.family)
		}
	}
}

func TestDecideCaseInsensitive(t *testing.T) {
	p := policy.New(160, true)
	for _, genre := range []string{"CLASSICAL", "classical", "ClAsSiCaL", "  classical  "} {
		if d := p.Decide(genre); d.Family != "classical" {
			t.Errorf("Decide(%q).Family = %q, want classical", genre, d.Family)
		}
	}
}

func TestDecideClampsBoostToMax(t *testing.T) {
	p := policy.New(240, true)
	if d := p.Decide("Classical"); d.Effective != policy.BitrateMax {
		t.Fatalf("Effective = %d, want %d", d.Effective, policy.BitrateMax)
	}
}

func TestDecideBoostDisabled(t *testing.T) {
	p := policy.New(160, false)
	d := p.Decide("Classical")
	if d.Effective != 160 || d.Boosted() {
		t.Fatalf("boost disabled but got %+v", d)
	}
}

func TestNewClampsNominal(t *testing.T) {
	if got := policy.New(32, true).Nominal(); got != policy.BitrateMin {
		t.Errorf("Nominal() = %d, want %d", got, policy.BitrateMin)
	}
	if got := policy.New(512, true).Nominal(); got != policy.BitrateMax {
		t.Errorf("Nominal() = %d, want %d", got, policy.BitrateMax)
	}
}

func TestDecideDeterministic(t *testing.T) {
	p := policy.New(160, true)
	first := p.Decide("Trance")
	for i := 0; i < 10; i++ {
		if got := p.Decide("Trance"); got != first {
			t.Fatalf("Decide not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestDecideConcurrent(t *testing.T) {
	p := policy.New(128, true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if d := p.Decide("Classical"); d.Effective != 176 {
					t.Errorf("Decide = %+v, want effective 176", d)
					return
				}
			}
		}()
	}
	wg.Wait()
}
