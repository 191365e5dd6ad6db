package footfall

import (
	"testing"

	"github.com/tourpulse/backend/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		count int
		want  domain.CrowdLevel
		ok    bool
	}{
		{0, "", false},
		{7999, "", false},
		{8000, domain.CrowdModerate, true},
		{11999, domain.CrowdModerate, true},
		{12000, domain.CrowdHigh, true},
		{19999, domain.CrowdHigh, true},
		{20000, domain.CrowdCritical, true},
		{55000, domain.CrowdCritical, true},
	}
	for _, tc := range cases {
		got, ok := Classify(tc.count)
		if got != tc.want || ok != tc.ok {
			t.Errorf("Classify(%d) = (%q, %v), want (%q, %v)", tc.count, got, ok, tc.want, tc.ok)
		}
	}
}
