package natsqueue

import "testing"

func TestSubjectAndDurableNaming(t *testing.T) {
	cases := []struct {
		queue   string
		subject string
		durable string
	}{
		{"hydration", "HYDRATION.hydration", "pantrypal-hydration"},
		{"a.b c", "HYDRATION.a_b_c", "pantrypal-a_b_c"},
		{"", "HYDRATION.default", "pantrypal-default"},
		{"jobs>*", "HYDRATION.jobs__", "pantrypal-jobs__"},
	}
	for _, tc := range cases {
		if got := subjectFor("HYDRATION", tc.queue); got != tc.subject {
			t.Fatalf("subjectFor(%q) = %q, want %q", tc.queue, got, tc.subject)
		}
		if got := durableName(tc.queue); got != tc.durable {
			t.Fatalf("durableName(%q) = %q, want %q", tc.queue, got, tc.durable)
		}
	}
}
