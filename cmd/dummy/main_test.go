package main

import "testing"

func TestRunRejectsNonPositiveNodeCount(t *testing.T) {
	for _, arg := range []string{"0", "-1", "abc"} {
		if err := run(nil, []string{arg}); err == nil {
			t.Fatalf("run(%q) succeeded, want error", arg)
		}
	}
}
