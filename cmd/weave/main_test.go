package main

import (
	"testing"
)

func TestRunRejectsEmptyArgv(t *testing.T) {
	if got := run(nil); got != 1 {
		t.Errorf("run(nil) = %d, want 1", got)
	}
}

func TestRunRejectsBadClause(t *testing.T) {
	if got := run([]string{"not", "a", "clause"}); got != 1 {
		t.Errorf("run(...) = %d, want 1", got)
	}
}

func TestRunPrintsVersionAndExits(t *testing.T) {
	if got := run([]string{"-version"}); got != 0 {
		t.Errorf("run(-version) = %d, want 0", got)
	}
}

func TestRunPrintsHelpAndExits(t *testing.T) {
	if got := run([]string{"-h"}); got != 0 {
		t.Errorf("run(-h) = %d, want 0", got)
	}
}

func TestRunExplainsWithoutServing(t *testing.T) {
	if got := run([]string{"-explain", "8080", "to", "9090"}); got != 0 {
		t.Errorf("run(-explain ...) = %d, want 0", got)
	}
}

func TestRunExplainRejectsBadClause(t *testing.T) {
	if got := run([]string{"-explain", "9090", "and"}); got != 1 {
		t.Errorf("run(-explain ...) = %d, want 1", got)
	}
}
