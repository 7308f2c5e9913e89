package main

import (
	"errors"
	"testing"

	"github.com/dfn-toolkit/darkflight/logx"
)

func TestExitCodeForClassifiedError(t *testing.T) {
	err := &runErr{kind: logx.KindInputMalformed, err: errors.New("bad column")}
	if got := exitCodeFor(err); got != 2 {
		t.Errorf("exitCodeFor = %d, want 2", got)
	}
}

func TestExitCodeForUnclassifiedError(t *testing.T) {
	if got := exitCodeFor(errors.New("boom")); got != 1 {
		t.Errorf("exitCodeFor = %d, want 1", got)
	}
}

func TestNewRootCmdRequiresEventFile(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"-v", "raw"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error when -e is omitted")
	}
}
