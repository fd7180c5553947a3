package logging

import (
	"testing"

	"github.com/apex/log"
)

func TestSetVerbose(t *testing.T) {
	defer func() { Logger.Level = log.InfoLevel }()

	SetVerbose(true)
	if Logger.Level != log.DebugLevel {
		t.Errorf("SetVerbose(true): Level = %v, want Debug", Logger.Level)
	}

	SetVerbose(false)
	if Logger.Level != log.InfoLevel {
		t.Errorf("SetVerbose(false): Level = %v, want Info", Logger.Level)
	}
}
