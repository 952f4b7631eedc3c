package osservice

import (
	"strings"
	"testing"
)

func TestControl_UnknownAction(t *testing.T) {
	err := Control(nil, "explode")
	if err == nil || !strings.Contains(err.Error(), `unknown action "explode"`) {
		t.Errorf("err = %v, want unknown action error", err)
	}
}

func TestActions(t *testing.T) {
	for _, want := range []string{"install", "uninstall", "start", "stop"} {
		found := false
		for _, a := range Actions {
			if a == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Actions %v missing %q", Actions, want)
		}
	}
}

func TestProgram_StopBeforeStart(t *testing.T) {
	var p Program[struct{}, struct{}]
	if err := p.Stop(nil); err != nil {
		t.Errorf("Stop before Start = %v, want nil", err)
	}
}
