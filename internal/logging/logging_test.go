package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestNewSetsLevel(t *testing.T) {
	logger := New(logrus.WarnLevel)

	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", logger.GetLevel())
	}
}

func TestComponentAddsField(t *testing.T) {
	logger, hook := test.NewNullLogger()

	Component(logger, "swapchain").Info("created")

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no entry logged")
	}
	if entry.Data["component"] != "swapchain" {
		t.Errorf("component = %v", entry.Data["component"])
	}
}
