package interfaces

import "testing"

var _ Logger = NopLogger{}

func TestNopLogger_AcceptsNilFields(t *testing.T) {
	var logger Logger = NopLogger{}

	logger.Debug("discarded", nil)
	logger.Info("discarded", map[string]interface{}{"site": "https://example.com"})
	logger.Warn("discarded", nil)
	logger.Error("discarded", nil)
}
