package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ksfraser/equitysim/backtest"
)

// WriteJSON dumps the complete result, indented, to path.
func WriteJSON(path string, res *backtest.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
