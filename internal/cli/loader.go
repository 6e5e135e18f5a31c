package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/tenure/internal/config"
	"github.com/roach88/tenure/internal/rent"
)

// loadConfig reads a configuration file, or returns the validated default
// when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	if _, err := os.Stat(path); err != nil {
		return config.Config{}, fmt.Errorf("config file not found: %s", path)
	}
	return config.Load(path)
}

// configErrorDetails extracts the structured part of a configuration error
// for JSON output.
func configErrorDetails(err error) any {
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		return map[string]string{"field": ve.Field, "message": ve.Message}
	}
	var se *rent.ScheduleError
	if errors.As(err, &se) {
		return map[string]string{"class": se.Class.String(), "reason": se.Reason}
	}
	return nil
}
