package config

import (
	log "github.com/sirupsen/logrus"
)

// ConfigureLogger applies the level and format to logger.
func (c Config) ConfigureLogger(logger *log.Logger) error {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	if c.Log.Format == "text" {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}
