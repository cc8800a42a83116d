// Package config provides configuration management for vidconv.
//
// This package handles:
//   - Loading and saving settings as JSON or YAML
//   - Default configuration values
//   - Validation of weights, formats and durations
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Converts to MP3 in ~/Downloads/vidconv
//	// Progress split 80% acquisition, 20% transcoding
//	// ID3 tagging with embedded thumbnails
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // the file exists but is malformed or invalid
//	}
//
// A path ending in .yaml or .yml is read and written as YAML, anything else
// as JSON. Durations are written as strings such as "750ms"; a bare number
// is read as seconds.
package config
