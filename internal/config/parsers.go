// Package config loads salvo settings from flags and optional config files.
package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// setting binds one config-file entry, reachable under any of its alias keys,
// to the field it fills.
type setting struct {
	keys  []string
	apply func(raw interface{}) error
}

// applySettings runs every binding whose key is present in settings. Errors
// are reported under the binding's first key.
func applySettings(settings map[string]interface{}, bindings []setting) error {
	for _, b := range bindings {
		raw, ok := lookupSetting(settings, b.keys...)
		if !ok {
			continue
		}
		if err := b.apply(raw); err != nil {
			return fmt.Errorf("%s: %w", b.keys[0], err)
		}
	}
	return nil
}

// lookupSetting searches for a value in settings using multiple candidate keys.
// It performs case-insensitive matching by also checking lowercase versions.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		lower := strings.ToLower(key)
		if val, ok := settings[lower]; ok {
			return val, true
		}
	}
	return nil, false
}

func stringInto(dst *string) func(interface{}) error {
	return func(raw interface{}) error {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(val)
		return nil
	}
}

// nonEmptyStringInto keeps the current value when the file sets a blank one.
func nonEmptyStringInto(dst *string) func(interface{}) error {
	return func(raw interface{}) error {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return err
		}
		if val = strings.TrimSpace(val); val != "" {
			*dst = val
		}
		return nil
	}
}

func lowerStringInto(dst *string) func(interface{}) error {
	return func(raw interface{}) error {
		if err := stringInto(dst)(raw); err != nil {
			return err
		}
		*dst = strings.ToLower(*dst)
		return nil
	}
}

func intInto(dst *int) func(interface{}) error {
	return func(raw interface{}) error {
		if s, ok := raw.(string); ok {
			raw = strings.TrimSpace(s)
		}
		val, err := cast.ToIntE(raw)
		if err != nil {
			return err
		}
		*dst = val
		return nil
	}
}

func boolInto(dst *bool) func(interface{}) error {
	return func(raw interface{}) error {
		if s, ok := raw.(string); ok {
			raw = strings.TrimSpace(s)
		}
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		*dst = val
		return nil
	}
}

func floatInto(dst *float64) func(interface{}) error {
	return func(raw interface{}) error {
		if s, ok := raw.(string); ok {
			raw = strings.TrimSpace(s)
		}
		val, err := cast.ToFloat64E(raw)
		if err != nil {
			return err
		}
		*dst = val
		return nil
	}
}

// durationInto reads Go duration strings ("750ms", "1m"). Bare numbers are
// seconds, matching how config files usually spell timeouts.
func durationInto(dst *time.Duration) func(interface{}) error {
	return func(raw interface{}) error {
		switch v := raw.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			secs, err := cast.ToFloat64E(v)
			if err != nil {
				return err
			}
			*dst = time.Duration(secs * float64(time.Second))
			return nil
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				*dst = 0
				return nil
			}
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*dst = d
			return nil
		}
		d, err := cast.ToDurationE(raw)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

// headersInto merges a header table into dst under canonical header keys.
func headersInto(dst *map[string]string) func(interface{}) error {
	return func(raw interface{}) error {
		if raw == nil {
			return nil
		}
		hdrs, err := cast.ToStringMapStringE(raw)
		if err != nil {
			return err
		}
		if *dst == nil {
			*dst = map[string]string{}
		}
		for k, v := range hdrs {
			key := http.CanonicalHeaderKey(strings.TrimSpace(k))
			if key == "" {
				return fmt.Errorf("header key cannot be empty")
			}
			(*dst)[key] = v
		}
		return nil
	}
}

// stringListInto accepts a list or a single string. A single string is one
// entry, never split on whitespace: thresholds contain spaces.
func stringListInto(dst *[]string) func(interface{}) error {
	return func(raw interface{}) error {
		switch v := raw.(type) {
		case nil:
			*dst = nil
			return nil
		case string:
			*dst = []string{v}
			return nil
		}
		vals, err := cast.ToStringSliceE(raw)
		if err != nil {
			return err
		}
		*dst = vals
		return nil
	}
}

// sectionSettings turns a nested config table into a settings map with
// lowercased keys.
func sectionSettings(value interface{}) (map[string]interface{}, error) {
	section, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, err
	}
	result := make(map[string]interface{}, len(section))
	for key, val := range section {
		result[strings.ToLower(strings.TrimSpace(key))] = val
	}
	return result, nil
}
