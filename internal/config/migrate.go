package config

import (
	"fmt"
	"math"
)

// migrate upgrades a decoded settings document in place and reports
// whether anything changed.
//
// v1 -> v2: the legacy key min_planet_value__100k (millions of cr) becomes
// min_planet_value_100k (×10), and schema_version is stamped.
//
// Null values are dropped so the defaults underneath survive.
func migrate(doc map[string]any) (bool, error) {
	for k, v := range doc {
		if v == nil {
			delete(doc, k)
		}
	}

	version := 1
	if v, ok := doc["schema_version"]; ok {
		n, ok := asInt(v)
		if !ok {
			return false, fmt.Errorf("schema_version: want an integer, got %v", v)
		}
		version = int(n)
	}
	if version > SchemaVersion {
		return false, fmt.Errorf("schema_version %d is newer than this build supports (%d)", version, SchemaVersion)
	}

	changed := false
	if version < 2 {
		if legacy, ok := doc["min_planet_value__100k"]; ok {
			if _, current := doc["min_planet_value_100k"]; !current {
				n, ok := asInt(legacy)
				if !ok {
					n = 1
				}
				doc["min_planet_value_100k"] = n * 10
			}
			delete(doc, "min_planet_value__100k")
		}
		changed = true
	}
	doc["schema_version"] = SchemaVersion
	return changed, nil
}

// asInt accepts the numeric shapes YAML and JSON documents decode to.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}
