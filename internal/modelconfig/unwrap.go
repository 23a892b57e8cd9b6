package modelconfig

import (
	"sort"
	"strings"
)

// Source names the unwrap step that produced the effective document.
type Source string

// Unwrap sources in the order they are tried.
const (
	SourceDirect          Source = "direct"
	SourceNameKey         Source = "name"
	SourceNameInsensitive Source = "name-insensitive"
	SourceConfigKey       Source = "config"
	SourceDataKey         Source = "data"
	SourceModelsKey       Source = "models"
	SourceUnchanged       Source = "unchanged"
)

// directMarkers are top-level keys that identify an unwrapped configuration.
var directMarkers = []string{ //nolint:gochecknoglobals
	"camera", "uiWidgets", "assets", "path", "interactionGroups", "presets", "metadata",
}

type unwrapStep struct {
	source Source
	try    func(name string, doc Document) Document
}

// unwrapSteps is tried in order, the first step returning a document wins.
var unwrapSteps = []unwrapStep{ //nolint:gochecknoglobals
	{SourceDirect, func(_ string, doc Document) Document {
		for _, k := range directMarkers {
			if truthy(doc[k]) {
				return doc
			}
		}

		return nil
	}},
	{SourceNameKey, func(name string, doc Document) Document {
		return doc.Map(name)
	}},
	{SourceNameInsensitive, func(name string, doc Document) Document {
		keys := make([]string, 0, len(doc))
		for k := range doc {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			if strings.EqualFold(k, name) {
				return doc.Map(k)
			}
		}

		return nil
	}},
	{SourceConfigKey, func(_ string, doc Document) Document {
		return doc.Map("config")
	}},
	{SourceDataKey, func(_ string, doc Document) Document {
		return doc.Map("data")
	}},
	{SourceModelsKey, func(name string, doc Document) Document {
		return doc.Map("models").Map(name)
	}},
}

// Unwrap extracts the configuration of model name from an externally authored
// document. Config hosts wrap the real configuration in several ways; the
// returned Source tells which one matched.
func Unwrap(name string, doc Document) (Document, Source) {
	if doc == nil {
		return nil, SourceUnchanged
	}

	for _, step := range unwrapSteps {
		if out := step.try(name, doc); out != nil {
			return out, step.source
		}
	}

	return doc, SourceUnchanged
}

// truthy follows the loose truth test config authors rely on: empty strings,
// zero numbers, false and null are false, objects and arrays are true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}
