// Package widget resolves the widget list a user sees for a model configuration.
package widget
