// Package catalog defines the stage → group → action hierarchy and the
// operational actions, either built in or loaded from YAML.
package catalog
