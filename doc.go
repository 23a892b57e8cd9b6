// Package main provides the entry point of configurator-admin, the back-office
// API of a 3D product configurator. It serves a Fiber REST API for accounts
// with role-based permissions, the model catalog with merged configurations,
// widget visibility, presets, saved configurations and the activity log.
// Data lives in SQLite, MySQL or Postgres through gorm.
package main
