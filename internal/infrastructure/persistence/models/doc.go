// Package models contains GORM persistence models for tables that have no
// domain entity of their own. Domain aggregates such as footprints and posts
// carry their own GORM tags and are persisted directly.
package models
