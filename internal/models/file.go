// Package models defines the workspace types shared by storage and the cache.
package models

import "time"

// FileMetadata is a lightweight description of one scanned source file.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Edge is a directed relation from a waymark to a canonical token.
type Edge struct {
	File  string `json:"file"`
	Line  int    `json:"line"`
	Kind  string `json:"kind"`
	Token string `json:"token"`
}

// Anchor is a canonical token declared with ref.
type Anchor struct {
	Token string `json:"token"`
	File  string `json:"file"`
	Line  int    `json:"line"`
}
