//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// Air - Live reload for the console while editing templates and handlers
//   Install: go install github.com/air-verse/air@v1.63.0
//   Version: v1.63.0 (pinned 2025-01-01)
//   Run:     air --build.cmd "go build -o ./tmp/adify-console ./cmd/adify-console" --build.bin ./tmp/adify-console
//   Docs: https://github.com/air-verse/air
//
// mockgen - Regenerates internal/mocks/ports_mock.go (invoked by go generate)
//   Install: go install go.uber.org/mock/mockgen@v0.6.0
//   Docs: https://github.com/uber-go/mock
//
// goose - Inspects the embedded SQLite token store migrations by hand
//   Install: go install github.com/pressly/goose/v3/cmd/goose@v3.26.0
//   Run:     goose -dir internal/migrate/migrations sqlite3 ./adify-console.db status
//   Docs: https://github.com/pressly/goose
