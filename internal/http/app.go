// Package http provides HTTP server infrastructure: the App composition
// root and the Module interface domain modules implement.
package http

import (
	"context"

	"tourbooking_backend/internal/events"
	"tourbooking_backend/platform/config"
	"tourbooking_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies. main.go
// populates it and hands it to router.New.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks, normally a DB ping.
	Health HealthChecker
	// EventBus is the domain event bus shared across modules.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
