package repositories

import "context"

// Repository aggregates all entity repositories behind one interface.
type Repository interface {
	// Identity directory
	User() UserRepository

	// Class registry
	Class() ClassRepository

	// Timetable scheduler
	Timetable() TimetableRepository

	// Attendance ledger
	Attendance() AttendanceRepository

	// Leave workflow
	Leave() LeaveRepository

	// Dashboard aggregation
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
