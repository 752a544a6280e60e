package types

type RunMode string

const (
	// ModeLocal runs the billing server and the scheduler together
	ModeLocal RunMode = "local"
	// ModeServer runs just the billing server
	ModeServer RunMode = "server"
	// ModeScheduler runs just the scheduled billing tasks
	ModeScheduler RunMode = "scheduler"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)
