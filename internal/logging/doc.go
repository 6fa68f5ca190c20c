// Package logging builds the slog loggers used across newsforge and defines
// the standardized field names for job, stage, and request correlation.
//
// Console output gets a compact human format (colored on a TTY); json output
// uses the stock slog JSON handler. WithContext lifts identifiers stamped on
// a context by the services package into logger attributes so every record
// emitted during a stage carries its job id.
package logging
