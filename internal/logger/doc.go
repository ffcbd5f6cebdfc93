// Package logger wraps zap with the logging conventions used across the
// daemon and CLI: a global sugared logger behind context helpers
// (ToContext/FromContext/WithName/WithKV/WithFields), runtime level
// control, and leveled convenience functions (InfoKV, Errorf, ...).
//
// Components never hold a logger directly; they take a context and log
// through it, so subsystem names and key-value scope travel with the call.
package logger
