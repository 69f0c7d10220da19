// Package observability provides structured logging for the MediBlaze
// assistant.
//
// Logging is zap-based and configured from the environment (LOG_LEVEL,
// LOG_FORMAT). Every service receives its logger through constructor
// injection; nothing in this module reads an ambient global logger.
package observability
