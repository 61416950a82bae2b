// Package logx provides a small structured logging facade over zerolog.
//
// Components take a logx.Logger by value; the zero value is a safe no-op,
// and loggers derived from a Service keep following the Service's current
// configuration across Apply() calls (level, console/file sinks).
package logx
