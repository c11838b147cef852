// Package driving defines the inbound ports of the pipeline: the
// interfaces through which the CLI, MCP server, TUI and watcher invoke
// ingest, answering and health checks.
package driving
