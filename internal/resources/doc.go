// Package resources provides MCP resources for exposing scheduler data.
// Resources are read-only data sources that MCP clients can fetch, such as
// the active scheduling configuration and the available workweek presets.
// Agents read them to learn defaults and limits before invoking tools.
package resources
