// Package calendar_tools provides MCP (Model Context Protocol) tools for
// Google Calendar operations.
//
// The headline tool is calendar_find_meeting_slots, which searches a date
// range for times when every attendee is free, bounded by working hours and
// ranked with preferred-window matches first. Around it sit free/busy
// queries, timezone resolution, calendar listing, and event management.
//
// The tools support multi-account authentication. Event mutation tools are
// only registered when the server runs with writes enabled.
package calendar_tools
