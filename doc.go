// Package formdesk assigns forms as deadline-bound tasks, collects the
// submissions and reports the results.
//
// Binaries live under cmd/:
//
//   - cmd/server: the HTTP API
//   - cmd/formdesk: command-line client for the API
//   - cmd/migrate: schema migration and status
//   - cmd/seed: development and test data
//   - cmd/promote-admin: grant a role from the shell
//   - cmd/cleanup-orphan-tasks: remove tasks whose form was deleted
//
// The server is organized into subpackages:
//
//   - internal/handlers: HTTP request handlers for all API endpoints
//   - internal/auth: tokens, passwords, TOTP and password resets
//   - internal/tasks: task assignment, recurrence, drafts, submission, review
//   - internal/results: joins submissions with tasks, filters and exports
//   - internal/formio: form backend client and cache
//   - internal/repository: database access
//   - internal/queue: background export jobs
//   - internal/scheduler: periodic jobs such as overdue marking
//   - internal/storage, internal/email: S3 uploads and SES notifications
//   - internal/cli: the command-line client
package formdesk
