// Package common contains shared constants and sentinel errors used across
// taskjournal components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// CollectionTypeTasks marks a journal whose collection info describes a task
// list. Journals of other types are ignored by the task client.
const CollectionTypeTasks = "TASKS"
