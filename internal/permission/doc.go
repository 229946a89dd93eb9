// Package permission records which runtime permissions the user has granted
// to the plugin.
//
// Grants are kept in a small YAML file. The file is read fresh on every check,
// so a grant recorded by one process (for example "taskplugin
// request-permission") is seen by a running server on its next call without a
// restart. A missing or unreadable file means nothing has been granted.
//
// Example grants file:
//
//	grants:
//	  org.tasks.permission.READ_TASKS:
//	    granted_at: 2025-01-02T15:04:05Z
package permission
