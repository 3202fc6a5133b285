// Package registry reads ODBC configuration from the Windows registry.
// System scope maps to HKEY_LOCAL_MACHINE, user scope to HKEY_CURRENT_USER.
// On other platforms New returns a store whose scopes are unavailable.
package registry
