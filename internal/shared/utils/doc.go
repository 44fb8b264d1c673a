// Package utils validates names and endpoints arriving on the admin API
// before they reach the supervisor.
package utils
