// Package sensor provides CPU load sources for the governor.
package sensor
