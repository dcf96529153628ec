// Package client assembles the wizard client application: configuration,
// server adapter, local backup store, sync session and the terminal UI.
package client
