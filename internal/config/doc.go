// Package config provides configuration loading, merging, and validation
// facilities for the villa-onboard applications.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//
// The main entry points are [GetStructuredConfig] for the server and audit
// runtimes and [GetClientConfig] for the wizard client.
package config
