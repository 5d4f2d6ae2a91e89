//go:build !debug

package config

const defaultLogLevel = "info"
