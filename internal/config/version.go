package config

// Version is the build version reported by /v1/version. Overridden at build
// time via -ldflags "-X nevis-server/internal/config.Version=...".
var Version = "dev"
