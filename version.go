package main

// _version is reported by the -version flag.
// Releases overwrite it with -ldflags="-X main._version=...".
var _version = "(unreleased)"
