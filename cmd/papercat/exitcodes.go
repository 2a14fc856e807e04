package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad config, missing API key, missing store)
	ExitDataError   = 3 // Data error (arXiv returned nothing usable)
)
