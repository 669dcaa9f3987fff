package utils

// ApplicationExecutionFailedMessage prefixes fatal errors returned by the CLI.
const ApplicationExecutionFailedMessage = "skryper failed"

// DefaultTokenModel is the model whose encoding is used for token estimates.
const DefaultTokenModel = "gpt-4o"
