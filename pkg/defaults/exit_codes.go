package defaults

// Exit codes for both CLIs.
const (
	ExitSuccess   = 0 // Clean exit, including a run with zero results
	ExitUserError = 2 // Invalid arguments or flag combination
)
