package nav

// Command names registered by the navigator.
const (
	CmdFirst         = "go-to-first-diagnostic"
	CmdLast          = "go-to-last-diagnostic"
	CmdNext          = "go-to-next-diagnostic"
	CmdPrevious      = "go-to-previous-diagnostic"
	CmdNextTrace     = "go-to-next-diagnostic-trace"
	CmdPreviousTrace = "go-to-previous-diagnostic-trace"
	CmdOpenAll       = "open-all-files-with-errors"
)

// Commands lists every command name in display order.
func Commands() []string {
	return []string{
		CmdFirst,
		CmdLast,
		CmdNext,
		CmdPrevious,
		CmdNextTrace,
		CmdPreviousTrace,
		CmdOpenAll,
	}
}

// IsCommand reports whether name is one of the navigator's commands.
func IsCommand(name string) bool {
	for _, c := range Commands() {
		if c == name {
			return true
		}
	}
	return false
}
