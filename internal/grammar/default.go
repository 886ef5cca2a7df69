package grammar

// Default returns the mail command grammar.
func Default() *Grammar {
	return MustNew(
		group("account", "list", "doctor"),
		group("folder", "add", "list", "expunge", "purge", "delete"),
		group("envelope", "list", "thread"),
		group("flag", "add", "set", "remove"),
		group("message", "read", "thread", "write", "reply", "forward", "copy", "move", "delete"),
	)
}

func group(name string, leaves ...string) Command {
	children := make([]Command, 0, len(leaves))
	for _, leaf := range leaves {
		children = append(children, Command{Name: leaf})
	}
	return Command{Name: name, Children: children}
}
