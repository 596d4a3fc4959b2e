package state

// Command inspects s and, when applicable, dispatches a transaction. A nil
// dispatch asks whether the command applies without side effects.
type Command func(s *State, dispatch Dispatch) bool

// Chain runs commands in order until one returns true.
func Chain(cmds ...Command) Command {
	return func(s *State, dispatch Dispatch) bool {
		for _, c := range cmds {
			if c(s, dispatch) {
				return true
			}
		}
		return false
	}
}
