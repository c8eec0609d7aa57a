package natives

import "fmt"

// argTypeError is the shared diagnostic every native raises when an
// argument of the wrong kind reaches it; the VM wraps it into a proper
// RuntimeError the same way it does for a bad opcode operand.
func argTypeError(who string, index int) error {
	return fmt.Errorf("%s: argument %d has the wrong type", who, index+1)
}
