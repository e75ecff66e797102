package correlation

import "fmt"

// ErrCommandNotRecognized is raised to an SREQ caller when the device
// replies with the distinguished RPC_ERROR.CommandNotRecognized frame
// instead of the expected SRSP.
var ErrCommandNotRecognized = fmt.Errorf("command not recognized by device")

// ErrInvalidResponse is raised when an SRSP arrives for the right header
// but fails the caller's partial-response constraints.
var ErrInvalidResponse = fmt.Errorf("response did not satisfy constraints")

// ErrTimeout is raised when no matching response arrives within the
// configured SREQ timeout.
var ErrTimeout = fmt.Errorf("timed out waiting for response")

// ErrCancelled is returned to a waiter whose listener was cancelled by a
// transport loss or an explicit Close, rather than resolved or timed out.
var ErrCancelled = fmt.Errorf("listener cancelled")

// ErrNotSREQ is returned by Request when given a command class that is
// neither an SREQ request nor an AREQ request-only class.
var ErrNotSREQ = fmt.Errorf("command class does not support Request")

// ErrNoPatterns is returned when a listener is registered with an empty
// matching set; a listener must accept at least one partial command.
var ErrNoPatterns = fmt.Errorf("listener requires at least one pattern")
