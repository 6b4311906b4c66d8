package xmlrpc

import "fmt"

// Fault is an explicit error reported by the server inside a well-formed
// methodResponse. It satisfies error so it can travel as the cause of a
// protocol error.
type Fault struct {
	Code    int
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("xmlrpc: fault %d: %s", f.Code, f.Message)
}

// FaultCode returns the numeric fault code.
func (f *Fault) FaultCode() int { return f.Code }

// FaultString returns the fault description.
func (f *Fault) FaultString() string { return f.Message }
