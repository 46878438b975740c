package session

// Invoke runs the intercepted primitive operation and returns its result.
type Invoke func() (any, error)

// Interceptor wraps one primitive-operation dispatch. It must invoke the
// operation exactly once and return its result and error unmodified.
type Interceptor func(op string, invoke Invoke) (any, error)

// Dispatcher is the engine's global interception point for primitive
// operations. Install replaces the current interceptor; Uninstall restores
// pass-through dispatch.
type Dispatcher interface {
	Install(ic Interceptor)
	Uninstall()
}
