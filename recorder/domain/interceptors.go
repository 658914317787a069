package domain

// Interceptor inspects a decoded command before it is dispatched.
// Returning an error drops the command and stops the chain.
type Interceptor[K any] interface {
	Apply(msg K) error
}

// Interceptors manages a collection of interceptors and applies them sequentially to messages.
type Interceptors[K any] struct {
	Interceptors []Interceptor[K]
}

// Apply executes all interceptors in order on the given message.
// If any interceptor returns an error, execution stops immediately
// and the error is returned, preventing subsequent interceptors from running.
// A nil chain accepts everything.
func (i *Interceptors[K]) Apply(msg K) error {
	if i == nil {
		return nil
	}
	for _, interceptor := range i.Interceptors {
		if err := interceptor.Apply(msg); err != nil {
			return err
		}
	}

	return nil
}

// WithInterceptors creates a new Interceptors instance with the provided interceptors.
// Example usage:
//
//	chain := WithInterceptors[Command](
//	    infrastructure.NewCommandValidator(),
//	)
//	err := chain.Apply(cmd)
func WithInterceptors[K any](interceptors ...Interceptor[K]) *Interceptors[K] {
	return &Interceptors[K]{Interceptors: interceptors}
}
