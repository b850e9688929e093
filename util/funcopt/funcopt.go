// Package funcopt implements the functional options pattern used by the
// constructors of this module.
package funcopt

type (
	// O is a functional option.
	O interface {
		apply(t interface{}) error
	}

	// F is the func adapter implementing O.
	F func(i interface{}) error
)

func (f F) apply(i interface{}) error {
	return f(i)
}

// Apply applies the options to t, stopping at the first error.
func Apply(t interface{}, opts ...O) error {
	for _, o := range opts {
		if err := o.apply(t); err != nil {
			return err
		}
	}
	return nil
}
