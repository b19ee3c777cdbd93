package memory

import "fmt"

func assign[T any](dst *T, attr string, v interface{}) error {
	t, ok := v.(T)
	if !ok {
		return fmt.Errorf("attribute %q: unexpected type %T", attr, v)
	}
	*dst = t
	return nil
}

// assignPtr accepts nil (clear), a T, or a *T.
func assignPtr[T any](dst **T, attr string, v interface{}) error {
	switch t := v.(type) {
	case nil:
		*dst = nil
	case T:
		*dst = &t
	case *T:
		*dst = t
	default:
		return fmt.Errorf("attribute %q: unexpected type %T", attr, v)
	}
	return nil
}
