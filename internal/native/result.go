package native

import "github.com/itchyny/gojq"

// Lazy returns a single-element stream whose element is computed on the
// first call to Next. A non-nil error becomes the element.
func Lazy(compute func() (any, error)) gojq.Iter {
	return &lazyIter{compute: compute}
}

type lazyIter struct {
	compute func() (any, error)
	done    bool
}

func (it *lazyIter) Next() (any, bool) {
	if it.done {
		return nil, false
	}
	it.done = true
	v, err := it.compute()
	it.compute = nil
	if err != nil {
		return err, true
	}
	return v, true
}
