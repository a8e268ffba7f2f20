package hostlib

import "github.com/roach88/watchfilter/internal/native"

func kvFuncs(env Env) []native.Func {
	return []native.Func{
		{
			Name:   "kv_clear",
			Effect: true,
			Doc:    "remove every entry from the shared store",
			Run: native.Passthrough(func(native.Args, any) error {
				env.Store.Clear()
				return nil
			}),
		},
		{
			Name:   "kv_store",
			Arity:  1,
			Effect: true,
			Doc:    "store the input under key",
			Run: native.Passthrough(func(args native.Args, input any) error {
				key, err := args.String(0)
				if err != nil {
					return err
				}
				env.Store.Store(key, input)
				return nil
			}),
		},
		{
			Name:  "kv_fetch",
			Arity: 1,
			Doc:   "the value stored under key, or null",
			Run: func(args native.Args, _ any) (any, error) {
				key, err := args.String(0)
				if err != nil {
					return nil, err
				}
				return env.Store.Fetch(key), nil
			},
		},
	}
}
