// Package native registers host-implemented functions with the jq engine.
//
// A Func has a name, a fixed arity and a Run implementation. The registry
// turns every Func into two things the engine understands:
//
//   - a compiler option binding an internal native (_native_<name>) whose
//     result is a lazy single-element stream
//   - a jq shim definition with the public name that captures the first value
//     of each argument sub-expression: def f(a): _native_f([limit(1; a)]);
//
// The shim is what gives natives their argument protocol: every argument is
// evaluated against the caller's current input, only its first value is ever
// produced, and an error raised by the argument propagates unchanged.
//
// Effect functions (Func.Effect) follow the pass-through contract: on
// success they re-emit their input untouched. Their shim binds the native's
// result and re-emits "." so they stay path-transparent, which lets them
// appear on either side of an update assignment (|=).
//
// A Func with a Check gets a second binding, _check_<name>, which the shim
// runs before any argument, so a bad input is reported ahead of errors
// raised by the arguments.
package native
