// Package harness runs watchfilter expressions against YAML scenarios and
// compares their traces with golden files.
//
// # Scenario Format
//
//	name: kv_roundtrip
//	description: "values stored by one step are visible to the next"
//	kv_backend: memory
//	files:
//	  notes/a.txt: "hello"
//	steps:
//	  - expr: 'kv_store("last")'
//	    input: {path: "$DIR/notes/a.txt"}
//	    expect: [{path: "$DIR/notes/a.txt"}]
//	  - expr: '$dir + "/notes/a.txt" | file_size'
//	    expect: [5]
//	  - expr: 'log("loud")'
//	    error: "invalid log level"
//
// Files are written to a fresh temporary directory, bound to the $dir
// variable of every step. The literal text $DIR inside inputs and
// expectations is replaced by that directory, and the directory is
// replaced by $DIR in traces, so golden files do not depend on where the
// scenario ran.
//
// Steps run in order against one key-value store created for the
// scenario. expect lists every output of the step; error is a substring of
// the error that must end it. A step with neither only records its trace.
//
// # Golden Files
//
// The trace of a scenario (outputs, errors, and lines written by printout
// and printerr) is rendered as indented JSON. Golden files live in a
// golden/ directory next to the scenarios, named after the scenario file.
package harness
