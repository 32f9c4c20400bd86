// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jevent implements an incremental, event-driven JSON parser and a
// matching JSON generator.
//
// # Parsing
//
// The Parser type consumes JSON text in windows of any size and reports the
// structure of the input by calling the functions of a Callbacks value. A
// document may be split across windows at any byte offset; the callbacks
// delivered are the same regardless of where the splits fall.
//
//	p, err := jevent.NewParser(&jevent.Callbacks{
//	   Key: func(key []byte) bool { log.Printf("key %q", key); return true },
//	}, nil)
//	...
//	for each window of input {
//	   st, err := p.Parse(window)
//	   if st == jevent.StatusOK {
//	      break // document complete
//	   } else if err != nil {
//	      log.Fatalf("Parse failed: %v", err)
//	   }
//	}
//	if st, err := p.Complete(); st != jevent.StatusOK {
//	   log.Fatalf("Incomplete input: %v", err)
//	}
//
// Parse reports StatusInsufficientData when it needs more input. At the end
// of the input, call Complete to finish a value that can only be terminated
// by a following byte, such as a number. In case of error, the parser reports
// StatusError and an error of concrete type *jevent.SyntaxError; its Verbose
// method renders the error in the context of the input.
//
// # Callbacks
//
// The callbacks correspond to the syntax of JSON values:
//
//	JSON type  | Callbacks                 | Description
//	---------- | ------------------------- | ---------------------------------
//	object     | BeginObject, EndObject    | { ... }
//	member     | Key                       | "key": value
//	array      | BeginArray, EndArray      | [ ... ]
//	value      | Null, Bool, String        | null, true, false, "..."
//	number     | Integer, Double, Number   | 1, 2.5, -3e7
//
// Each callback returns true to continue parsing, or false to stop. When a
// callback stops the parse, the parser reports StatusCanceled. The parser
// ensures that corresponding Begin and End callbacks are correctly paired, or
// that an error is reported.
//
// # Generating
//
// The Generator type emits JSON text from a sequence of calls, either into a
// buffer it owns or to an io.Writer:
//
//	g, err := jevent.NewGenerator(&jevent.GenOptions{Beautify: true})
//	...
//	g.BeginObject()
//	g.Text("name")
//	g.Text("value")
//	g.EndObject()
//	out, err := g.Bytes()
//
// The generator rejects calls that would produce invalid JSON, such as a
// non-string key or an unbalanced close, without writing any output.
//
// # Reformatting
//
// The Reformat and Verify functions connect a Parser and Generator to stream
// JSON text from an io.Reader.
package jevent
