// Package dsl parses the "what, not how" modelling language into a
// model.Model.
//
// The language is line oriented and indentation sensitive:
//
//	group billing:
//	    process Invoice: produce the monthly invoice
//	        input: Orders, Customer?
//	        output: Invoice+
//	            Receipt (printed copy)
//	        notes: runs on the first of the month
//
// Parsing happens in three layers:
//
//   - Tokenizer: splits one line into tokens. Token 0 is the indentation;
//     what follows depends on the keyword that starts the line.
//   - Block parser: one driver that walks the lines of a block at a fixed
//     indentation and hands each line to the first rule of the active rule
//     set whose keyword predicate matches. An out-dent ends the block.
//   - Actions: one per construct (group, process, data, options, lists,
//     settings). They mutate the model and may open a nested block.
//
// Bad lines never stop the parse. Every problem becomes a model.Diagnostic
// and parsing continues with the next line, so a single run reports every
// problem in the file.
//
// Usage:
//
//	res, err := dsl.ParseFile("system.what")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range res.Diagnostics {
//	    fmt.Println(d)
//	}
package dsl
