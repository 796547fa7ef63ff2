// Package operation runs comby over sets of files.
//
//	+-------------+     +-------------+     +-------------+
//	|   Expand    | --> |    Chunk    | --> | BatchRunner |
//	| (doublestar)|     |  (batches)  |     | (errgroup)  |
//	+-------------+     +-------------+     +------+------+
//	                                               |
//	                                        one Engine call
//	                                          per batch
//
// 🎯 Purpose:
// - Resolves globs, directories and files with include/exclude filters
// - Groups files so each comby process sees a bounded tar stream
// - Runs batches one by one or with a parallel limit
// - Writes rewritten files back atomically when asked
//
// comby itself is never run in place. Files are read here, sent over standard
// input, and written back from the decoded results.
//
// 🔍 Example:
//
//	op, err := operation.New(operation.Options{
//		Engine:    comby.NewBinary(comby.Options{}),
//		Root:      ".",
//		Comby:     comby.Config{Matcher: ".go"},
//		BatchSize: 50,
//		Parallel:  4,
//	})
//	files, err := op.Files("pkg", "cmd/**/*.go")
//	results, err := op.Rewrite(ctx, files, "errors.New(:[x])", "fmt.Errorf(:[x])")
//	written, err := op.Write(ctx, results)
package operation
