/*
Package comby runs the comby command line tool and decodes what it prints.

	+-----------+   argv + stdin    +---------+
	|  Binary   | ----------------> |  comby  |
	| (Config)  | <---------------- | process |
	+-----+-----+  JSON lines/exit  +---------+
	      |
	      v
	Match / RewriteResult / typed error

🎯 Purpose:
  - Turn a match or rewrite request into one comby invocation
  - Send sources over standard input, never on the command line
  - Decode comby's JSON lines strictly into Match and RewriteResult

⚡ Failures:
  - *EnvironmentError: comby missing, not executable or not startable
  - *ExecutionError: comby exited non-zero, stderr kept verbatim
  - *DecodeError: output did not have the expected shape, raw output kept

Templates and matchers are not validated here. comby is the only judge of
what is well formed and its diagnostics are relayed as they are.

🔍 Example:

	b := comby.NewBinary(comby.Options{})
	res, err := b.Rewrite(ctx, `print "hi"`, "print :[[1]]", "print(:[1])", comby.Config{Matcher: ".generic"})
	if err != nil {
		var execErr *comby.ExecutionError
		if errors.As(err, &execErr) {
			fmt.Println(execErr.Stderr)
		}
		return err
	}
	fmt.Println(res.Text) // print("hi")
*/
package comby
