/*
Package config loads gocomby configuration files.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   HCL    | |   JSON   |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Picks a parser by file extension
- Rejects unknown fields in every format
- Fills defaults and validates globs
- Converts the file model into a comby.Config

The file only describes defaults for the CLI and the batch runner. Library
callers build comby.Config directly and nothing here is global.

🔍 Example:

	cfg, err := config.Load(ctx, ".gocomby.yaml")
	if err != nil {
		return err
	}
	b := comby.NewBinary(comby.Options{Path: cfg.Binary})
	matches, err := b.Match(ctx, src, "fmt.Println(:[x])", cfg.Comby())

HCL files can read the environment:

	matcher = env.GOCOMBY_MATCHER
	custom_matcher "*.tmpl" {
	  definition = "{\"user_defined_delimiters\": [[\"{{\", \"}}\"]]}"
	}
*/
package config
