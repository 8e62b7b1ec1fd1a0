// Package flagx picks individual flags out of the command line without
// owning the whole flag set.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps only the flags named in allowedFlags, together with
// their values. A value is either joined with '=' (-c=conf.json) or the next
// argument when that argument does not start with '-' (-c conf.json).
// Everything else, positional arguments included, is dropped.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			filtered = append(filtered, args[i])
		}
	}
	return filtered
}

// ConfigFilePath returns the JSON config path given with -c or -config,
// or "" when neither is present. Other arguments are ignored so the caller's
// own flag set is not disturbed.
func ConfigFilePath() string {
	return stringFlag([]string{"-c", "-config"}, "config", "c")
}

// EnvFilePath returns the dotenv path given with -e or -env, or "".
func EnvFilePath() string {
	return stringFlag([]string{"-e", "-env"}, "env", "e")
}

func stringFlag(allowed []string, long, short string) string {
	var value string

	args := FilterArgs(os.Args[1:], allowed)

	fs := flag.NewFlagSet(long, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&value, long, "", "")
	fs.StringVar(&value, short, "", "")
	_ = fs.Parse(args)

	return value
}
