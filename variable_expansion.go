package stemshell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"stemshell/parser"
)

// MetadataFunc resolves a ${name} placeholder.
type MetadataFunc func(name string) (string, bool)

// Substitute replaces each ${name} in template with its metadata value.
// Unresolved placeholders stay as written and are returned so callers can
// trace them; they are never an error.
func Substitute(template string, lookup MetadataFunc) (string, []string) {
	tmpl, err := parser.ParseTemplate(template)
	if err != nil {
		return template, nil
	}
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return tmpl.Expand(lookup)
}

// BuildMetadata returns the production metadata source. Keys in overrides,
// typically versions stamped with -ldflags, take precedence. Otherwise the
// binary's embedded build information answers:
//
//	build.version, build.path, go.version
//	build.commit, build.date         (vcs.revision, vcs.time)
//	build.setting.<key>              (any build setting, e.g. vcs.modified)
//	env.<NAME>                       (process environment)
func BuildMetadata(overrides map[string]string) MetadataFunc {
	values := make(map[string]string)
	if info, ok := debug.ReadBuildInfo(); ok {
		values["build.version"] = info.Main.Version
		values["build.path"] = info.Main.Path
		values["go.version"] = info.GoVersion
		for _, s := range info.Settings {
			values["build.setting."+s.Key] = s.Value
			switch s.Key {
			case "vcs.revision":
				values["build.commit"] = s.Value
			case "vcs.time":
				values["build.date"] = s.Value
			}
		}
	}
	for k, v := range overrides {
		values[k] = v
	}

	return func(name string) (string, bool) {
		if env, ok := strings.CutPrefix(name, "env."); ok {
			return os.LookupEnv(env)
		}
		v, ok := values[name]
		return v, ok
	}
}

// printBanner writes the banner line by line with placeholders substituted.
func (s *Shell) printBanner(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line, missing := Substitute(scanner.Text(), s.Metadata)
		for _, name := range missing {
			s.Logger.Debug("no value for banner variable", "name", name)
		}
		fmt.Fprintln(s.Stdout, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read banner: %w", err)
	}
	return nil
}
