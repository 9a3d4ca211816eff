package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags resets all package-level flag variables and their changed
// state, since the command tree is shared between tests.
func resetFlags() {
	flagConfigFile = ""
	flagConf = nil
	flagNoDefault = false
	flagSecrets = nil
	flagGitleaks = false
	flagGitleaksType = ""
	flagValidatorTimeout = 0
	flagLogLevel = ""
	flagLogFormat = ""
	flagWriteSubstitutions = ""
	flagOutDir = ""
	flagValidatorFailure = ""
	flagInclude = nil
	flagExclude = nil
	flagWorkers = 0
	flagReport = ""
	flagTypesJSON = false

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		unset := func(f *pflag.Flag) { f.Changed = false }
		c.Flags().VisitAll(unset)
		c.PersistentFlags().VisitAll(unset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

type result struct {
	code   int
	stdout string
	stderr string
}

// attach points the command tree at fresh buffers and stdin.
func attach(t *testing.T, stdin string) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return &stdout, &stderr
}

// runCLI executes the command tree with isolated settings and streams.
func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	resetFlags()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	stdout, stderr := attach(t, stdin)

	if args == nil {
		// nil makes cobra fall back to os.Args
		args = []string{}
	}
	code := execute(context.Background(), args)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// requireCode fails the test when the run did not exit with want.
func requireCode(t *testing.T, res result, want int) {
	t.Helper()
	require.Equal(t, want, res.code, "stderr: %s", res.stderr)
}

// confDir builds a configuration directory from rel path -> content.
func confDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	}
	return dir
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func basicConf(t *testing.T) string {
	return confDir(t, map[string]string{
		"substitutions/hostname": "db01.internal = DB\n",
		"patterns/username":      `user=(\w+)` + "\n",
	})
}

func TestRun_Stdin(t *testing.T) {
	conf := basicConf(t)
	res := runCLI(t, "db01.internal login user=alice\n", "-n", "-c", conf)

	requireCode(t, res, ExitSuccess)
	assert.Equal(t, "DB login user=username0\n", res.stdout)
}

func TestRun_AnchoredPatternOnMultiLineFile(t *testing.T) {
	conf := confDir(t, map[string]string{
		"patterns/secret": `using password "(.+)"$` + "\n",
	})
	in := writeInput(t, t.TempDir(), "auth.log",
		"authentication successful using password \"hunter2\"\nother line\n")

	res := runCLI(t, "", "-n", "-c", conf, in)
	requireCode(t, res, ExitSuccess)
	assert.Equal(t, "authentication successful using password \"secret0\"\nother line\n", res.stdout)
}

func TestRun_BatchSharesPlaceholders(t *testing.T) {
	conf := basicConf(t)
	in := t.TempDir()
	a := writeInput(t, in, "a.log", "alice was here\n")
	b := writeInput(t, in, "b.log", "user=alice user=bob\n")

	res := runCLI(t, "", "-n", "-c", conf, a, b)
	requireCode(t, res, ExitSuccess)
	assert.Equal(t, "username0 was here\nuser=username0 user=username1\n", res.stdout)
}

func TestRun_OutDirAndMapping(t *testing.T) {
	conf := basicConf(t)
	in := t.TempDir()
	a := writeInput(t, in, "a.log", "user=carol on db01.internal\n")
	out := t.TempDir()
	saved := t.TempDir()

	res := runCLI(t, "", "-n", "-c", conf, "-o", out, "-w", saved, in)
	requireCode(t, res, ExitSuccess)
	assert.Empty(t, res.stdout, "nothing goes to stdout with --out-dir")

	data, err := os.ReadFile(filepath.Join(out, outputName(a)))
	require.NoError(t, err)
	assert.Equal(t, "user=username0 on DB\n", string(data))

	users, err := os.ReadFile(filepath.Join(saved, "substitutions", "username"))
	require.NoError(t, err)
	assert.Equal(t, "carol = username0\n", string(users))

	hosts, err := os.ReadFile(filepath.Join(saved, "substitutions", "hostname"))
	require.NoError(t, err)
	assert.Equal(t, "db01.internal = DB\n", string(hosts))

	// The saved mapping keeps placeholders stable in a later run.
	res = runCLI(t, "user=dave user=carol\n", "-n", "-c", saved, "-c", conf)
	requireCode(t, res, ExitSuccess)
	assert.Equal(t, "user=username1 user=username0\n", res.stdout)
}

func TestRun_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		conf map[string]string
		args []string
	}{
		{"no-default without conf", nil, []string{"-n"}},
		{"invalid pattern", map[string]string{"patterns/bad": "(a)(b)\n"}, nil},
		{"nothing usable", map[string]string{"patterns/empty": "# only a comment\n"}, nil},
		{"bad failure policy", map[string]string{"substitutions/x": "a = b\n"}, []string{"--validator-failure", "shrug"}},
		{"type name escaping the directory", map[string]string{"types.yaml": "- name: ../x\n  patterns: ['x']\n"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.conf != nil {
				args = append([]string{"-n", "-c", confDir(t, tt.conf)}, args...)
			}
			res := runCLI(t, "text", args...)
			assert.Equal(t, ExitConfigError, res.code, "stderr: %s", res.stderr)
			assert.Empty(t, res.stdout, "nothing is written on a configuration error")
		})
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	res := runCLI(t, "", "--no-such-flag")
	assert.Equal(t, ExitUsageError, res.code)
}

func TestRun_MissingInputIsolated(t *testing.T) {
	conf := basicConf(t)
	in := t.TempDir()
	good := writeInput(t, in, "good.log", "user=erin\n")

	res := runCLI(t, "", "-n", "-c", conf, filepath.Join(in, "missing.log"), good)
	assert.Equal(t, ExitRuntimeError, res.code)
	assert.Equal(t, "user=username0\n", res.stdout, "other inputs are still redacted")
}

func TestRun_ValidatorFailurePolicy(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell validators")
	}
	conf := confDir(t, map[string]string{
		"patterns/token":   `tok_\w+` + "\n",
		"validators/token": "#!/bin/sh\nkill -9 $$\n",
	})

	res := runCLI(t, "tok_abc\n", "-n", "-c", conf)
	requireCode(t, res, ExitSuccess)
	assert.Equal(t, "tok_abc\n", res.stdout, "unconfirmed candidates stay as they are")
	assert.Contains(t, res.stderr, "validator unusable")

	res = runCLI(t, "tok_abc\n", "-n", "-c", conf, "--validator-failure", "fatal")
	assert.Equal(t, ExitValidatorError, res.code)
}

func TestRun_ValidatorConfirms(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell validators")
	}
	conf := confDir(t, map[string]string{
		"patterns/ipv4":   `\d+\.\d+\.\d+\.\d+` + "\n",
		"validators/ipv4": "#!/bin/sh\ncase \"$1\" in 10.*) exit 0;; esac\nexit 1\n",
	})
	res := runCLI(t, "10.1.2.3 1.2.3.4\n", "-n", "-c", conf)
	requireCode(t, res, ExitSuccess)
	assert.Equal(t, "ipv40 1.2.3.4\n", res.stdout)
}

func TestRun_SecretsFilter(t *testing.T) {
	conf := basicConf(t)
	res := runCLI(t, "db01.internal user=frank\n", "-n", "-c", conf, "-s", "hostname")
	requireCode(t, res, ExitSuccess)
	assert.Equal(t, "DB user=frank\n", res.stdout)
}

func TestRun_JSONReport(t *testing.T) {
	conf := basicConf(t)
	res := runCLI(t, "user=gina\n", "-n", "-c", conf, "--report", "json", "--log-level", "error")
	requireCode(t, res, ExitSuccess)
	assert.Contains(t, res.stderr, `"runId"`)
	assert.NotContains(t, res.stderr, "gina", "report must not contain secret text")
}

func TestRun_SettingsFromEnv(t *testing.T) {
	conf := basicConf(t)
	resetFlags()
	t.Setenv("REDACT_NO_DEFAULT", "true")
	t.Setenv("REDACT_CONF", conf)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	stdout, stderr := attach(t, "db01.internal\n")

	code := execute(context.Background(), []string{})
	require.Equal(t, ExitSuccess, code, "stderr: %s", stderr.String())
	assert.Equal(t, "DB\n", stdout.String())
}

func TestTypesCommand(t *testing.T) {
	conf := confDir(t, map[string]string{
		"substitutions/hostname": "db01 = DB\nweb01 = WEB\n",
		"patterns/username":      `user=(\w+)` + "\n",
		"validators/username":    "#!/bin/sh\nexit 0\n",
	})

	res := runCLI(t, "", "types", "-n", "-c", conf)
	requireCode(t, res, ExitSuccess)
	for _, want := range []string{"TYPE", "hostname", "username", filepath.Join(conf, "validators", "username")} {
		assert.Contains(t, res.stdout, want)
	}
	assert.NotContains(t, res.stdout, "db01", "substitution secrets are never printed")

	res = runCLI(t, "", "types", "--json", "-n", "-c", conf)
	var infos []typeInfo
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &infos), res.stdout)
	require.Len(t, infos, 2)
	assert.Equal(t, "hostname", infos[1].Name)
	assert.Equal(t, 2, infos[1].Substitutions)
}

func TestMappingShowCommand(t *testing.T) {
	dir := confDir(t, map[string]string{
		"substitutions/ipv4": "10.0.0.1 = ipv40\n10.0.0.2 = ipv41\n",
	})
	res := runCLI(t, "", "mapping", "show", dir)
	requireCode(t, res, ExitSuccess)
	assert.Contains(t, res.stdout, `"entries": 2`)
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	res := runCLI(t, "", "config", "init", "--config", path)
	requireCode(t, res, ExitSuccess)
	assert.FileExists(t, path)

	res = runCLI(t, "", "config", "set", "workers", "8", "--config", path)
	requireCode(t, res, ExitSuccess)

	res = runCLI(t, "", "config", "set", "validator_failure", "shrug", "--config", path)
	assert.Equal(t, ExitConfigError, res.code)

	res = runCLI(t, "", "config", "show", "--config", path, "--validator-timeout", "3s")
	requireCode(t, res, ExitSuccess)
	for _, want := range []string{"workers: 8", "validator_timeout: 3s", "validator_failure: warn"} {
		assert.Contains(t, res.stdout, want)
	}
}

func TestVersionCommand(t *testing.T) {
	res := runCLI(t, "", "version")
	assert.Contains(t, res.stdout, version)
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"-", "stdin"},
		{"logs/app.log", filepath.Join("logs", "app.log")},
		{"/var/log/app.log", filepath.Join("var", "log", "app.log")},
		{"../up/x.txt", filepath.Join("_", "up", "x.txt")},
		{"./a.txt", "a.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, outputName(tt.path))
		})
	}
}
