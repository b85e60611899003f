package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stemshell"
)

func openTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "audit.db")
	l, err := Open(path)
	require.NoError(t, err)
	return l, path
}

func invocation(command string, outcome stemshell.Outcome, args ...string) stemshell.Invocation {
	return stemshell.Invocation{
		Command:  command,
		Args:     args,
		Outcome:  outcome,
		Start:    time.Now(),
		Duration: 3 * time.Millisecond,
	}
}

func TestOpenStartsSession(t *testing.T) {
	l, _ := openTestLog(t)
	defer l.Close()

	_, err := uuid.Parse(l.Session().ID)
	assert.NoError(t, err)
	assert.NotEmpty(t, l.Session().Hostname)
}

func TestRecordAndRecent(t *testing.T) {
	l, _ := openTestLog(t)
	defer l.Close()

	failed := invocation("fail", stemshell.OutcomeFailed, "-v")
	failed.Err = "boom"
	require.NoError(t, l.Record(invocation("ls", stemshell.OutcomeOK, "-l", "/tmp")))
	require.NoError(t, l.Record(failed))
	require.NoError(t, l.Record(invocation("nope", stemshell.OutcomeNotFound)))

	entries, err := l.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "fail", entries[0].Command)
	assert.Equal(t, []string{"-v"}, entries[0].Args)
	assert.Equal(t, stemshell.OutcomeFailed, entries[0].Outcome)
	assert.Equal(t, "boom", entries[0].Err)
	assert.Equal(t, 3*time.Millisecond, entries[0].Duration)
	assert.Equal(t, l.Session().ID, entries[0].Session)

	assert.Equal(t, "nope", entries[1].Command)
	assert.Empty(t, entries[1].Args)

	entries, err = l.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"-l", "/tmp"}, entries[0].Args)
}

func TestHistorySurvivesReopen(t *testing.T) {
	l, path := openTestLog(t)
	first := l.Session().ID
	require.NoError(t, l.Record(invocation("echo", stemshell.OutcomeOK, "hi")))
	require.NoError(t, l.Close())

	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()
	assert.NotEqual(t, first, l.Session().ID)

	entries, err := l.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, first, entries[0].Session)
}

func TestArgumentsByFrequency(t *testing.T) {
	l, _ := openTestLog(t)
	defer l.Close()

	require.NoError(t, l.Record(invocation("ssh", stemshell.OutcomeOK, "beta")))
	require.NoError(t, l.Record(invocation("ssh", stemshell.OutcomeOK, "alpha")))
	require.NoError(t, l.Record(invocation("ssh", stemshell.OutcomeOK, "alpha")))
	require.NoError(t, l.Record(invocation("ssh", stemshell.OutcomeOK, "gamma")))
	require.NoError(t, l.Record(invocation("ssh", stemshell.OutcomeFailed, "delta")))
	require.NoError(t, l.Record(invocation("scp", stemshell.OutcomeOK, "alpha")))

	args, err := l.ArgumentsByFrequency("ssh", "")
	require.NoError(t, err)
	require.Len(t, args, 3)
	assert.Equal(t, "alpha", args[0])
	assert.ElementsMatch(t, []string{"alpha", "beta", "gamma"}, args)

	args, err = l.ArgumentsByFrequency("ssh", "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma"}, args)

	assert.Equal(t, []string{"alpha"}, l.Completer("scp").Complete(nil, "a"))
	assert.Empty(t, l.Completer("unknown").Complete(nil, ""))
}

func TestTrim(t *testing.T) {
	l, _ := openTestLog(t)
	defer l.Close()

	require.NoError(t, l.Record(invocation("cd", stemshell.OutcomeOK, "home")))
	require.NoError(t, l.Record(invocation("cd", stemshell.OutcomeOK, "home")))
	require.NoError(t, l.Record(invocation("cd", stemshell.OutcomeOK, "work")))
	require.NoError(t, l.Record(invocation("ls", stemshell.OutcomeOK, "-a")))

	require.NoError(t, l.Trim(1))

	args, err := l.ArgumentsByFrequency("cd", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, args)

	args, err = l.ArgumentsByFrequency("ls", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"-a"}, args)
}

func TestRecordAsShellRecorder(t *testing.T) {
	l, _ := openTestLog(t)
	defer l.Close()

	var recorder stemshell.Recorder = l
	assert.NoError(t, recorder.Record(invocation("help", stemshell.OutcomeHelp)))
}

func TestOpenFailsWhenParentIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := Open(filepath.Join(file, "audit.db"))
	assert.Error(t, err)
}
