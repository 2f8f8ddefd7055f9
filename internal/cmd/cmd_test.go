package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-park/internal/config"
)

// resetFlags puts every flag back to its default so commands can be executed
// more than once in a test binary.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

// isolate runs the test in an empty directory with its own lock file.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CARPARK_LOCK_PATH", filepath.Join(dir, "carpark.lock"))
	return dir
}

func TestVersion(t *testing.T) {
	out, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "carpark dev\n", out)
}

func TestFee(t *testing.T) {
	isolate(t)

	out, err := executeCommand(t, "", "fee",
		"--parked-at", "2025-03-01T09:00:00Z",
		"--at", "2025-03-01T10:30:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "Parked for:     1h 30m 0s")
	assert.Contains(t, out, "Billable hours: 2")
	assert.Contains(t, out, "Fee:            $12")

	out, err = executeCommand(t, "", "fee",
		"--parked-at", "2025-03-01T09:00:00Z",
		"--at", "2025-03-01T09:00:01Z",
		"--rate", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "Fee:            $8")
}

func TestFeeErrors(t *testing.T) {
	isolate(t)

	_, err := executeCommand(t, "", "fee")
	assert.Error(t, err, "--parked-at is required")

	_, err = executeCommand(t, "", "fee", "--parked-at", "yesterday")
	assert.ErrorContains(t, err, "invalid --parked-at")

	_, err = executeCommand(t, "", "fee", "--parked-at", "2025-03-01T09:00:00Z", "--rate", "-1")
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestConfigShow(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "lot.toml")
	require.NoError(t, os.WriteFile(path, []byte("[carpark]\nstaff_slots = 3\n"), 0644))

	out, err := executeCommand(t, "", "config", "show", "--config", path, "--rate", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "staff_slots = 3")
	assert.Contains(t, out, "hourly_rate = 9")
}

func TestConsoleScripted(t *testing.T) {
	dir := isolate(t)
	textfile := filepath.Join(dir, "carpark.prom")

	script := strings.Join([]string{
		"5", "S01", "T1234", "Alice", "yes",
		"7", "T1234",
		"9",
	}, "\n") + "\n"

	out, err := executeCommand(t, script,
		"--staff", "1", "--visitor", "2", "--metrics-textfile", textfile)
	require.NoError(t, err)

	assert.Contains(t, out, "Car park created with 1 staff slots and 2 visitor slots.")
	assert.Contains(t, out, "Select option: 5\n", "piped input is echoed")
	assert.Contains(t, out, "Car removed from slot S01")
	assert.Contains(t, out, "Program end!")

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `carpark_departures_total{type="staff"} 1`)
	assert.Contains(t, string(data), `carpark_slots{occupied="false",type="visitor"} 2`)
}

func TestConsoleAlreadyRunning(t *testing.T) {
	dir := isolate(t)

	held := flock.New(filepath.Join(dir, "carpark.lock"))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	_, err = executeCommand(t, "9\n", "--staff", "0", "--visitor", "0")
	assert.True(t, errors.Is(err, ErrAlreadyRunning))
}

func TestConsoleInvalidFlags(t *testing.T) {
	isolate(t)

	_, err := executeCommand(t, "", "--staff", "120")
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))

	_, err = executeCommand(t, "", "--log-level", "chatty")
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}
