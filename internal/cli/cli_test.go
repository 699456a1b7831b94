package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/coolingoff/internal/application/sweep"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/config"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/lock"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMin float64
		wantMax *float64
		days    int
		wantErr bool
	}{
		{"bounded", "0:1000:1", 0, ptr(1000), 1, false},
		{"open upper bound", "1000::7", 1000, nil, 7, false},
		{"spaces", " 10 : 20 : 3 ", 10, ptr(20), 3, false},
		{"too few parts", "0:1000", 0, nil, 0, true},
		{"bad min", "x:10:1", 0, nil, 0, true},
		{"bad max", "0:y:1", 0, nil, 0, true},
		{"bad days", "0:10:z", 0, nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRange(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, r.MinAmount)
			assert.Equal(t, tt.wantMax, r.MaxAmount)
			assert.Equal(t, tt.days, r.CoolingDays)
		})
	}
}

func TestParseRanges_KeepsOrder(t *testing.T) {
	ranges, err := ParseRanges([]string{"500::9", "0:1000:2"})
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, 9, ranges[0].CoolingDays)
	assert.Equal(t, 2, ranges[1].CoolingDays)

	_, err = ParseRanges([]string{"0:1:1", "bad"})
	assert.Error(t, err)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMatchCommand(t *testing.T) {
	t.Run("english reasons", func(t *testing.T) {
		out, err := run(t, "match", "Видеоигры", "игры", "xyz", "--lang", "en")
		require.NoError(t, err)
		assert.Contains(t, out, "Category: Видеоигры")
		assert.Contains(t, out, " 85  игры")
		assert.Contains(t, out, "nearly identical")
		assert.NotContains(t, out, "xyz")
	})

	t.Run("no matches", func(t *testing.T) {
		out, err := run(t, "match", "кофе", "abcdefgh")
		require.NoError(t, err)
		assert.Contains(t, out, "No similar blacklisted categories.")
	})

	t.Run("requires a blacklist", func(t *testing.T) {
		_, err := run(t, "match", "кофе")
		assert.Error(t, err)
	})
}

func TestResolveCommand(t *testing.T) {
	out, err := run(t, "resolve", "2500", "--range", "0:1000:1", "--range", "1000::7")
	require.NoError(t, err)
	assert.Contains(t, out, "Price: 2500.00 | Cooling: 7 days")

	out, err = run(t, "resolve", "2500")
	require.NoError(t, err)
	assert.Contains(t, out, "Cooling: 1 days")

	_, err = run(t, "resolve", "abc")
	assert.Error(t, err)

	_, err = run(t, "resolve", "10", "--range", "nope")
	assert.Error(t, err)
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "coolingoff.db")
	yaml := fmt.Sprintf("storage:\n  database_path: %s\nobservability:\n  logging:\n    level: error\n", dbPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o600))

	out, err := run(t, "sweep", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "coolingoff: sweep")
	assert.Contains(t, out, "Summary: Run=1 Due=0 Sent=0 Skipped=0 Errors=0")

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "sweep should create the database")
}

func TestNewLocker(t *testing.T) {
	logger := testLogger()

	t.Run("local by default", func(t *testing.T) {
		cfg := config.Default()
		cfg.Sweep.Lock = ""
		l, closeFn, err := NewLocker(t.Context(), cfg, logger)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &lock.Local{}, l)
	})

	t.Run("unknown lock", func(t *testing.T) {
		cfg := config.Default()
		cfg.Sweep.Lock = "zookeeper"
		_, _, err := NewLocker(t.Context(), cfg, logger)
		assert.Error(t, err)
	})

	t.Run("bad ttl", func(t *testing.T) {
		cfg := config.Default()
		cfg.Sweep.Lock = "redis"
		cfg.Sweep.LockTTL = "soon"
		_, _, err := NewLocker(t.Context(), cfg, logger)
		assert.Error(t, err)
	})
}

func TestPrintSweepReport(t *testing.T) {
	var buf bytes.Buffer
	PrintSweepReport(&buf, &sweep.Report{
		RunID:             3,
		PurchasesDue:      2,
		NotificationsSent: 1,
		Skipped:           1,
		Notifications: []sweep.Notification{
			{Username: "alice", PurchaseName: "Lamp", PurchasePrice: 1500, PurchaseCategory: "Дом"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Summary: Run=3 Due=2 Sent=1 Skipped=1 Errors=0")
	assert.Contains(t, out, "alice: ")
	assert.Contains(t, out, "Lamp")
}

func ptr(v float64) *float64 { return &v }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
