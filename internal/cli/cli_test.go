package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const eventsCSV = `session_id,user_id,event_type,conversion,revenue,device,channel,experiment_group,timestamp
c1,u1,page_view,0,0,mobile,organic,control,2025-03-01 10:00:00
c1,u1,purchase,1,40,mobile,organic,control,2025-03-01 10:05:00
c2,u2,page_view,0,0,desktop,paid,control,2025-03-01 11:00:00
c3,u3,page_view,0,0,desktop,paid,control,2025-03-02 09:00:00
c4,u4,page_view,0,0,mobile,email,control,2025-03-02 12:00:00
t1,u5,page_view,0,0,mobile,organic,treatment,2025-03-01 10:30:00
t1,u5,add_to_cart,0,0,mobile,organic,treatment,2025-03-01 10:31:00
t1,u5,purchase,1,60,mobile,organic,treatment,2025-03-01 10:35:00
t2,u6,page_view,0,0,desktop,paid,treatment,2025-03-02 08:00:00
t2,u6,purchase,1,25.5,desktop,paid,treatment,2025-03-02 08:10:00
t3,u7,page_view,0,0,mobile,email,treatment,2025-03-03 15:00:00
t3,u7,purchase,1,30,mobile,email,treatment,2025-03-03 15:20:00
t4,u8,page_view,0,0,tablet,organic,treatment,2025-03-03 16:00:00
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd(zap.NewNop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestABTestCommand(t *testing.T) {
	data := writeFile(t, "events.csv", eventsCSV)

	out, err := execute(t, "--data", data, "abtest")
	require.NoError(t, err)

	assert.Contains(t, out, "control_rate: 0.25\n")
	assert.Contains(t, out, "treatment_rate: 0.75\n")
	assert.Contains(t, out, "lift_percent: 200\n")
	assert.Contains(t, out, "statistically_significant: false\n")
	assert.Contains(t, out, "control 1/4, treatment 3/4")
}

func TestABTestCommand_Window(t *testing.T) {
	data := writeFile(t, "events.csv", eventsCSV)

	out, err := execute(t, "--data", data, "abtest", "--start", "2025-03-01", "--end", "2025-03-01", "--alpha", "0.1")
	require.NoError(t, err)
	assert.Contains(t, out, "control_rate: 0.5\n")
	assert.Contains(t, out, "treatment_rate: 1\n")
	assert.Contains(t, out, "alpha 0.1")
}

func TestABTestCommand_Errors(t *testing.T) {
	data := writeFile(t, "events.csv", eventsCSV)

	t.Run("no data", func(t *testing.T) {
		_, err := execute(t, "abtest")
		assert.ErrorIs(t, err, errNoData)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := execute(t, "--data", data, "abtest", "--start", "March 1st")
		assert.ErrorContains(t, err, "--start: invalid date")
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := execute(t, "--data", data, "abtest", "--start", "2025-03-03", "--end", "2025-03-01")
		assert.ErrorContains(t, err, "is before start")
	})

	t.Run("bad alpha", func(t *testing.T) {
		_, err := execute(t, "--data", data, "abtest", "--alpha", "1.5")
		assert.ErrorContains(t, err, "a/b test")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "--data", filepath.Join(t.TempDir(), "nope.csv"), "abtest")
		assert.ErrorContains(t, err, "open events file")
	})
}

func TestReportCommand(t *testing.T) {
	data := writeFile(t, "events.csv", eventsCSV)

	out, err := execute(t, "--data", data, "report")
	require.NoError(t, err)

	assert.Contains(t, out, "1. KEY METRICS")
	assert.Contains(t, out, "Total Sessions           : 8")
	assert.Contains(t, out, "Conversions              : 4")
	assert.Contains(t, out, "Total Revenue            : $155.50")
	assert.Contains(t, out, "tablet")
	assert.Contains(t, out, "email")
	assert.Contains(t, out, "2025-03-01")
	assert.Contains(t, out, "Report generation complete!")
}

func TestRiceCommand(t *testing.T) {
	t.Run("default backlog", func(t *testing.T) {
		out, err := execute(t, "rice")
		require.NoError(t, err)
		assert.Contains(t, out, "One-Click Checkout")
		assert.Contains(t, out, "7200.00")
	})

	t.Run("from file", func(t *testing.T) {
		backlog := writeFile(t, "backlog.csv", "name,reach,impact,confidence,effort\nWishlist,1000,2,50,1\nReferral Codes,6000,1,80,3\n")

		out, err := execute(t, "rice", "--file", backlog)
		require.NoError(t, err)
		assert.Less(t, strings.Index(out, "Referral Codes"), strings.Index(out, "Wishlist"))
		assert.Contains(t, out, "1600.00")
		assert.NotContains(t, out, "One-Click Checkout")
	})

	t.Run("invalid feature", func(t *testing.T) {
		backlog := writeFile(t, "backlog.csv", "name,reach,impact,confidence,effort\nWishlist,1000,7,50,1\n")

		_, err := execute(t, "rice", "-f", backlog)
		assert.ErrorContains(t, err, "invalid feature")
	})
}

func TestIngestCommand(t *testing.T) {
	data := writeFile(t, "events.csv", eventsCSV)
	db := filepath.Join(t.TempDir(), "events.db")

	out, err := execute(t, "--data", data, "--db", db, "ingest")
	require.NoError(t, err)
	assert.Contains(t, out, "loaded 13 events")

	out, err = execute(t, "--db", db, "abtest")
	require.NoError(t, err, "a file database keeps events between runs")
	assert.Contains(t, out, "treatment_rate: 0.75\n")

	_, err = execute(t, "--db", db, "ingest")
	assert.ErrorIs(t, err, errNoData)
}

func TestParseDate(t *testing.T) {
	start, err := parseDate("2025-03-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), start)

	end, err := parseDate("2025-03-01", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 23, 59, 59, 0, time.UTC), end)

	ts, err := parseDate("2025-03-01T12:00:00+02:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), ts)
}
