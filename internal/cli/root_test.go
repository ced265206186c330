package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seasonFixture = "../seed/testdata/season.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReport_MarkdownFromSeed(t *testing.T) {
	out, err := execute(t, "report", "--championship", "gp-2024", "--seed", seasonFixture, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "# Championship Standings: gp-2024")
	assert.Contains(t, out, "| 1 | Red Racing | 40 | 2 | 1 |")
	assert.Contains(t, out, "| 2 | Blue Motorsport | 38 | 2 | 1 |")
	assert.Contains(t, out, "| R1 Sakhir | R2 Jeddah |")
}

func TestReport_CSVFromSeed(t *testing.T) {
	out, err := execute(t, "report", "--championship", "gp-2024", "--seed", seasonFixture, "--format", "csv", "--log-level", "error")
	require.NoError(t, err)

	assert.Equal(t,
		"position,team_id,team_name,team_display_name,total_points,races_scored,wins\n"+
			"1,red,red,Red Racing,40,2,1\n"+
			"2,blue,blue,Blue Motorsport,38,2,1\n"+
			"3,green,green,Green GP,15,1,0\n",
		out)
}

func TestReport_Errors(t *testing.T) {
	_, err := execute(t, "report", "--seed", seasonFixture)
	assert.ErrorContains(t, err, "--championship")

	_, err = execute(t, "report", "--championship", "gp-2024", "--seed", seasonFixture, "--format", "pdf")
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, "report", "--championship", "nope", "--seed", seasonFixture, "--log-level", "error")
	assert.ErrorContains(t, err, "not found")
}

func TestMigrate_RequiresDSN(t *testing.T) {
	_, err := execute(t, "migrate")
	assert.ErrorContains(t, err, "postgres_dsn")
}

func TestVerify_Seed(t *testing.T) {
	out, err := execute(t, "verify", "--championship", "gp-2024", "--seed", seasonFixture, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "results: 6  matched: 6  divergent: 0  repaired: 0\n", out)
}
