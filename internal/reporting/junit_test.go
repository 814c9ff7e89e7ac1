package reporting

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spboyer/ifccheck/internal/checks"
	"github.com/spboyer/ifccheck/internal/runner"
	"github.com/spboyer/ifccheck/internal/utils"
)

func spaceRow(id, name string, passed bool) checks.Result {
	r := checks.Result{
		ElementID:     utils.Ptr(id),
		ElementType:   "IfcSpace",
		ElementName:   name,
		CheckStatus:   checks.StatusOf(passed),
		ActualValue:   name,
		RequiredValue: "Named space",
	}
	if !passed {
		r.ActualValue = "No name"
		r.Comment = utils.Ptr("IfcSpace must have a Name for identification")
	}
	return r
}

func summaryRow(n, unnamed int) checks.Result {
	return checks.Result{
		ElementType:   checks.ElementTypeSummary,
		ElementName:   "Space Name Check",
		CheckStatus:   checks.StatusOf(unnamed == 0),
		ActualValue:   strconv.Itoa(n),
		RequiredValue: "All spaces named",
		Comment:       utils.Ptr(fmt.Sprintf("Found %d space(s); %d unnamed", n, unnamed)),
	}
}

func newTestReport() *runner.Report {
	return &runner.Report{
		RunID:     "0b6f3c1e-2f0a-4d8e-9c57-3f5d8a1b2c4d",
		Timestamp: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		Models: []runner.ModelReport{
			{
				Path:   "models/office.ifc",
				Schema: "IFC4",
				Rules: []runner.RuleReport{{
					Rule: checks.SpaceNamingRule,
					Results: []checks.Result{
						spaceRow("2Vx3uYl5zBmeHHmHq7HnQF", "Lobby", true),
						spaceRow("3Vx3uYl5zBmeHHmHq7HnQG", "Space #11", false),
						summaryRow(2, 1),
					},
				}},
			},
			{
				Path: "models/annex.yaml",
				Rules: []runner.RuleReport{{
					Rule:   checks.SpaceNamingRule,
					Cached: true,
					Results: []checks.Result{
						spaceRow("1Vx3uYl5zBmeHHmHq7HnQH", "Kitchen", true),
						summaryRow(1, 0),
					},
				}},
			},
		},
	}
}

func TestConvertToJUnit(t *testing.T) {
	suites := ConvertToJUnit(newTestReport())

	assert.Equal(t, 5, suites.Tests)
	assert.Equal(t, 2, suites.Failures)
	require.Len(t, suites.TestSuites, 2)

	office := suites.TestSuites[0]
	assert.Equal(t, "office.ifc/check_spaces", office.Name)
	assert.Equal(t, 3, office.Tests)
	assert.Equal(t, 2, office.Failures)
	assert.Equal(t, "2025-06-15T12:00:00Z", office.Timestamp)
	assert.Contains(t, office.Properties, JUnitProperty{Name: "schema", Value: "IFC4"})
	assert.Contains(t, office.Properties, JUnitProperty{Name: "cached", Value: "false"})

	lobby := office.TestCases[0]
	assert.Equal(t, "IfcSpace Lobby (2Vx3uYl5zBmeHHmHq7HnQF)", lobby.Name)
	assert.Equal(t, "office.ifc.check_spaces", lobby.Classname)
	assert.Nil(t, lobby.Failure)

	unnamed := office.TestCases[1]
	require.NotNil(t, unnamed.Failure)
	assert.Equal(t, "ComplianceFailure", unnamed.Failure.Type)
	assert.Equal(t, "expected Named space, got No name", unnamed.Failure.Message)
	assert.Equal(t, "IfcSpace must have a Name for identification", unnamed.Failure.Body)

	summary := office.TestCases[2]
	assert.Equal(t, "Space Name Check", summary.Name)
	require.NotNil(t, summary.Failure)

	annex := suites.TestSuites[1]
	assert.Equal(t, 0, annex.Failures)
	assert.Contains(t, annex.Properties, JUnitProperty{Name: "cached", Value: "true"})
	for _, p := range annex.Properties {
		assert.NotEqual(t, "schema", p.Name)
	}
	assert.Equal(t, "Found 1 space(s); 0 unnamed", annex.TestCases[1].SystemOut)
}

func TestConvertToJUnit_EmptyReport(t *testing.T) {
	suites := ConvertToJUnit(&runner.Report{RunID: "r"})
	assert.Equal(t, 0, suites.Tests)
	assert.Empty(t, suites.TestSuites)
}

func TestWriteJUnitXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJUnitXML(&buf, newTestReport()))

	content := buf.String()
	assert.True(t, strings.HasPrefix(content, xml.Header))
	assert.Contains(t, content, `<testsuites name="0b6f3c1e-2f0a-4d8e-9c57-3f5d8a1b2c4d" tests="5" failures="2">`)
	assert.Contains(t, content, `<testsuite name="office.ifc/check_spaces" tests="3" failures="2"`)
	assert.NotContains(t, content, "errors=")
	assert.NotContains(t, content, "skipped")

	var parsed JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, 5, parsed.Tests)
	require.Len(t, parsed.TestSuites, 2)
	assert.Len(t, parsed.TestSuites[0].TestCases, 3)
}
