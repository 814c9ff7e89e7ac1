package reporting

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spboyer/ifccheck/internal/checks"
	"github.com/spboyer/ifccheck/internal/runner"
)

// The JUnit types below cover what a compliance report needs: rule runs as
// suites and result records as cases. A run that cannot finish aborts the
// whole check, so no case is ever reported as an error or skipped.
type (
	// JUnitTestSuites is the document root, named after the run ID.
	JUnitTestSuites struct {
		XMLName    xml.Name         `xml:"testsuites"`
		Name       string           `xml:"name,attr,omitempty"`
		Tests      int              `xml:"tests,attr"`
		Failures   int              `xml:"failures,attr"`
		TestSuites []JUnitTestSuite `xml:"testsuite"`
	}

	// JUnitTestSuite is one rule run against one model.
	JUnitTestSuite struct {
		Name       string          `xml:"name,attr"`
		Tests      int             `xml:"tests,attr"`
		Failures   int             `xml:"failures,attr"`
		Timestamp  string          `xml:"timestamp,attr"`
		Properties []JUnitProperty `xml:"properties>property,omitempty"`
		TestCases  []JUnitTestCase `xml:"testcase"`
	}

	// JUnitTestCase is one result record. Passing summary rows carry their
	// comment as system-out.
	JUnitTestCase struct {
		Name      string        `xml:"name,attr"`
		Classname string        `xml:"classname,attr"`
		Failure   *JUnitFailure `xml:"failure,omitempty"`
		SystemOut string        `xml:"system-out,omitempty"`
	}

	// JUnitFailure describes a non-compliant record.
	JUnitFailure struct {
		Message string `xml:"message,attr"`
		Type    string `xml:"type,attr"`
		Body    string `xml:",chardata"`
	}

	JUnitProperty struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value,attr"`
	}
)

// ConvertToJUnit converts a report to JUnit XML form. Each model and rule
// pair becomes a suite and each record a test case.
func ConvertToJUnit(report *runner.Report) *JUnitTestSuites {
	suites := &JUnitTestSuites{Name: report.RunID}

	for _, m := range report.Models {
		for _, rr := range m.Rules {
			suite := convertRule(report, m, rr)
			suites.Tests += suite.Tests
			suites.Failures += suite.Failures
			suites.TestSuites = append(suites.TestSuites, suite)
		}
	}
	return suites
}

func convertRule(report *runner.Report, m runner.ModelReport, rr runner.RuleReport) JUnitTestSuite {
	model := filepath.Base(m.Path)
	suite := JUnitTestSuite{
		Name:      fmt.Sprintf("%s/%s", model, rr.Rule),
		Timestamp: report.Timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "model", Value: m.Path},
			{Name: "rule", Value: rr.Rule},
			{Name: "cached", Value: fmt.Sprintf("%t", rr.Cached)},
		},
	}
	if m.Schema != "" {
		suite.Properties = append(suite.Properties, JUnitProperty{Name: "schema", Value: m.Schema})
	}

	for _, r := range rr.Results {
		tc := convertResult(model+"."+rr.Rule, r)
		suite.Tests++
		if tc.Failure != nil {
			suite.Failures++
		}
		suite.TestCases = append(suite.TestCases, tc)
	}
	return suite
}

func convertResult(classname string, r checks.Result) JUnitTestCase {
	name := r.ElementName
	if r.ElementID != nil {
		name = fmt.Sprintf("%s %s (%s)", r.ElementType, r.ElementName, *r.ElementID)
	}

	tc := JUnitTestCase{
		Name:      name,
		Classname: classname,
	}
	if r.Passed() {
		if r.IsSummary() {
			tc.SystemOut = deref(r.Comment)
		}
		return tc
	}

	tc.Failure = &JUnitFailure{
		Message: fmt.Sprintf("expected %s, got %s", r.RequiredValue, r.ActualValue),
		Type:    "ComplianceFailure",
		Body:    deref(r.Comment),
	}
	return tc
}

// WriteJUnitXML writes the JUnit XML form of report to w.
func WriteJUnitXML(w io.Writer, report *runner.Report) error {
	data, err := xml.MarshalIndent(ConvertToJUnit(report), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	output = append(output, '\n')
	_, err = w.Write(output)
	return err
}
