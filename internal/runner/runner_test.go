package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spboyer/ifccheck/internal/cache"
	"github.com/spboyer/ifccheck/internal/checks"
	"github.com/spboyer/ifccheck/internal/ifc"
)

const lobbyDoc = `entities:
  - id: 10
    type: IfcSpace
    global_id: 2Vx3uYl5zBmeHHmHq7HnQF
    Name: Lobby
    LongName: Main Lobby
`

const unnamedDoc = `entities:
  - id: 11
    type: IfcSpace
    global_id: 3Vx3uYl5zBmeHHmHq7HnQG
    Name: ""
  - id: 12
    type: IfcSpace
    global_id: 1Vx3uYl5zBmeHHmHq7HnQH
`

const stepDoc = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION((''),'2;1');
FILE_NAME('tiny.ifc','',(''),(''),'','','');
FILE_SCHEMA(('IFC2X3'));
ENDSEC;
DATA;
#1=IFCSPACE('2Vx3uYl5zBmeHHmHq7HnQF',$,'Kitchen',$,$,$,$,$,.ELEMENT.,.INTERNAL.,$);
ENDSEC;
END-ISO-10303-21;
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// countingChecker wraps the space rule and counts invocations.
type countingChecker struct {
	name  string
	calls atomic.Int32
	err   error
}

func (c *countingChecker) Name() string        { return c.name }
func (c *countingChecker) Description() string { return "counts calls" }
func (c *countingChecker) Check(m ifc.Model, opts checks.Options) ([]checks.Result, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return checks.CheckSpaces(m, opts)
}

func TestRun_MixedFormats(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "lobby.yaml", lobbyDoc),
		writeFile(t, dir, "tiny.ifc", stepDoc),
		writeFile(t, dir, "unnamed.yml", unnamedDoc),
	}

	report, err := New(checks.DefaultRegistry()).Run(context.Background(), paths)
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	assert.False(t, report.Timestamp.IsZero())

	require.Len(t, report.Models, 3)
	for i, p := range paths {
		assert.Equal(t, p, report.Models[i].Path)
		require.Len(t, report.Models[i].Rules, 1)
		assert.Equal(t, checks.SpaceNamingRule, report.Models[i].Rules[0].Rule)
	}

	assert.True(t, report.Models[0].Rules[0].Passed())
	assert.Equal(t, "IFC2X3", report.Models[1].Schema)
	assert.True(t, report.Models[1].Rules[0].Passed())
	assert.False(t, report.Models[2].Rules[0].Passed())

	totals := report.Totals()
	assert.Equal(t, Totals{Models: 3, RuleRuns: 3, FailedRuns: 1, Elements: 4, FailedElems: 2}, totals)
	assert.False(t, report.Passed())
}

func TestRun_PreservesOrderWithManyWorkers(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"e.yaml", "a.yaml", "d.yaml", "b.yaml", "c.yaml", "f.yaml"} {
		paths = append(paths, writeFile(t, dir, name, lobbyDoc))
	}

	report, err := New(checks.DefaultRegistry(), WithWorkers(3)).Run(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, report.Models, len(paths))
	for i, p := range paths {
		assert.Equal(t, p, report.Models[i].Path)
	}
	assert.True(t, report.Passed())
}

func TestRun_UnknownRule(t *testing.T) {
	_, err := New(checks.DefaultRegistry(), WithRules("check_doors")).Run(context.Background(), nil)
	require.ErrorIs(t, err, checks.ErrUnknownRule)
}

func TestRun_EmptyRegistry(t *testing.T) {
	_, err := New(checks.NewRegistry()).Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rules selected")
}

func TestRun_LoadError(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "ok.yaml", lobbyDoc),
		writeFile(t, dir, "broken.yaml", "entities: [oops"),
	}

	_, err := New(checks.DefaultRegistry()).Run(context.Background(), paths)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading")
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestRun_RuleError(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")

	reg := checks.NewRegistry()
	reg.MustRegister(&countingChecker{name: "explodes", err: boom})

	_, err := New(reg).Run(context.Background(), []string{writeFile(t, dir, "a.yaml", lobbyDoc)})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "running explodes")
}

func TestRun_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(checks.DefaultRegistry()).Run(ctx, []string{writeFile(t, dir, "a.yaml", lobbyDoc)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_PassesOptionsToRules(t *testing.T) {
	dir := t.TempDir()
	var seen checks.Options
	reg := checks.NewRegistry()
	reg.MustRegister(&optionsChecker{seen: &seen})

	opts := checks.Options{"strict": true}
	_, err := New(reg, WithOptions(opts)).Run(context.Background(), []string{writeFile(t, dir, "a.yaml", lobbyDoc)})
	require.NoError(t, err)
	assert.Equal(t, opts, seen)
}

type optionsChecker struct{ seen *checks.Options }

func (c *optionsChecker) Name() string        { return "options" }
func (c *optionsChecker) Description() string { return "records options" }
func (c *optionsChecker) Check(m ifc.Model, opts checks.Options) ([]checks.Result, error) {
	*c.seen = opts
	return checks.CheckSpaces(m, opts)
}

func TestRun_UsesCache(t *testing.T) {
	dir := t.TempDir()
	model := writeFile(t, dir, "lobby.yaml", lobbyDoc)

	rule := &countingChecker{name: checks.SpaceNamingRule}
	reg := checks.NewRegistry()
	reg.MustRegister(rule)

	var loads atomic.Int32
	loader := func(path string) (ifc.Model, string, error) {
		loads.Add(1)
		return LoadModel(path)
	}

	c := cache.New(filepath.Join(dir, ".cache"))
	r := New(reg, WithCache(c), WithLoader(loader))

	first, err := r.Run(context.Background(), []string{model})
	require.NoError(t, err)
	assert.False(t, first.Models[0].Rules[0].Cached)

	second, err := r.Run(context.Background(), []string{model})
	require.NoError(t, err)
	assert.True(t, second.Models[0].Rules[0].Cached)
	assert.Equal(t, first.Models[0].Rules[0].Results, second.Models[0].Rules[0].Results)

	assert.Equal(t, int32(1), rule.calls.Load())
	assert.Equal(t, int32(1), loads.Load(), "fully cached models are not parsed")

	// Editing the model invalidates its entry
	require.NoError(t, os.WriteFile(model, []byte(unnamedDoc), 0644))
	third, err := r.Run(context.Background(), []string{model})
	require.NoError(t, err)
	assert.False(t, third.Models[0].Rules[0].Cached)
	assert.False(t, third.Models[0].Rules[0].Passed())
	assert.Equal(t, int32(2), rule.calls.Load())
}

func TestRun_CachedRunKeepsSchema(t *testing.T) {
	dir := t.TempDir()
	model := writeFile(t, dir, "tiny.ifc", stepDoc)

	r := New(checks.DefaultRegistry(), WithCache(cache.New(filepath.Join(dir, ".cache"))))

	fresh, err := r.Run(context.Background(), []string{model})
	require.NoError(t, err)
	require.False(t, fresh.Models[0].Rules[0].Cached)

	cached, err := r.Run(context.Background(), []string{model})
	require.NoError(t, err)
	require.True(t, cached.Models[0].Rules[0].Cached)

	assert.Equal(t, "IFC2X3", fresh.Models[0].Schema)
	assert.Equal(t, fresh.Models[0].Schema, cached.Models[0].Schema)
}

func TestRun_ProgressEvents(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.yaml", lobbyDoc),
		writeFile(t, dir, "b.yaml", unnamedDoc),
	}

	var mu sync.Mutex
	counts := map[EventType]int{}
	failed := map[string]bool{}

	r := New(checks.DefaultRegistry())
	r.OnProgress(func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		counts[e.EventType]++
		assert.Equal(t, 2, e.TotalModels)
		if e.EventType == EventModelComplete && !e.Passed {
			failed[filepath.Base(e.Model)] = true
		}
	})

	_, err := r.Run(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, 2, counts[EventModelStart])
	assert.Equal(t, 2, counts[EventRuleComplete])
	assert.Equal(t, 2, counts[EventModelComplete])
	assert.Equal(t, map[string]bool{"b.yaml": true}, failed)
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()

	m, schema, err := LoadModel(writeFile(t, dir, "tiny.ifc", stepDoc))
	require.NoError(t, err)
	assert.Equal(t, "IFC2X3", schema)
	spaces, err := m.ByType(ifc.TypeSpace)
	require.NoError(t, err)
	assert.Len(t, spaces, 1)

	m, schema, err = LoadModel(writeFile(t, dir, "doc.JSON", `{"entities":[{"id":1,"type":"IfcSpace","Name":"A"}]}`))
	require.NoError(t, err)
	assert.Empty(t, schema)
	spaces, err = m.ByType(ifc.TypeSpace)
	require.NoError(t, err)
	assert.Len(t, spaces, 1)

	_, _, err = LoadModel(writeFile(t, dir, "notes.txt", "hello"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model file")
}

func TestIsModelFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.ifc":      true,
		"a.IFCZIP":   true,
		"a.yaml":     true,
		"a.yml":      true,
		"a.json":     true,
		"a.txt":      false,
		"ifc":        false,
		"dir/a.ifc~": false,
	} {
		assert.Equal(t, want, IsModelFile(path), path)
	}
}
