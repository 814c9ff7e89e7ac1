package step

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spboyer/ifccheck/internal/ifc"
)

const sampleIFC = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('ViewDefinition [CoordinationView]'),'2;1');
FILE_NAME('office.ifc','2024-05-01T10:00:00',('Architect'),('Studio'),'IfcOpenShell','Authoring','');
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
/* owner history and placement are stubs */
#1=IFCPROJECT('0YvctVUKr0kugbFTf53O9L',$,'Office',$,$,$,$,(#20),#30);
#5=IFCBUILDINGSTOREY('1kTvXnbbzCWw8lcMd1dR4o',$,'Level 1',$,$,$,$,'Ground Floor',.ELEMENT.,0.);
#10=IFCSPACE('2Vx3uYl5zBmeHHmHq7HnQF',$,'Lobby',$,$,#40,$,'Main Lobby',.ELEMENT.,.INTERNAL.,$);
#11=IFCSPACE('3Vx3uYl5zBmeHHmHq7HnQG',$,'',$,$,#40,$,$,.ELEMENT.,.INTERNAL.,$);
#12=IFCSPACE('1Vx3uYl5zBmeHHmHq7HnQH',$,$,$,$,#40,$,'Back Office',.ELEMENT.,.INTERNAL.,$);
#13=IFCSPACE('0Vx3uYl5zBmeHHmHq7HnQI',$,'Caf\X2\00E9\X0\',$,$,#40,$,.T.,.ELEMENT.,.INTERNAL.,-1.5E-2);
#20=IFCGEOMETRICREPRESENTATIONCONTEXT($,'Model',3,1.E-05,#41,$);
#21=IFCWALL('2aBcDeFgHiJkLmNoPqRsTu',$,'Wall ''A''',$,$,$,$,$,$);
#30=IFCUNITASSIGNMENT((#31));
#31=(IFCNAMEDUNIT(*,.LENGTHUNIT.)IFCSIUNIT(.MILLI.,.METRE.));
#40=IFCLOCALPLACEMENT($,$);
#41=IFCPROPERTYSINGLEVALUE('Area',$,IFCAREAMEASURE(12.5),$);
ENDSEC;
END-ISO-10303-21;
`

func TestRead_Header(t *testing.T) {
	doc, err := Read("office.ifc", strings.NewReader(sampleIFC))
	require.NoError(t, err)

	assert.Equal(t, SchemaIFC4, doc.Header.Schema)
	assert.Equal(t, "IFC4", doc.Header.SchemaID)
	assert.Equal(t, "office.ifc", doc.Header.FileName)
	assert.Equal(t, []string{"ViewDefinition [CoordinationView]"}, doc.Header.Description)
}

func TestRead_Spaces(t *testing.T) {
	doc, err := Read("office.ifc", strings.NewReader(sampleIFC))
	require.NoError(t, err)

	spaces, err := doc.Model.ByType(ifc.TypeSpace)
	require.NoError(t, err)
	require.Len(t, spaces, 4)

	ids := []int{spaces[0].ID, spaces[1].ID, spaces[2].ID, spaces[3].ID}
	assert.Equal(t, []int{10, 11, 12, 13}, ids)

	lobby := spaces[0]
	assert.Equal(t, ifc.TypeSpace, lobby.Type)
	assert.Equal(t, "2Vx3uYl5zBmeHHmHq7HnQF", lobby.GlobalID)
	name, ok := lobby.StringAttr(ifc.AttrName)
	require.True(t, ok)
	assert.Equal(t, "Lobby", name)
	longName, ok := lobby.StringAttr(ifc.AttrLongName)
	require.True(t, ok)
	assert.Equal(t, "Main Lobby", longName)
	assert.Equal(t, Ref(40), lobby.Attributes["ObjectPlacement"])
	assert.Equal(t, Enum("INTERNAL"), lobby.Attributes["PredefinedType"])

	name, ok = spaces[1].StringAttr(ifc.AttrName)
	require.True(t, ok)
	assert.Equal(t, "", name)
	v, exists := spaces[1].Attr(ifc.AttrLongName)
	assert.True(t, exists)
	assert.Nil(t, v)

	v, exists = spaces[2].Attr(ifc.AttrName)
	assert.True(t, exists)
	assert.Nil(t, v)

	cafe := spaces[3]
	name, _ = cafe.StringAttr(ifc.AttrName)
	assert.Equal(t, "Café", name)
	_, ok = cafe.StringAttr(ifc.AttrLongName)
	assert.False(t, ok, "enum LongName is not a string")
	assert.InDelta(t, -0.015, cafe.Attributes["ElevationWithFlooring"], 1e-9)
}

func TestRead_OtherEntities(t *testing.T) {
	doc, err := Read("office.ifc", strings.NewReader(sampleIFC))
	require.NoError(t, err)

	storeys, err := doc.Model.ByType(ifc.TypeBuildingStorey)
	require.NoError(t, err)
	require.Len(t, storeys, 1)
	assert.Equal(t, "Level 1", storeys[0].Attributes[ifc.AttrName])
	assert.Equal(t, 0.0, storeys[0].Attributes["Elevation"])

	walls, err := doc.Model.ByType("IFCWALL")
	require.NoError(t, err)
	require.Len(t, walls, 1)
	assert.Equal(t, "Wall 'A'", walls[0].Attributes[ifc.AttrName])
	_, exists := walls[0].Attr(ifc.AttrLongName)
	assert.False(t, exists, "IfcWall carries no LongName")

	ctx, ok := doc.Model.ByID(20)
	require.True(t, ok)
	assert.Empty(t, ctx.Attributes)

	_, ok = doc.Model.ByID(31)
	assert.False(t, ok, "complex instances are skipped")

	_, ok = doc.Model.ByID(41)
	assert.True(t, ok)
}

func TestRead_IFC2X3Layout(t *testing.T) {
	src := strings.Replace(sampleIFC, "FILE_SCHEMA(('IFC4'));", "FILE_SCHEMA(('IFC2X3'));", 1)
	doc, err := Read("office.ifc", strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, SchemaIFC2X3, doc.Header.Schema)

	spaces, err := doc.Model.ByType(ifc.TypeSpace)
	require.NoError(t, err)
	assert.Equal(t, Enum("INTERNAL"), spaces[0].Attributes["InteriorOrExteriorSpace"])
	_, exists := spaces[0].Attr("PredefinedType")
	assert.False(t, exists)
}

func TestRead_SyntaxError(t *testing.T) {
	src := strings.Replace(sampleIFC, "#10=IFCSPACE(", "#10=IFCSPACE((", 1)
	_, err := Read("broken.ifc", strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing broken.ifc")
}

func TestRead_DuplicateInstance(t *testing.T) {
	src := strings.Replace(sampleIFC, "#11=IFCSPACE(", "#10=IFCSPACE(", 1)
	_, err := Read("dup.ifc", strings.NewReader(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestOpen_FileAndArchive(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "office.ifc")
	require.NoError(t, os.WriteFile(plain, []byte(sampleIFC), 0644))

	doc, err := Open(plain)
	require.NoError(t, err)
	assert.Equal(t, 11, doc.Model.Len())

	archive := filepath.Join(dir, "office.ifczip")
	writeArchive(t, archive, map[string]string{"readme.txt": "hi", "office.ifc": sampleIFC})

	doc, err = Open(archive)
	require.NoError(t, err)
	assert.Equal(t, 11, doc.Model.Len())

	empty := filepath.Join(dir, "empty.ifczip")
	writeArchive(t, empty, map[string]string{"readme.txt": "hi"})
	_, err = Open(empty)
	require.ErrorIs(t, err, ErrNoModelInArchive)

	_, err = Open(filepath.Join(dir, "missing.ifc"))
	require.Error(t, err)
}

func writeArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}
