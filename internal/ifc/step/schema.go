package step

import (
	"strings"

	"github.com/spboyer/ifccheck/internal/ifc"
)

// Schema identifies the IFC release a file declares in FILE_SCHEMA.
type Schema string

const (
	SchemaIFC2X3  Schema = "IFC2X3"
	SchemaIFC4    Schema = "IFC4"
	SchemaIFC4X3  Schema = "IFC4X3"
	SchemaUnknown Schema = ""
)

// ParseSchema normalises a FILE_SCHEMA identifier such as "IFC4X3_ADD2".
func ParseSchema(id string) Schema {
	id = strings.ToUpper(strings.TrimSpace(id))
	switch {
	case strings.HasPrefix(id, "IFC2X3"):
		return SchemaIFC2X3
	case strings.HasPrefix(id, "IFC4X3"):
		return SchemaIFC4X3
	case strings.HasPrefix(id, "IFC4"):
		return SchemaIFC4
	default:
		return SchemaUnknown
	}
}

var (
	rootAttrs    = []string{ifc.AttrGlobalID, "OwnerHistory", ifc.AttrName, "Description"}
	objectAttrs  = append(clone(rootAttrs), "ObjectType")
	productAttrs = append(clone(objectAttrs), "ObjectPlacement", "Representation")
	spatialAttrs = append(clone(productAttrs), ifc.AttrLongName)
	structAttrs  = append(clone(spatialAttrs), "CompositionType")
)

// layout is the positional attribute list for one entity type.
type layout struct {
	name  string
	attrs []string
}

// layouts maps upper-case STEP type names to their attribute layout. Only
// the spatial hierarchy is described; other IfcRoot subtypes fall back to
// rootAttrs.
var layouts = map[Schema]map[string]layout{
	SchemaIFC2X3: {
		"IFCPROJECT":        {ifc.TypeProject, append(clone(objectAttrs), ifc.AttrLongName, "Phase", "RepresentationContexts", "UnitsInContext")},
		"IFCSITE":           {ifc.TypeSite, append(clone(structAttrs), "RefLatitude", "RefLongitude", "RefElevation", "LandTitleNumber", "SiteAddress")},
		"IFCBUILDING":       {ifc.TypeBuilding, append(clone(structAttrs), "ElevationOfRefHeight", "ElevationOfTerrain", "BuildingAddress")},
		"IFCBUILDINGSTOREY": {ifc.TypeBuildingStorey, append(clone(structAttrs), "Elevation")},
		"IFCSPACE":          {ifc.TypeSpace, append(clone(structAttrs), "InteriorOrExteriorSpace", "ElevationWithFlooring")},
		"IFCZONE":           {ifc.TypeZone, clone(objectAttrs)},
	},
	SchemaIFC4: {
		"IFCPROJECT":        {ifc.TypeProject, append(clone(objectAttrs), ifc.AttrLongName, "Phase", "RepresentationContexts", "UnitsInContext")},
		"IFCSITE":           {ifc.TypeSite, append(clone(structAttrs), "RefLatitude", "RefLongitude", "RefElevation", "LandTitleNumber", "SiteAddress")},
		"IFCBUILDING":       {ifc.TypeBuilding, append(clone(structAttrs), "ElevationOfRefHeight", "ElevationOfTerrain", "BuildingAddress")},
		"IFCBUILDINGSTOREY": {ifc.TypeBuildingStorey, append(clone(structAttrs), "Elevation")},
		"IFCSPACE":          {ifc.TypeSpace, append(clone(structAttrs), "PredefinedType", "ElevationWithFlooring")},
		"IFCZONE":           {ifc.TypeZone, append(clone(objectAttrs), ifc.AttrLongName)},
	},
}

func init() {
	// IFC4X3 keeps the IFC4 layout for the spatial hierarchy.
	layouts[SchemaIFC4X3] = layouts[SchemaIFC4]
}

// lookupLayout returns the layout for typeName. Unknown schemas use IFC4.
func lookupLayout(schema Schema, typeName string) (layout, bool) {
	table, ok := layouts[schema]
	if !ok {
		table = layouts[SchemaIFC4]
	}
	l, ok := table[strings.ToUpper(typeName)]
	return l, ok
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
