// Package sde reads the EVE Static Data Export (SDE) from its SQLite dump.
//
// The store is opened read-only and exposes only the flat lookups the
// extraction needs: the market group tree, the type catalog, and the
// manufacturing/reaction recipe relations. Invention and every other
// industry activity are filtered out at the query level, so callers never
// see them.
//
// The expected schema is the fuzzwork SQLite conversion of the SDE:
//
//	invMarketGroups(marketGroupID, parentGroupID, marketGroupName)
//	invTypes(typeID, typeName, marketGroupID)
//	industryActivityProducts(typeID, activityID, productTypeID, quantity)
//	industryActivityMaterials(typeID, activityID, materialTypeID, quantity)
//
// In the recipe tables typeID is the blueprint (or reaction formula) that
// acts as the recipe identifier.
package sde

// TypeID identifies an SDE type (ship, material, blueprint, ...).
type TypeID = int64

// Industry activity ids relevant to the extract.
const (
	ActivityManufacturing = 1
	ActivityReaction      = 11
)

// ShipMarketGroup is the market group id of the "Ship" root.
const ShipMarketGroup int64 = 4

// DefaultPath is where the SDE dump is expected relative to the working directory.
const DefaultPath = "data/sde.sqlite"

// Type is an entry of the type catalog.
type Type struct {
	ID            TypeID
	Name          string
	MarketGroupID int64
}

// MarketGroup is a node of the market group tree. ParentID is nil for roots.
type MarketGroup struct {
	ID       int64
	Name     string
	ParentID *int64
}

// Recipe associates a product with the blueprint that builds it.
type Recipe struct {
	ID        TypeID // blueprint or reaction formula type id
	ProductID TypeID
	Quantity  int64 // units produced per run
	Activity  int
}

// Material is one input of a recipe.
type Material struct {
	TypeID   TypeID
	Quantity int64
}
