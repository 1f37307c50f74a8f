// Package sdetest builds small SDE SQLite dumps for tests.
package sdetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/shipyard/pkg/sde"
)

const schema = `
CREATE TABLE invMarketGroups (
  marketGroupID INTEGER PRIMARY KEY,
  parentGroupID INTEGER,
  marketGroupName TEXT
);
CREATE TABLE invTypes (
  typeID INTEGER PRIMARY KEY,
  typeName TEXT,
  marketGroupID INTEGER
);
CREATE TABLE industryActivityProducts (
  typeID INTEGER,
  activityID INTEGER,
  productTypeID INTEGER,
  quantity INTEGER
);
CREATE TABLE industryActivityMaterials (
  typeID INTEGER,
  activityID INTEGER,
  materialTypeID INTEGER,
  quantity INTEGER
);`

// Product is a row of industryActivityProducts.
type Product struct {
	Blueprint sde.TypeID
	Activity  int
	Product   sde.TypeID
	Quantity  int64
}

// Material is a row of industryActivityMaterials.
type Material struct {
	Blueprint sde.TypeID
	Activity  int
	Material  sde.TypeID
	Quantity  int64
}

// Fixture is the content of a test dump. Types with an empty name are
// stored with a NULL typeName.
type Fixture struct {
	Groups    []sde.MarketGroup
	Types     []sde.Type
	Products  []Product
	Materials []Material
}

// Write creates a dump at path with the fixture's rows.
func Write(t testing.TB, path string, f Fixture) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	exec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Exec(query, args...); err != nil {
			t.Fatalf("fixture exec %q: %v", query, err)
		}
	}

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) != "" {
			exec(stmt)
		}
	}
	for _, g := range f.Groups {
		exec(`INSERT INTO invMarketGroups VALUES (?, ?, ?)`, g.ID, g.ParentID, g.Name)
	}
	for _, ty := range f.Types {
		var name any = ty.Name
		if ty.Name == "" {
			name = nil
		}
		exec(`INSERT INTO invTypes VALUES (?, ?, ?)`, ty.ID, name, ty.MarketGroupID)
	}
	for _, p := range f.Products {
		exec(`INSERT INTO industryActivityProducts VALUES (?, ?, ?, ?)`, p.Blueprint, p.Activity, p.Product, p.Quantity)
	}
	for _, m := range f.Materials {
		exec(`INSERT INTO industryActivityMaterials VALUES (?, ?, ?, ?)`, m.Blueprint, m.Activity, m.Material, m.Quantity)
	}
}

// Open writes f to a temporary dump and opens it as a [sde.Store].
// The store is closed when the test ends.
func Open(t testing.TB, f Fixture) *sde.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sde.sqlite")
	Write(t, path, f)

	s, err := sde.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Parent returns a pointer to id, for MarketGroup.ParentID literals.
func Parent(id int64) *int64 { return &id }

// Scenario is the reference dataset: ship 100 (in group 4 > 10) is built by
// blueprint 500 from 2×200 and 3×300; 300 is built by 600 from 1×400;
// 200 and 400 are raw materials. Group 99 is an unrelated tree holding 700.
func Scenario() Fixture {
	return Fixture{
		Groups: []sde.MarketGroup{
			{ID: 4, Name: "Ship"},
			{ID: 10, Name: "Frigates", ParentID: Parent(4)},
			{ID: 11, Name: "Minmatar", ParentID: Parent(10)},
			{ID: 99, Name: "Materials"},
		},
		Types: []sde.Type{
			{ID: 100, Name: "Rifter", MarketGroupID: 11},
			{ID: 200, Name: "Tritanium", MarketGroupID: 99},
			{ID: 300, Name: "Hull Plate", MarketGroupID: 99},
			{ID: 400, Name: "Pyerite", MarketGroupID: 99},
			{ID: 500, Name: "Rifter Blueprint"},
			{ID: 600, Name: "Hull Plate Blueprint"},
			{ID: 700, Name: "Veldspar", MarketGroupID: 99},
		},
		Products: []Product{
			{Blueprint: 500, Activity: sde.ActivityManufacturing, Product: 100, Quantity: 1},
			{Blueprint: 600, Activity: sde.ActivityManufacturing, Product: 300, Quantity: 1},
		},
		Materials: []Material{
			{Blueprint: 500, Activity: sde.ActivityManufacturing, Material: 200, Quantity: 2},
			{Blueprint: 500, Activity: sde.ActivityManufacturing, Material: 300, Quantity: 3},
			{Blueprint: 600, Activity: sde.ActivityManufacturing, Material: 400, Quantity: 1},
		},
	}
}
