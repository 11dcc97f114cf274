package store

import (
	"reflect"
	"testing"

	"indexstoredb/internal/model"
)

func TestUnitInfoRoundTrip(t *testing.T) {
	want := model.UnitInfo{
		UnitName:    "MyModule.o",
		MainFile:    "/src/main.c",
		OutFile:     "/build/main.o",
		Sysroot:     "/usr",
		Target:      "x86_64-apple-macos",
		ModTimeSec:  1700000000,
		HasMainFile: true,
		HasSysroot:  true,
		IsSystem:    false,
		HasTestSyms: true,
		Provider:    model.ProviderKindClang,
		FileDeps:    []string{"/src/main.c", "/src/util.h"},
		UnitDeps:    []string{"Util.o"},
		ProviderDeps: []string{
			"/usr/lib/system.a",
		},
		Deps: []model.Dependency{
			{Kind: model.DepFile, Name: "/src/util.h", IsSystem: false, Line: 12},
			{Kind: model.DepUnit, Name: "Util.o", ModuleName: "Util"},
			{Kind: model.DepRecord, Name: "record-1"},
		},
	}

	encoded := encodeUnitInfo(want)
	got, err := decodeUnitInfo(encoded)
	if err != nil {
		t.Fatalf("decodeUnitInfo: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestUnitInfoRoundTripEmpty(t *testing.T) {
	var want model.UnitInfo
	encoded := encodeUnitInfo(want)
	got, err := decodeUnitInfo(encoded)
	if err != nil {
		t.Fatalf("decodeUnitInfo: %v", err)
	}
	if len(got.Deps) != 0 || got.UnitName != "" {
		t.Errorf("expected zero value round trip, got %+v", got)
	}
}
