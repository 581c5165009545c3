package hdf5

import (
	"sort"
	"strings"
	"testing"
)

func TestParseAttrPath(t *testing.T) {
	tests := []struct {
		path       string
		wantObject string
		wantAttr   string
		wantErr    bool
	}{
		{"/@root_attr", "/", "root_attr", false},
		{"/data@units", "/data", "units", false},
		{"/group/dataset@attr", "/group/dataset", "attr", false},
		{"/a/b/c@d", "/a/b/c", "d", false},
		{"data@attr", "/data", "attr", false}, // relative path normalized
		{"", "", "", true},                    // empty
		{"/path/no/at", "", "", true},         // missing @
		{"/path@", "", "", true},              // empty attr name
	}

	for _, tt := range tests {
		obj, attr, err := ParseAttrPath(tt.path)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAttrPath(%q): expected error", tt.path)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAttrPath(%q): unexpected error: %v", tt.path, err)
			continue
		}
		if obj != tt.wantObject || attr != tt.wantAttr {
			t.Errorf("ParseAttrPath(%q): got (%q, %q), want (%q, %q)",
				tt.path, obj, attr, tt.wantObject, tt.wantAttr)
		}
	}
}

func TestJoinAttrPath(t *testing.T) {
	tests := []struct {
		objectPath string
		attrName   string
		want       string
	}{
		{"/", "attr", "/@attr"},
		{"/data", "units", "/data@units"},
		{"/group/dataset", "calibration", "/group/dataset@calibration"},
	}

	for _, tt := range tests {
		if got := JoinAttrPath(tt.objectPath, tt.attrName); got != tt.want {
			t.Errorf("JoinAttrPath(%q, %q): got %q, want %q",
				tt.objectPath, tt.attrName, got, tt.want)
		}
	}
}

// attrFixture writes a file with attributed datasets in nested groups:
//
//	/data            float_attr=3.14, string_attr="hello"
//	/grp/sensor      units="volts"
func attrFixture(t *testing.T) string {
	t.Helper()

	return writeTestFile(t, "attrs_walk.h5", func(t *testing.T, root *Group) {
		_, err := root.CreateDataset("data", []int32{1, 2, 3},
			WithAttribute("float_attr", 3.14),
			WithAttribute("string_attr", "hello"),
		)
		if err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}

		grp, err := root.CreateGroup("grp")
		if err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		_, err = grp.CreateDataset("sensor", []float64{0.5},
			WithAttribute("units", "volts"))
		if err != nil {
			t.Fatalf("CreateDataset failed: %v", err)
		}
	})
}

func TestWalk(t *testing.T) {
	path := attrFixture(t)
	f := openTestFile(t, path)

	var groups, datasets []string
	err := Walk(f.Root(), func(p string, obj interface{}, err error) error {
		if err != nil {
			return err
		}
		switch obj.(type) {
		case *Group:
			groups = append(groups, p)
		case *Dataset:
			datasets = append(datasets, p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	sort.Strings(groups)
	sort.Strings(datasets)
	if len(groups) != 2 || groups[0] != "/" || groups[1] != "/grp" {
		t.Errorf("unexpected groups: %v", groups)
	}
	if len(datasets) != 2 || datasets[0] != "/data" || datasets[1] != "/grp/sensor" {
		t.Errorf("unexpected datasets: %v", datasets)
	}
}

func TestAttributeValue(t *testing.T) {
	path := attrFixture(t)
	f := openTestFile(t, path)

	ds, err := f.OpenDataset("/data")
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}

	attr := ds.Attr("float_attr")
	if attr == nil {
		t.Fatal("float_attr not found")
	}
	val, err := attr.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v, ok := val.(float64); !ok || v != 3.14 {
		t.Errorf("float_attr: got %v (%T), want 3.14", val, val)
	}

	attr = ds.Attr("string_attr")
	if attr == nil {
		t.Fatal("string_attr not found")
	}
	val, err = attr.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v, ok := val.(string); !ok || v != "hello" {
		t.Errorf("string_attr: got %v (%T), want hello", val, val)
	}
}

func TestGetAttr(t *testing.T) {
	path := attrFixture(t)
	f := openTestFile(t, path)

	attr, err := f.GetAttr("/data@float_attr")
	if err != nil {
		t.Fatalf("GetAttr failed: %v", err)
	}
	val, err := attr.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v, ok := val.(float64); !ok || v != 3.14 {
		t.Errorf("got %v (%T), want 3.14", val, val)
	}

	// Nested object path.
	val, err = f.ReadAttr("/grp/sensor@units")
	if err != nil {
		t.Fatalf("ReadAttr failed: %v", err)
	}
	if v, ok := val.(string); !ok || v != "volts" {
		t.Errorf("got %v (%T), want volts", val, val)
	}
}

func TestGetAttrNotFound(t *testing.T) {
	path := attrFixture(t)
	f := openTestFile(t, path)

	if _, err := f.GetAttr("/data@nonexistent"); err == nil {
		t.Error("expected error for a missing attribute")
	}
	if _, err := f.GetAttr("/nonexistent@attr"); err == nil {
		t.Error("expected error for a missing object")
	}
}

func TestWalkAttrs(t *testing.T) {
	path := attrFixture(t)
	f := openTestFile(t, path)

	found := map[string]interface{}{}
	err := f.WalkAttrs(func(info AttrInfo) error {
		if info.Err != nil {
			t.Errorf("attribute %s unreadable: %v", info.Path, info.Err)
			return nil
		}
		found[info.Path] = info.Value
		return nil
	})
	if err != nil {
		t.Fatalf("WalkAttrs failed: %v", err)
	}

	if len(found) != 3 {
		t.Errorf("expected 3 attributes, got %d: %v", len(found), found)
	}
	if v, ok := found["/data@string_attr"].(string); !ok || v != "hello" {
		t.Errorf("/data@string_attr: got %v", found["/data@string_attr"])
	}
	if v, ok := found["/grp/sensor@units"].(string); !ok || v != "volts" {
		t.Errorf("/grp/sensor@units: got %v", found["/grp/sensor@units"])
	}
}

func TestWalkAttrsStopEarly(t *testing.T) {
	path := attrFixture(t)
	f := openTestFile(t, path)

	count := 0
	err := f.WalkAttrs(func(info AttrInfo) error {
		count++
		return ErrStopWalk
	})
	if !IsStopWalk(err) {
		t.Errorf("expected ErrStopWalk, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected walk to stop after 1 attribute, got %d", count)
	}
}

func TestAttrInfoFields(t *testing.T) {
	path := attrFixture(t)
	f := openTestFile(t, path)

	err := f.WalkAttrs(func(info AttrInfo) error {
		if info.Path == "" || info.ObjectPath == "" || info.Name == "" {
			t.Errorf("incomplete AttrInfo: %+v", info)
		}
		if info.ObjectType != "group" && info.ObjectType != "dataset" {
			t.Errorf("invalid ObjectType %q", info.ObjectType)
		}
		if info.Attr == nil {
			t.Error("Attr is nil")
		}
		if want := JoinAttrPath(info.ObjectPath, info.Name); info.Path != want {
			t.Errorf("Path %q does not match ObjectPath@Name %q", info.Path, want)
		}
		if !strings.HasPrefix(info.Path, info.ObjectPath) {
			t.Errorf("Path %q does not start with ObjectPath %q", info.Path, info.ObjectPath)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkAttrs failed: %v", err)
	}
}
