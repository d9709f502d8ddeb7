package osm2sidewalk

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="52.5200" lon="13.4050"/>
  <node id="2" lat="52.5201" lon="13.4060"/>
  <node id="3" lat="52.5202" lon="13.4070"/>
  <node id="4" lat="52.5210" lon="13.4060"/>
  <node id="5" lat="52.5211" lon="13.4070"/>
  <way id="100">
    <nd ref="3"/>
    <nd ref="2"/>
    <nd ref="1"/>
    <tag k="highway" v="residential"/>
    <tag k="oneway" v="yes"/>
    <tag k="ref" v="B96"/>
  </way>
  <way id="101">
    <nd ref="4"/>
    <nd ref="5"/>
    <tag k="highway" v="service"/>
  </way>
</osm>
`

func writeSampleOSM(t *testing.T) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "sample.osm")
	if err := os.WriteFile(filename, []byte(sampleOSM), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestImportFromOSMFile(t *testing.T) {
	filename := writeSampleOSM(t)
	net, err := ImportFromOSMFile(filename, &OsmConfiguration{Highways: []string{"residential"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(net.ways) != 1 {
		t.Fatalf("Expected only the residential way imported, got %d ways", len(net.ways))
	}
	way := net.Way(100)
	if way == nil {
		t.Fatal("Way 100 missing")
	}
	if way.Type != "residential" {
		t.Errorf("Expected way type residential, got %q", way.Type)
	}
	if !way.Oneway {
		t.Error("Expected way 100 marked oneway")
	}
	if way.Ref != "B96" {
		t.Errorf("Expected ref B96, got %q", way.Ref)
	}
	// The service way's nodes must not linger.
	if net.Node(4) != nil || net.Node(5) != nil {
		t.Error("Nodes of filtered-out ways must not be imported")
	}
}

func TestImportFromOSMFileNormalizesWestToEast(t *testing.T) {
	filename := writeSampleOSM(t)
	net, err := ImportFromOSMFile(filename, &OsmConfiguration{Highways: []string{"residential"}})
	if err != nil {
		t.Fatal(err)
	}
	way := net.Way(100)
	// The source lists nodes east to west; import flips them.
	first := net.Node(way.Nodes[0])
	last := net.Node(way.Nodes[len(way.Nodes)-1])
	if first.Lon() > last.Lon() {
		t.Errorf("Expected west-most node first, got lon %f -> %f", first.Lon(), last.Lon())
	}
	if way.Nodes[0] != 1 {
		t.Errorf("Expected node 1 first after normalization, got %v", way.Nodes)
	}
}

func TestImportFromOSMFileDefaultTags(t *testing.T) {
	filename := writeSampleOSM(t)
	net, err := ImportFromOSMFile(filename, nil)
	if err != nil {
		t.Fatal(err)
	}
	// residential is in the default whitelist, service is not.
	if net.Way(100) == nil || net.Way(101) != nil {
		t.Errorf("Default whitelist mismatch: way 100 %v, way 101 %v", net.Way(100), net.Way(101))
	}
}

func TestImportFromOSMFileBounds(t *testing.T) {
	filename := writeSampleOSM(t)
	net, err := ImportFromOSMFile(filename, &OsmConfiguration{Highways: []string{"residential"}})
	if err != nil {
		t.Fatal(err)
	}
	bounds := net.BBox()
	if bounds.MinLat != 52.5200 || bounds.MaxLat != 52.5202 {
		t.Errorf("Unexpected latitude bounds: %+v", bounds)
	}
	if bounds.MinLon != 13.4050 || bounds.MaxLon != 13.4070 {
		t.Errorf("Unexpected longitude bounds: %+v", bounds)
	}
}

func TestImportFromOSMFileUnknownExtension(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "sample.csv")
	if err := os.WriteFile(filename, []byte("a;b"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportFromOSMFile(filename, nil); err == nil {
		t.Error("Expected an error for an unhandled file extension")
	}
}
