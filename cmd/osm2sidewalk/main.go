package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/openwalk/osm2sidewalk"
)

var (
	tagStr      = flag.String("tags", strings.Join(osm2sidewalk.DefaultHighwayTags, ","), "Set of needed highway tags (separated by commas)")
	osmFileName = flag.String("file", "my_graph.osm.pbf", "Filename of *.osm / *.osm.pbf file")
	out         = flag.String("out", "sidewalks.geojson", "Filename of output file")
	format      = flag.String("format", "geojson", "Format of output file. Expected values: geojson / osm")
	bufferWidth = flag.Float64("buffer", 0.00009, "Half-width of the parallel detection buffer (degrees)")
	verbose     = flag.Bool("verbose", false, "Print progress of each pipeline stage")
)

func main() {
	flag.Parse()

	cfg := osm2sidewalk.OsmConfiguration{
		Highways: strings.Split(*tagStr, ","),
		Verbose:  *verbose,
	}

	net, err := osm2sidewalk.ImportFromOSMFile(*osmFileName, &cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	preprocessor := osm2sidewalk.NewPreprocessor(net,
		osm2sidewalk.WithBufferWidth(*bufferWidth),
		osm2sidewalk.WithVerbose(*verbose),
	)
	if err := preprocessor.Run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var data []byte
	switch strings.ToLower(*format) {
	case "geojson":
		data, err = osm2sidewalk.ExportGeoJSON(net)
	case "osm":
		data, err = osm2sidewalk.ExportOSM(net)
	default:
		fmt.Printf("Output format '%s' is not handled yet\n", *format)
		os.Exit(1)
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, data, 0644); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if *verbose {
		fmt.Printf("Written %d bytes to '%s'\n", len(data), *out)
	}
}
