// Command templategen builds a gesture catalog entry from recorded poses.
//
// The input is a JSON file:
//
//	{"name": "B", "joints": ["wrist", "thumbTip", ...], "samples": [<pose>, ...]}
//
// where each pose has the same shape as the poses served on /api/live.
// Joints default to the full hand. The entry is printed to stdout, ready to
// be added to a catalog file.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/ayusman/handson/internal/detector"
	"github.com/ayusman/handson/internal/gesture"
)

type sampleFile struct {
	Name    string           `json:"name"`
	Joints  []detector.Joint `json:"joints"`
	Samples []detector.Pose  `json:"samples"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("templategen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "sample file (JSON)")
	name := fs.String("name", "", "gesture name (overrides the sample file)")
	joints := fs.String("joints", "", "comma-separated joint names (overrides the sample file)")
	minConfidence := fs.Float64("min-confidence", 0.2, "minimum keypoint confidence")
	catalogPath := fs.String("catalog", "", "catalog to check for collisions (default: built-in)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("-in is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read samples: %w", err)
	}
	var file sampleFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode samples: %w", err)
	}

	if *name != "" {
		file.Name = *name
	}
	if *joints != "" {
		file.Joints, err = parseJoints(*joints)
		if err != nil {
			return err
		}
	}
	if len(file.Joints) == 0 {
		file.Joints = detector.AllJoints()
	}

	tmpl, err := gesture.NewTrainer().Train(file.Name, file.Joints, file.Samples, *minConfidence)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		return err
	}
	for _, other := range collisions(tmpl, catalog) {
		fmt.Fprintf(stderr, "warning: %q is within tolerance of %q\n", tmpl.Name, other)
	}

	out, err := json.MarshalIndent(tmpl, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(out))
	return err
}

func parseJoints(list string) ([]detector.Joint, error) {
	var out []detector.Joint
	for _, name := range strings.Split(list, ",") {
		j, err := detector.ParseJoint(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

func loadCatalog(path string) (*gesture.Catalog, error) {
	if path == "" {
		return gesture.DefaultCatalog()
	}
	return gesture.LoadCatalogFile(path)
}

// collisions returns the names of catalog templates over the same joints
// that t's fingerprint would pass, or that would pass t.
func collisions(t *gesture.Template, catalog *gesture.Catalog) []string {
	var out []string
	for _, other := range catalog.Templates() {
		if other.Name == t.Name || !slices.Equal(other.Joints, t.Joints) {
			continue
		}
		if gesture.Match(t.Distances, other).Passed || gesture.Match(other.Distances, t).Passed {
			out = append(out, other.Name)
		}
	}
	return out
}
