package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/handson/internal/detector"
	"github.com/ayusman/handson/internal/gesture"
)

func writeSamples(t *testing.T, file sampleFile) string {
	t.Helper()
	data, err := json.Marshal(file)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "samples.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_PrintsCatalogEntry(t *testing.T) {
	palm := detector.OpenPalmPose()
	path := writeSamples(t, sampleFile{
		Name:    "Wave",
		Samples: []detector.Pose{palm, palm, palm},
	})

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-in", path, "-joints", "thumbTip, indexTip,middleTip"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v (stderr %s)", err, stderr.String())
	}

	// The output must load as a one-entry catalog.
	catalog, err := gesture.LoadCatalog(strings.NewReader("[" + stdout.String() + "]"))
	if err != nil {
		t.Fatalf("output is not a valid catalog entry: %v\n%s", err, stdout.String())
	}
	tmpl, ok := catalog.Lookup("wave")
	if !ok {
		t.Fatal("entry name lost")
	}
	if len(tmpl.Joints) != 3 || len(tmpl.Distances) != 3 {
		t.Errorf("joints=%d distances=%d, want 3 and 3", len(tmpl.Joints), len(tmpl.Distances))
	}
	if tmpl.Tolerance != gesture.MinTrainedTolerance {
		t.Errorf("identical samples should get the minimum tolerance, got %v", tmpl.Tolerance)
	}
	if stderr.Len() != 0 {
		t.Errorf("unexpected warnings: %s", stderr.String())
	}
}

func TestRun_WarnsOnCollision(t *testing.T) {
	pose := detector.ILoveYouPose()
	path := writeSamples(t, sampleFile{Samples: []detector.Pose{pose, pose}})

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-in", path, "-name", "Rock On"}, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(stderr.String(), `"I Love You"`) {
		t.Errorf("expected collision warning with I Love You, got %q", stderr.String())
	}
}

func TestRun_Errors(t *testing.T) {
	missingJoint := writeSamples(t, sampleFile{
		Name:    "Broken",
		Samples: []detector.Pose{detector.OpenPalmPose().Without(detector.LittleTip)},
	})

	tests := []struct {
		name string
		args []string
	}{
		{"no input", nil},
		{"missing file", []string{"-in", filepath.Join(t.TempDir(), "nope.json")}},
		{"unknown joint", []string{"-in", missingJoint, "-joints", "wrist,pinky"}},
		{"no usable samples", []string{"-in", missingJoint}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if err := run(tt.args, &stdout, &stderr); err == nil {
				t.Error("run() should fail")
			}
			if stdout.Len() != 0 {
				t.Errorf("unexpected output %s", stdout.String())
			}
		})
	}
}
