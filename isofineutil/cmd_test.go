/*
Copyright © 2025 the IsoFine authors.
This file is part of IsoFine.

IsoFine is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

IsoFine is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with IsoFine.  If not, see <http://www.gnu.org/licenses/>.
*/

package isofineutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSpectrumLayered(t *testing.T) {
	cfg := InitializeConfig()
	p, err := Spectrum(cfg, "H2O")
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() < 2 {
		t.Errorf("%d configurations at the default cutoff, want at least 2", p.Len())
	}
	if p.TotalProb() < 0.9999-1e-9 {
		t.Errorf("coverage %g below the default cutoff", p.TotalProb())
	}
}

func TestSpectrumThresholdMode(t *testing.T) {
	cfg := InitializeConfig()
	cfg.Set("threshold", 1e-4)
	p, err := Spectrum(cfg, "C1H4")
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() < 2 {
		t.Errorf("%d configurations, want at least 2", p.Len())
	}
}

func TestSpectrumRejects(t *testing.T) {
	cfg := InitializeConfig()
	if _, err := Spectrum(cfg, "Qq7"); err == nil {
		t.Error("unknown element should fail")
	}
	cfg.Set("cutoff", 1.5)
	if _, err := Spectrum(cfg, "H2O"); err == nil {
		t.Error("cutoff above 1 should fail")
	}
}

func TestSpectrumCustomCatalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.toml")
	src := `
[[element]]
symbol = "X"
atomic_number = 119
  [[element.isotope]]
  mass = 100.0
  abundance = 1.0
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := InitializeConfig()
	cfg.Set("catalogue", path)
	p, err := Spectrum(cfg, "X3")
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 1 {
		t.Fatalf("%d configurations for a single-isotope element, want 1", p.Len())
	}
	if p.Masses[0] != 300 {
		t.Errorf("mass %g, want 300", p.Masses[0])
	}
}

func TestPrintProduct(t *testing.T) {
	cfg := InitializeConfig()
	p, err := Spectrum(cfg, "H2O")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := PrintProduct(&buf, p); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != p.Len() {
		t.Errorf("%d lines for %d configurations", len(lines), p.Len())
	}
	if !strings.Contains(lines[0], "Mass = ") {
		t.Errorf("unexpected line format: %q", lines[0])
	}
}

func TestDescribe(t *testing.T) {
	cfg := InitializeConfig()
	p, err := Spectrum(cfg, "C6H12O6")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Describe(&buf, "C6H12O6", p); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"C6H12O6", "most probable", "centroid mass", "mass range"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPlotProduct(t *testing.T) {
	cfg := InitializeConfig()
	p, err := Spectrum(cfg, "H2O")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "water.png")
	if err := PlotProduct(p, "H2O", path); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("plot file missing or empty: %v", err)
	}
}
