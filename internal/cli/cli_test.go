/*
Copyright © 2026 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package cli

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
method = "bilinear"
expression = "2*x + y"

[source]
type = "raster"
rows = 6
cols = 6
dx = 1.0

[destination]
type = "hex"
rows = 4
cols = 4
spacing = 1.0
x0 = 0.5
y0 = 0.5

[extrapolation]
method = "nearest"
`

func writeConfig(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return dir, path
}

func TestRunCSV(t *testing.T) {
	dir, path := writeConfig(t)
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, New().Execute("run", "--config", path, "--output", out, "--log-level", "warn"))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "x", "y", "value"}, recs[0])
	assert.Len(t, recs, 16+1)
	// The lower left destination node is at (0.5, 0.5).
	assert.Equal(t, []string{"0", "0.5", "0.5"}, recs[1][:3])
	v, err := strconv.ParseFloat(recs[1][3], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, v, 1e-9)
}

func TestRunShapefile(t *testing.T) {
	dir, path := writeConfig(t)
	out := filepath.Join(dir, "out.shp")
	require.NoError(t, New().Execute("run", "--config", path, "-o", out, "-m", "nearest_dtos"))
	_, err := os.Stat(out)
	assert.NoError(t, err)
}

func TestPlotAndShp(t *testing.T) {
	dir, path := writeConfig(t)
	png := filepath.Join(dir, "src.png")
	require.NoError(t, New().Execute("plot", "--config", path, "--side", "source", "--file", png))
	_, err := os.Stat(png)
	assert.NoError(t, err)

	shp := filepath.Join(dir, "dst.shp")
	require.NoError(t, New().Execute("shp", "--config", path, "--file", shp))
	_, err = os.Stat(shp)
	assert.NoError(t, err)

	err = New().Execute("shp", "--config", path, "--side", "middle", "--file", shp)
	assert.Error(t, err)
}

func TestRunErrors(t *testing.T) {
	dir, path := writeConfig(t)
	tests := [][]string{
		{"run", "--config", path, "--extrapolation.method", "bogus", "-o", filepath.Join(dir, "a.csv")},
		{"run", "--config", path, "--method", "spline", "-o", filepath.Join(dir, "b.csv")},
		{"run", "--config", path, "-o", filepath.Join(dir, "c.txt")},
		{"run", "--config", path, "-e", "z + 1", "-o", filepath.Join(dir, "d.csv")},
		{"run", "--config", filepath.Join(dir, "missing.toml")},
	}
	for _, args := range tests {
		assert.Error(t, New().Execute(args...), "%v", args)
	}
}
