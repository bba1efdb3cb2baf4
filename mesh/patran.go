package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Patran packet type codes mapped to our cell kinds
var patranCellType = map[int]CellType{
	2: Line,
	3: Triangle,
	4: Quad,
	5: Tetra,
	8: Hexahedron,
}

// Coordinate fields are written in fixed-width exponential notation and may
// abut without a delimiter, e.g. "1.2E+00-3.4E-01", so field splitting
// cannot separate them.
var expFloat = regexp.MustCompile(`[-0-9.]+E[+-]?[0-9]+`)

// ReadPatranFile reads a Patran neutral mesh file, keeping only the
// requested cell kinds. With no kinds given it reads triangles and tetras.
func ReadPatranFile(filename string, kinds ...CellType) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadPatran(file, kinds...)
}

// ReadPatran decodes a Patran neutral mesh from r.
//
// Records are recognized by their leading packet tag: "1" opens a point
// record (header line with the external point id, then one coordinate line),
// "2" opens a cell record (header line with external cell id and type code,
// a line whose leading field is the vertex count, then the connectivity
// line). Malformed records are skipped; the parse fails only when no point
// or cell record decodes at all. Free points are removed before return.
func ReadPatran(r io.Reader, kinds ...CellType) (*Mesh, error) {
	if len(kinds) == 0 {
		kinds = []CellType{Triangle, Tetra}
	}
	requested := make(map[CellType]bool, len(kinds))
	for _, k := range kinds {
		requested[k] = true
	}

	m := NewMesh()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		fields := splitRecord(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "1": // point record
			if len(fields) < 2 {
				continue
			}
			pointID, err := strconv.Atoi(fields[1])
			if err != nil {
				continue
			}
			if !scanner.Scan() {
				break
			}
			coords := parseCoords(scanner.Text())
			if coords == nil {
				continue
			}
			m.PointsID[pointID] = len(m.Points)
			m.Points = append(m.Points, coords)

		case "2": // cell record
			if len(fields) < 3 {
				continue
			}
			cellID, err := strconv.Atoi(fields[1])
			if err != nil {
				continue
			}
			typeCode, err := strconv.Atoi(fields[2])
			if err != nil {
				continue
			}
			if !scanner.Scan() {
				break
			}
			countFields := splitRecord(scanner.Text())
			if len(countFields) == 0 {
				continue
			}
			numVerts, err := strconv.Atoi(countFields[0])
			if err != nil || numVerts <= 0 {
				continue
			}
			if !scanner.Scan() {
				break
			}
			connectivity := splitRecord(scanner.Text())

			kind, known := patranCellType[typeCode]
			if !known || !requested[kind] {
				// Unrequested kinds are consumed but never stored
				continue
			}
			cell := readCell(connectivity, numVerts, m.PointsID)
			if cell == nil {
				continue
			}
			m.Cells[kind] = append(m.Cells[kind], cell)
			m.CellsID[kind] = append(m.CellsID[kind], cellID)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading mesh: %v", err)
	}

	if len(m.Points) == 0 && m.NumCells() == 0 {
		return nil, fmt.Errorf("no recognizable point or cell records")
	}

	m.RemoveFreePoints()
	return m, nil
}

// splitRecord splits a record line on comma or whitespace runs, which the
// format uses interchangeably
func splitRecord(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\r'
	})
}

// parseCoords extracts the three coordinates from a point's coordinate line,
// returning nil if the line does not carry three parseable floats
func parseCoords(line string) []float64 {
	matches := expFloat.FindAllString(line, 3)
	if len(matches) < 3 {
		return nil
	}
	coords := make([]float64, 3)
	for i, s := range matches {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		coords[i] = v
	}
	return coords
}

// readCell maps the first numVerts external point ids on a connectivity line
// through pointsID, returning nil when the line is short or references an
// unknown point
func readCell(fields []string, numVerts int, pointsID map[int]int) []int {
	if len(fields) < numVerts {
		return nil
	}
	cell := make([]int, numVerts)
	for i := 0; i < numVerts; i++ {
		ext, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil
		}
		idx, ok := pointsID[ext]
		if !ok {
			return nil
		}
		cell[i] = idx
	}
	return cell
}
