package xdmf

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// sample is one time-suffixed occurrence of a function
type sample struct {
	value  float64
	suffix string // suffix text as written, kept for name lookup
}

// functionSamples indexes one function's time-suffixed fragments, sorted by
// time value for binary-search selection
type functionSamples struct {
	samples  []sample
	suffixes map[string]bool
}

// selectSuffix applies the selection policy for a target time: the exact
// suffix when present, else the greatest sample strictly below the target,
// else the earliest available sample.
func (fs *functionSamples) selectSuffix(suffix string, t float64) string {
	if fs.suffixes[suffix] {
		return suffix
	}
	// First sample with value >= t; everything before it is < t
	i := sort.Search(len(fs.samples), func(i int) bool {
		return fs.samples[i].value >= t
	})
	if i > 0 {
		return fs.samples[i-1].suffix
	}
	return fs.samples[0].suffix
}

// Assemble rewrites a flat XDMF document into one temporal collection.
//
// Attribute names encode either a plain function name or
// "<function>__<time>". Every distinct time across all suffixed functions
// becomes one Grid in a temporal collection; per function and group time
// the fragment is chosen by selectSuffix, and suffix-free functions repeat
// unchanged in every group. When no attribute carries a suffix the document
// is a single snapshot already and is left untouched; Assemble reports
// whether it regrouped.
func Assemble(doc *etree.Document) bool {
	geometry := doc.FindElement("//Geometry")
	topology := doc.FindElement("//Topology")
	attributes := doc.FindElements("//Attribute")

	// Unique function names in first-appearance order, plus the sample
	// index per function and the merged time axis
	var funcOrder []string
	functions := make(map[string]*functionSamples)
	byName := make(map[string]*etree.Element)
	timeSeen := make(map[string]bool)
	var timeSuffixes []sample

	for _, attr := range attributes {
		name := attr.SelectAttrValue("Name", "")
		if _, dup := byName[name]; !dup {
			byName[name] = attr
		}
		base, suffix, suffixed := strings.Cut(name, "__")
		fs := functions[base]
		if fs == nil {
			fs = &functionSamples{suffixes: make(map[string]bool)}
			functions[base] = fs
			funcOrder = append(funcOrder, base)
		}
		if !suffixed {
			continue
		}
		value, err := strconv.ParseFloat(suffix, 64)
		if err != nil {
			continue
		}
		fs.samples = append(fs.samples, sample{value: value, suffix: suffix})
		fs.suffixes[suffix] = true
		if !timeSeen[suffix] {
			timeSeen[suffix] = true
			timeSuffixes = append(timeSuffixes, sample{value: value, suffix: suffix})
		}
	}
	if len(timeSuffixes) == 0 {
		return false
	}

	sort.Slice(timeSuffixes, func(i, j int) bool {
		return timeSuffixes[i].value < timeSuffixes[j].value
	})
	for _, fs := range functions {
		sort.Slice(fs.samples, func(i, j int) bool {
			return fs.samples[i].value < fs.samples[j].value
		})
	}

	domain := doc.FindElement("//Domain")
	if domain == nil {
		return false
	}

	collection := etree.NewElement("Grid")
	collection.CreateAttr("Name", "TimeSeries")
	collection.CreateAttr("GridType", "Collection")
	collection.CreateAttr("CollectionType", "Temporal")

	for _, ts := range timeSuffixes {
		grid := collection.CreateElement("Grid")
		grid.CreateAttr("Name", GridName)
		grid.CreateAttr("GridType", "Uniform")
		timeEl := grid.CreateElement("Time")
		timeEl.CreateAttr("Value", ts.suffix)
		if geometry != nil {
			grid.AddChild(geometry.Copy())
		}
		if topology != nil {
			grid.AddChild(topology.Copy())
		}
		for _, base := range funcOrder {
			fs := functions[base]
			if len(fs.samples) == 0 {
				// Time-invariant, reused in every group
				if attr := byName[base]; attr != nil {
					grid.AddChild(attr.Copy())
				}
				continue
			}
			suffix := fs.selectSuffix(ts.suffix, ts.value)
			attr := byName[base+"__"+suffix]
			if attr == nil {
				continue
			}
			chosen := attr.Copy()
			chosen.CreateAttr("Name", base)
			grid.AddChild(chosen)
		}
	}

	// The collection replaces the original snapshot grid
	if first := domain.ChildElements(); len(first) > 0 {
		domain.RemoveChild(first[0])
	}
	domain.AddChild(collection)
	return true
}

// ConvertToTimeSeriesFile rewrites an XDMF file in place as a temporal
// collection, optionally copying the original aside first
func ConvertToTimeSeriesFile(fxdmf, backup string) error {
	if backup != "" {
		if err := copyFile(fxdmf, backup); err != nil {
			return fmt.Errorf("backing up %s: %v", fxdmf, err)
		}
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(fxdmf); err != nil {
		return fmt.Errorf("parsing %s: %v", fxdmf, err)
	}
	if !Assemble(doc) {
		return nil
	}
	doc.Indent(2)
	return doc.WriteToFile(fxdmf)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
