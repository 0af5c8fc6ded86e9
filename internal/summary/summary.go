// Package summary reports on a directory of merged qcmPov and qcmTrace
// files: received power ranges per transmitter, pov counts per type and
// the value range of every KPI in the qcmKpis files.
package summary

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cgviz/qcmpost/internal/collect"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Pov categories, as drawn by the viewer.
const (
	TxPov = "tx_pov"
	RxPov = "rx_pov"
)

var (
	txTypes = []string{"bs", "enb", "nb", "tx", "polearray", "gnb", "enodeb", "gnodeb"}
	rxTypes = []string{"ms", "ue", "rx"}
)

// Category classifies a pov type by name. Unknown types are receivers.
func Category(povType string) string {
	name := strings.ToLower(povType)
	for _, t := range txTypes {
		if strings.Contains(name, t) {
			return TxPov
		}
	}
	for _, t := range rxTypes {
		if strings.Contains(name, t) {
			return RxPov
		}
	}
	return RxPov
}

// Range accumulates path power values.
type Range struct {
	Paths int
	Min   float64
	Max   float64
}

func newRange() Range {
	return Range{Min: math.Inf(1), Max: math.Inf(-1)}
}

func (r *Range) add(p float64) {
	r.Paths++
	r.Min = math.Min(r.Min, p)
	r.Max = math.Max(r.Max, p)
}

func (r *Range) merge(o Range) {
	r.Paths += o.Paths
	r.Min = math.Min(r.Min, o.Min)
	r.Max = math.Max(r.Max, o.Max)
}

// TxRange is the power range of every path leaving one transmitter.
type TxRange struct {
	Tx        string
	Receivers int
	Range
}

// PovGroup counts the povs of one type.
type PovGroup struct {
	Type     string
	Category string
	Count    int
}

type Report struct {
	Transmitters []TxRange
	Overall      Range
	Povs         []PovGroup
	Kpis         []KpiStat
}

// Build reads the merged files in dir.
func Build(dir string) (Report, error) {
	rep := Report{Overall: newRange()}
	traces, err := collect.Glob(dir, collect.Trace.Pattern())
	if err != nil {
		return Report{}, fmt.Errorf("summary: scan %s: %w", dir, err)
	}
	for _, name := range traces {
		doc, err := readObject(filepath.Join(dir, name))
		if err != nil {
			return Report{}, err
		}
		tr := TxRange{Tx: group(collect.Trace, name), Range: newRange()}
		doc.ForEach(func(_, paths gjson.Result) bool {
			tr.Receivers++
			paths.Get("#.P").ForEach(func(_, p gjson.Result) bool {
				if p.Type == gjson.Number {
					tr.add(p.Float())
				}
				return true
			})
			return true
		})
		rep.Overall.merge(tr.Range)
		rep.Transmitters = append(rep.Transmitters, tr)
	}

	povs, err := collect.Glob(dir, collect.Pov.Pattern())
	if err != nil {
		return Report{}, fmt.Errorf("summary: scan %s: %w", dir, err)
	}
	for _, name := range povs {
		doc, err := readObject(filepath.Join(dir, name))
		if err != nil {
			return Report{}, err
		}
		typ := group(collect.Pov, name)
		var n int
		doc.ForEach(func(_, _ gjson.Result) bool {
			n++
			return true
		})
		rep.Povs = append(rep.Povs, PovGroup{Type: typ, Category: Category(typ), Count: n})
	}

	kpis, err := collect.Glob(dir, KpiPattern)
	if err != nil {
		return Report{}, fmt.Errorf("summary: scan %s: %w", dir, err)
	}
	for _, name := range kpis {
		doc, err := readObject(filepath.Join(dir, name))
		if err != nil {
			return Report{}, err
		}
		rep.Kpis = append(rep.Kpis, kpiStats(name, doc)...)
	}
	return rep, nil
}

// group strips the family prefix and the .json suffix of a merged name.
func group(f collect.Family, name string) string {
	return strings.TrimSuffix(strings.TrimPrefix(name, f.Prefix()+"."), ".json")
}

func readObject(path string) (gjson.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("summary: read %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("summary: %s: %w", path, collect.ErrInvalidJSON)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return gjson.Result{}, fmt.Errorf("summary: %s: not a merged file: %w", path, collect.ErrInvalidJSON)
	}
	return doc, nil
}

func setRange(json, path string, r Range) string {
	json, _ = sjson.Set(json, path+"paths", r.Paths)
	if r.Paths > 0 {
		json, _ = sjson.Set(json, path+"min", r.Min)
		json, _ = sjson.Set(json, path+"max", r.Max)
	}
	return json
}

// JSON renders the report as an indented document.
func (r Report) JSON() []byte {
	json := `{"transmitters":[],"povs":[],"kpis":[]}`
	for _, tr := range r.Transmitters {
		var entry string
		entry, _ = sjson.Set(entry, "tx", tr.Tx)
		entry, _ = sjson.Set(entry, "receivers", tr.Receivers)
		entry = setRange(entry, "", tr.Range)
		json, _ = sjson.SetRaw(json, "transmitters.-1", entry)
	}
	json = setRange(json, "overall.", r.Overall)
	for _, pg := range r.Povs {
		var entry string
		entry, _ = sjson.Set(entry, "type", pg.Type)
		entry, _ = sjson.Set(entry, "category", pg.Category)
		entry, _ = sjson.Set(entry, "count", pg.Count)
		json, _ = sjson.SetRaw(json, "povs.-1", entry)
	}
	for _, ks := range r.Kpis {
		json, _ = sjson.SetRaw(json, "kpis.-1", ks.json())
	}
	return pretty.Pretty([]byte(json))
}
