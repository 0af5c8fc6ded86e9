package summary

import (
	"math"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// KpiPattern matches the KPI files copied next to the merged outputs.
const KpiPattern = "qcmKpis.*.json"

// kpiInfo holds the list of KPI names; every other top-level key of a KPI
// file is a transmitter.
const kpiInfo = "nfo"

// KpiStat describes one KPI of one KPI file over all transmitters and
// sample points. Non-numeric samples are skipped.
type KpiStat struct {
	Source string
	Name   string
	Values int
	Min    float64
	Max    float64
	Mean   float64
	// Worst and Best are the transmitters holding Min and Max.
	Worst string
	Best  string
	// Coverage counts, per transmitter, the points where it has the best
	// value.
	Coverage []TxPoints
}

type TxPoints struct {
	Tx     string
	Points int
}

type sample struct {
	v  float64
	ok bool
}

// kpiStats reads a document shaped like
//
//	{"nfo":{"KPIS":["rssi"]},"Tx01":[{"XYZ":[x,y,z],"KPIS":{"rssi":[-71.5]}}]}
//
// where the n-th element of every transmitter array is the same point.
func kpiStats(source string, doc gjson.Result) []KpiStat {
	var names []string
	doc.Get(kpiInfo + ".KPIS").ForEach(func(_, name gjson.Result) bool {
		names = append(names, name.String())
		return true
	})

	var txs []string
	series := map[string]map[string][]sample{}
	doc.ForEach(func(key, points gjson.Result) bool {
		tx := key.String()
		if tx == kpiInfo || !points.IsArray() {
			return true
		}
		txs = append(txs, tx)
		s := map[string][]sample{}
		points.ForEach(func(_, point gjson.Result) bool {
			kpis := point.Get("KPIS").Map()
			for _, name := range names {
				v := kpis[name]
				if v.IsArray() {
					v = v.Get("0")
				}
				s[name] = append(s[name], sample{v: v.Float(), ok: v.Type == gjson.Number})
			}
			return true
		})
		series[tx] = s
		return true
	})

	stats := make([]KpiStat, 0, len(names))
	for _, name := range names {
		ks := KpiStat{Source: source, Name: name, Min: math.Inf(1), Max: math.Inf(-1)}
		var points int
		for _, tx := range txs {
			points = max(points, len(series[tx][name]))
		}
		var sum float64
		best := map[string]int{}
		for j := 0; j < points; j++ {
			var pointBest string
			pointMax := math.Inf(-1)
			for _, tx := range txs {
				s := series[tx][name]
				if j >= len(s) || !s[j].ok {
					continue
				}
				v := s[j].v
				ks.Values++
				sum += v
				if v < ks.Min {
					ks.Min, ks.Worst = v, tx
				}
				if v > ks.Max {
					ks.Max, ks.Best = v, tx
				}
				if v > pointMax {
					pointMax, pointBest = v, tx
				}
			}
			if pointBest != "" {
				best[pointBest]++
			}
		}
		if ks.Values > 0 {
			ks.Mean = sum / float64(ks.Values)
		}
		for _, tx := range txs {
			if best[tx] > 0 {
				ks.Coverage = append(ks.Coverage, TxPoints{Tx: tx, Points: best[tx]})
			}
		}
		stats = append(stats, ks)
	}
	return stats
}

func (ks KpiStat) json() string {
	var json string
	json, _ = sjson.Set(json, "source", ks.Source)
	json, _ = sjson.Set(json, "name", ks.Name)
	json, _ = sjson.Set(json, "values", ks.Values)
	if ks.Values > 0 {
		json, _ = sjson.Set(json, "min", ks.Min)
		json, _ = sjson.Set(json, "max", ks.Max)
		json, _ = sjson.Set(json, "mean", ks.Mean)
		json, _ = sjson.Set(json, "worst", ks.Worst)
		json, _ = sjson.Set(json, "best", ks.Best)
	}
	json, _ = sjson.SetRaw(json, "coverage", "[]")
	for _, c := range ks.Coverage {
		var entry string
		entry, _ = sjson.Set(entry, "tx", c.Tx)
		entry, _ = sjson.Set(entry, "points", c.Points)
		json, _ = sjson.SetRaw(json, "coverage.-1", entry)
	}
	return json
}
