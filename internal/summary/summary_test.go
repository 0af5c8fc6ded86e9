package summary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cgviz/qcmpost/internal/collect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestCategory(t *testing.T) {
	for typ, want := range map[string]string{
		"BS":        TxPov,
		"gNodeB":    TxPov,
		"PoleArray": TxPov,
		"Tx":        TxPov,
		"Rx":        RxPov,
		"UE":        RxPov,
		"MS":        RxPov,
		"Sensor":    RxPov,
	} {
		assert.Equal(t, want, Category(typ), typ)
	}
}

func mergedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"qcmTrace.BS1.json":   `{"Rx01":[{"P":-80.5},{"P":-95}],"Rx02":[{"P":-60.25}]}`,
		"qcmTrace.Tx-01.json": `{"Rx-04":[],"Rx-05":{"note":"no paths"}}`,
		"qcmPov.Rx.json":      `{"01":{},"02":{},"03":{}}`,
		"qcmPov.BS.json":      `{"1":{}}`,
		"qcmKpis.run.json":    `{"nfo":{}}`,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0666))
	}
	return dir
}

func TestBuild(t *testing.T) {
	rep, err := Build(mergedDir(t))
	require.NoError(t, err)

	require.Len(t, rep.Transmitters, 2)
	bs1 := rep.Transmitters[0]
	assert.Equal(t, "BS1", bs1.Tx)
	assert.Equal(t, 2, bs1.Receivers)
	assert.Equal(t, 3, bs1.Paths)
	assert.Equal(t, -95.0, bs1.Min)
	assert.Equal(t, -60.25, bs1.Max)

	tx := rep.Transmitters[1]
	assert.Equal(t, "Tx-01", tx.Tx)
	assert.Equal(t, 2, tx.Receivers)
	assert.Equal(t, 0, tx.Paths)

	assert.Equal(t, 3, rep.Overall.Paths)
	assert.Equal(t, -95.0, rep.Overall.Min)
	assert.Equal(t, -60.25, rep.Overall.Max)

	assert.Equal(t, []PovGroup{
		{Type: "BS", Category: TxPov, Count: 1},
		{Type: "Rx", Category: RxPov, Count: 3},
	}, rep.Povs)
}

func TestReportJSON(t *testing.T) {
	rep, err := Build(mergedDir(t))
	require.NoError(t, err)
	out := string(rep.JSON())

	require.True(t, gjson.Valid(out))
	assert.Equal(t, "BS1", gjson.Get(out, "transmitters.0.tx").String())
	assert.Equal(t, -95.0, gjson.Get(out, "transmitters.0.min").Float())
	assert.False(t, gjson.Get(out, "transmitters.1.min").Exists())
	assert.Equal(t, int64(3), gjson.Get(out, "overall.paths").Int())
	assert.Equal(t, -60.25, gjson.Get(out, "overall.max").Float())
	assert.Equal(t, `["BS","Rx"]`, gjson.Get(out, "povs.#.type|@ugly").Raw)
	assert.Equal(t, "tx_pov", gjson.Get(out, "povs.0.category").String())
}

func TestBuildEmpty(t *testing.T) {
	rep, err := Build(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, rep.Transmitters)
	assert.Equal(t, 0, rep.Overall.Paths)
	out := string(rep.JSON())
	assert.False(t, gjson.Get(out, "overall.min").Exists())
	assert.Equal(t, int64(0), gjson.Get(out, "transmitters.#").Int())
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qcmTrace.BS1.json"), []byte(`[1]`), 0666))
	_, err := Build(dir)
	assert.ErrorIs(t, err, collect.ErrInvalidJSON)

	_, err = Build(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildSkipsNonNumericPower(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qcmTrace.Tx01.json"),
		[]byte(`{"Rx01":[{"P":-80},{"P":null},{"P":"n/a"},{"P":true}],"Rx02":[{"P":-92.5}]}`), 0666))

	rep, err := Build(dir)
	require.NoError(t, err)
	require.Len(t, rep.Transmitters, 1)
	tx := rep.Transmitters[0]
	assert.Equal(t, 2, tx.Receivers)
	assert.Equal(t, 2, tx.Paths)
	assert.Equal(t, -92.5, tx.Min)
	assert.Equal(t, -80.0, tx.Max)
	assert.Equal(t, -80.0, rep.Overall.Max)
}

const kpiDoc = `{
  "nfo": {"KPIS": ["rssi", "sinr"]},
  "Tx01": [
    {"XYZ": [0, 0, 1.5], "KPIS": {"rssi": [-70], "sinr": [12]}},
    {"XYZ": [5, 0, 1.5], "KPIS": {"rssi": [-95], "sinr": [null]}},
    {"XYZ": [10, 0, 1.5], "KPIS": {"rssi": [null], "sinr": [3]}}
  ],
  "Tx02": [
    {"XYZ": [0, 0, 1.5], "KPIS": {"rssi": [-82], "sinr": [4]}},
    {"XYZ": [5, 0, 1.5], "KPIS": {"rssi": [-60], "sinr": [20]}},
    {"XYZ": [10, 0, 1.5], "KPIS": {"rssi": [-101], "sinr": ["n/a"]}}
  ]
}`

func TestBuildKpis(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qcmKpis.city.json"), []byte(kpiDoc), 0666))

	rep, err := Build(dir)
	require.NoError(t, err)
	require.Len(t, rep.Kpis, 2)

	rssi := rep.Kpis[0]
	assert.Equal(t, "qcmKpis.city.json", rssi.Source)
	assert.Equal(t, "rssi", rssi.Name)
	assert.Equal(t, 5, rssi.Values)
	assert.Equal(t, -101.0, rssi.Min)
	assert.Equal(t, "Tx02", rssi.Worst)
	assert.Equal(t, -60.0, rssi.Max)
	assert.Equal(t, "Tx02", rssi.Best)
	assert.InDelta(t, -81.6, rssi.Mean, 1e-9)
	assert.Equal(t, []TxPoints{{Tx: "Tx01", Points: 1}, {Tx: "Tx02", Points: 2}}, rssi.Coverage)

	sinr := rep.Kpis[1]
	assert.Equal(t, 4, sinr.Values)
	assert.Equal(t, 3.0, sinr.Min)
	assert.Equal(t, "Tx01", sinr.Worst)
	assert.Equal(t, 20.0, sinr.Max)
	assert.Equal(t, "Tx02", sinr.Best)
	assert.Equal(t, []TxPoints{{Tx: "Tx01", Points: 2}, {Tx: "Tx02", Points: 1}}, sinr.Coverage)

	out := string(rep.JSON())
	require.True(t, gjson.Valid(out))
	assert.Equal(t, "rssi", gjson.Get(out, "kpis.0.name").String())
	assert.Equal(t, -101.0, gjson.Get(out, "kpis.0.min").Float())
	assert.Equal(t, "Tx02", gjson.Get(out, "kpis.0.best").String())
	assert.Equal(t, int64(2), gjson.Get(out, "kpis.0.coverage.1.points").Int())
}

func TestBuildKpisNoValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qcmKpis.empty.json"),
		[]byte(`{"nfo":{"KPIS":["rssi"]},"Tx01":[{"KPIS":{"rssi":[null]}}]}`), 0666))

	rep, err := Build(dir)
	require.NoError(t, err)
	require.Len(t, rep.Kpis, 1)
	assert.Equal(t, 0, rep.Kpis[0].Values)
	assert.Empty(t, rep.Kpis[0].Coverage)

	out := string(rep.JSON())
	assert.False(t, gjson.Get(out, "kpis.0.min").Exists())
	assert.Equal(t, int64(0), gjson.Get(out, "kpis.0.coverage.#").Int())
}
